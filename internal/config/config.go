// Package config resolves contactq settings from flags, the environment, an
// optional config file, and defaults, in that order of precedence.
//
// Environment variables use the CONTACTQ_ prefix (CONTACTQ_DB,
// CONTACTQ_FORMAT, CONTACTQ_RAW, CONTACTQ_VERBOSE). Without an explicit
// --config path, contactq.yaml is searched for in the working directory and
// $HOME/.config/contactq; a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Keys, shared with the CLI flag names they bind to.
const (
	KeyDB      = "db"
	KeyFormat  = "format"
	KeyRaw     = "raw"
	KeyVerbose = "verbose"
)

// EnvPrefix prefixes every environment variable contactq reads.
const EnvPrefix = "CONTACTQ"

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

// Config is the resolved configuration.
type Config struct {
	DB      string
	Format  string
	Raw     bool
	Verbose bool

	// File is the config file that was read, empty when none was.
	File string
}

// Defaults applies contactq's default values to v.
func Defaults(v *viper.Viper) {
	v.SetDefault(KeyDB, "contacts.db")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyRaw, false)
	v.SetDefault(KeyVerbose, false)
}

// Load resolves configuration for cmd. Flags of cmd (including inherited
// persistent flags) take precedence when set explicitly. If path is
// non-empty that file must exist.
func Load(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()
	Defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("contactq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "contactq"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{
		DB:      v.GetString(KeyDB),
		Format:  v.GetString(KeyFormat),
		Raw:     v.GetBool(KeyRaw),
		Verbose: v.GetBool(KeyVerbose),
		File:    v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting holds an accepted value.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	if c.DB == "" {
		return errors.New("database path must not be empty")
	}
	return nil
}
