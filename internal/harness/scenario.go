package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a fixture and the queries
// to run against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the contacts fixture to seed. Relative paths are resolved
	// against the scenario file's directory.
	Fixture string `yaml:"fixture"`

	// Steps run in order against the same database.
	Steps []Step `yaml:"steps"`
}

// Step is one query and what it must produce.
type Step struct {
	// Query is the query text.
	Query string `yaml:"query"`

	// Raw runs the query against raw contacts instead of the aggregated view.
	Raw bool `yaml:"raw,omitempty"`

	// Expect is optional; without it only consistency is checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step. Unset fields are not
// checked.
type Expect struct {
	IDs      []string `yaml:"ids,omitempty"`
	Values   []any    `yaml:"values,omitempty"`
	Result   any      `yaml:"result,omitempty"`
	Count    *int     `yaml:"count,omitempty"`
	Error    string   `yaml:"error,omitempty"`
	Fallback *bool    `yaml:"fallback,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}
	if _, err := os.Stat(scenario.Fixture); err != nil {
		return nil, fmt.Errorf("invalid scenario: fixture not found: %s", scenario.Fixture)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving the fixture path.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Fixture == "" {
		return errors.New("fixture is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Query == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if e := step.Expect; e != nil {
			if e.Error != "" && (e.IDs != nil || e.Values != nil || e.Result != nil || e.Count != nil) {
				return fmt.Errorf("steps[%d].expect: error excludes result expectations", i)
			}
			if e.Count != nil && *e.Count < 0 {
				return fmt.Errorf("steps[%d].expect: count must be non-negative", i)
			}
		}
	}
	return nil
}
