// Command contactq translates and runs contact queries.
package main

import (
	"os"

	"github.com/roach88/contactq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
