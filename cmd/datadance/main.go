// Command datadance applies declarative transform documents to records.
package main

import (
	"fmt"
	"os"

	"github.com/yakshavingxyz/datadance/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
