package main

import (
	"fmt"
	"os"

	"github.com/storefront/backend/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(cli.OpenFromConfig)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
