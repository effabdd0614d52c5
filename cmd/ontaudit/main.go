package main

import (
	"fmt"
	"os"

	"github.com/roach88/ontaudit/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		code := cli.GetExitCode(err)
		if code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, "ontaudit:", err)
		}
		os.Exit(code)
	}
}
