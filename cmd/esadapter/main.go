package main

import (
	"fmt"
	"os"

	"github.com/opsworks/esadapter/cmd/esadapter/commands"
)

func main() {
	rootCmd := commands.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(commands.ExitCode(err))
	}
}
