// Command cookbook plays and renders audio graph recipes.
package main

import (
	"os"
)

const (
	successExitCode = 0
	errorExitCode   = 1
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(errorExitCode)
	}
	os.Exit(successExitCode)
}
