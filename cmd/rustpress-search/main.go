// Package main provides the entry point for the rustpress-search CLI.
package main

import (
	"os"

	"github.com/rixingyike/rustpress/cmd/rustpress-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
