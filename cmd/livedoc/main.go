// Package main provides the entry point for the livedoc CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/livedoc/cmd/livedoc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
