// Package main is the entry point for the wardrobe CLI.
package main

import (
	"os"

	"github.com/runger/wardrobe/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
