// Package main is the entry point for the program-tray binary.
package main

import (
	"os"

	"github.com/program-tray/program-tray/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
