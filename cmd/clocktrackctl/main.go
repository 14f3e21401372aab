// Package main is the entry point for the clocktrack admin CLI.
package main

import (
	"os"

	"github.com/geocoder89/clocktrack/cmd/clocktrackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
