// Package main is the entry point for fitauth, the fitness app
// authentication service.
package main

import (
	"os"

	"github.com/goliatone/go-fitauth/cmd/fitauth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
