// Package main is the entry point for the movecost CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"move-cost/cmd/cli/cmd"
)

func main() {
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
