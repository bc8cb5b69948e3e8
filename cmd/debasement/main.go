package main

import (
	"os"

	"github.com/dmarks/debasement/cmd/debasement/commands"
)

// main is the entry point for the debasement CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
