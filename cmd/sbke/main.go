// Command sbke is the entry point for the space-biology knowledge engine.
// It provides a CLI (via Cobra) for ingestion, search and analytics, and an
// HTTP server exposing the same operations.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/sbke-go/cmd/sbke/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
