// Command docq is the entry point for the docq PDF question-answering tool.
// It provides a CLI interface (via Cobra) for ingesting PDF documents and
// asking questions against them, plus an HTTP server for API access.
package main

import (
	"fmt"
	"os"

	"github.com/docq-ai/docq-go/cmd/docq/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
