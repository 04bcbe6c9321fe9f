// Command grist is the CLI for inspecting and feeding the grist backlog.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "grist: %v\n", err)
		os.Exit(1)
	}
}
