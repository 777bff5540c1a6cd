// Command sentinel is the command-line client for the PatentSentinel API.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/PatentSentinel/internal/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sentinel: %v\n", err)
		os.Exit(1)
	}
}
