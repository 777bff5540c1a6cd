// Package cli implements the sentinel command-line client for the
// PatentSentinel API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentinel/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	ServerAddr   string
	OutputFormat string
	Timeout      time.Duration
}

// NewRootCommand builds the sentinel command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "sentinel",
		Short:   "PatentSentinel CLI — patent infringement-risk monitoring",
		Long:    "sentinel submits documents to a PatentSentinel server, starts analysis jobs,\nand queries risk assessment results from the command line.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ServerAddr, "server", "http://localhost:8080", "API server address")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newDocumentsCommand(opts),
		newAnalyzeCommand(opts),
		newKeywordSetsCommand(opts),
	)
	return cmd
}

// newAPIClient builds the SDK client from the global flags.
func newAPIClient(opts *rootOptions) (*client.Client, error) {
	return client.NewClient(opts.ServerAddr, client.WithTimeout(opts.Timeout))
}

// printJSON renders v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
