package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newKeywordSetsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword-sets",
		Short: "Manage domain keyword sets",
	}
	cmd.AddCommand(
		newKeywordSetsPutCommand(opts),
		newKeywordSetsGetCommand(opts),
		newKeywordSetsListCommand(opts),
		newKeywordSetsDeleteCommand(opts),
	)
	return cmd
}

func newKeywordSetsPutCommand(opts *rootOptions) *cobra.Command {
	var (
		domain   string
		keywords []string
	)

	cmd := &cobra.Command{
		Use:   "put <name>",
		Short: "Create or replace a keyword set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			ks, err := c.PutKeywordSet(cmd.Context(), args[0], domain, keywords)
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), ks)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "keyword set %q saved (%d terms)\n", ks.Name, len(ks.Keywords))
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "domain label")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "comma-separated keyword terms")
	_ = cmd.MarkFlagRequired("keywords")
	return cmd
}

func newKeywordSetsGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show one keyword set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			ks, err := c.GetKeywordSet(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), ks)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", ks.Name, ks.Domain, strings.Join(ks.Keywords, ", "))
			return nil
		},
	}
}

func newKeywordSetsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keyword sets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			sets, err := c.ListKeywordSets(cmd.Context())
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), sets)
			}
			for _, ks := range sets {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s  %-16s  %d terms\n", ks.Name, ks.Domain, len(ks.Keywords))
			}
			return nil
		},
	}
}

func newKeywordSetsDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a keyword set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			if err := c.DeleteKeywordSet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "keyword set %q deleted\n", args[0])
			return nil
		},
	}
}
