package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentinel/pkg/client"
)

func newDocumentsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage monitored documents",
	}
	cmd.AddCommand(
		newDocumentsSubmitCommand(opts),
		newDocumentsGetCommand(opts),
		newDocumentsListCommand(opts),
	)
	return cmd
}

func newDocumentsSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		owner           string
		title           string
		inventors       []string
		domain          string
		abstract        string
		description     string
		descriptionFile string
		claims          string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new document for monitoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if descriptionFile != "" {
				content, err := os.ReadFile(descriptionFile)
				if err != nil {
					return fmt.Errorf("cannot read description file: %w", err)
				}
				description = string(content)
			}
			if abstract == "" && description == "" && claims == "" {
				return fmt.Errorf("at least one of --abstract, --description/--description-file or --claims is required")
			}

			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			doc, err := c.CreateDocument(cmd.Context(), client.CreateDocumentRequest{
				Owner:       owner,
				Title:       title,
				Inventors:   inventors,
				Domain:      domain,
				Abstract:    abstract,
				Description: description,
				Claims:      claims,
			})
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "document %s submitted (%s)\n", doc.ID, doc.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "document owner")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringSliceVar(&inventors, "inventors", nil, "inventor names")
	cmd.Flags().StringVar(&domain, "domain", "", "technology domain label")
	cmd.Flags().StringVar(&abstract, "abstract", "", "document abstract")
	cmd.Flags().StringVar(&description, "description", "", "detailed description text")
	cmd.Flags().StringVar(&descriptionFile, "description-file", "", "file to read the description from")
	cmd.Flags().StringVar(&claims, "claims", "", "claims text")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newDocumentsGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <documentID>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			doc, err := c.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s  %s\n", doc.ID, doc.Status, doc.Title)
			return nil
		},
	}
}

func newDocumentsListCommand(opts *rootOptions) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitored documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			docs, err := c.ListDocuments(cmd.Context(), client.ListDocumentsOptions{
				Status: status, Limit: limit,
			})
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), docs)
			}
			for _, doc := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s  %s\n", doc.ID, doc.Status, doc.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum documents to return")
	return cmd
}
