package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentinel/pkg/client"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Start and inspect analysis jobs",
	}
	cmd.AddCommand(
		newAnalyzeStartCommand(opts),
		newAnalyzeStatusCommand(opts),
		newAnalyzeResultsCommand(opts),
	)
	return cmd
}

func newAnalyzeStartCommand(opts *rootOptions) *cobra.Command {
	var keywordSet string

	cmd := &cobra.Command{
		Use:   "start <documentID>",
		Short: "Start an analysis job for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			job, err := c.StartAnalysis(cmd.Context(), args[0], keywordSet)
			if err != nil {
				if apiErr, ok := err.(*client.APIError); ok && apiErr.IsConflict() {
					return fmt.Errorf("analysis already in flight: %s", apiErr.Detail)
				}
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s accepted (%s)\n", job.ID, job.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&keywordSet, "keyword-set", "", "domain keyword set (server default when empty)")
	return cmd
}

func newAnalyzeStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobID>",
		Short: "Show the status of an analysis job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			job, err := c.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s: %s (attempts: %d)\n", job.ID, job.Status, job.Attempts)
			if job.LastError != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "last error: %s\n", job.LastError)
			}
			return nil
		},
	}
}

func newAnalyzeResultsCommand(opts *rootOptions) *cobra.Command {
	var (
		latest bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "results <documentID>",
		Short: "Show analysis results for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}

			if latest {
				res, err := c.LatestResult(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.OutputFormat == "json" {
					return printJSON(cmd.OutOrStdout(), res)
				}
				printResultSummary(cmd, res)
				return nil
			}

			results, err := c.ListResults(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if opts.OutputFormat == "json" {
				return printJSON(cmd.OutOrStdout(), results)
			}
			for i := range results {
				printResultSummary(cmd, &results[i])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "show only the most recent result")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results to return")
	return cmd
}

func printResultSummary(cmd *cobra.Command, res *client.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  risk=%s  strong=%d  avg=%.3f  matches=%d\n",
		res.CreatedAt.Format("2006-01-02 15:04:05"), res.Assessment.OverallRisk,
		res.Assessment.HighSimilarityCount, res.Assessment.AverageTopSimilarity, len(res.Matches))
	for _, m := range res.Matches {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s  %.3f  %s\n", m.DocumentID, m.Similarity, m.Title)
	}
	for _, f := range res.Assessment.RiskFactors {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", f)
	}
}
