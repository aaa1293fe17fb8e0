package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emergent-company/omviews/internal/emergent"
	"github.com/emergent-company/omviews/internal/tools/janitor"
)

func newSweepCommand(configPath *string) *cobra.Command {
	var (
		deleteOrphans bool
		types         []string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Find anchored elements whose anchor is gone",
		Long: `Run the anchor sweep once. Contact details and supply chain segments live
only as long as their anchor; this reports, and with --delete removes, those
left behind when an anchor was deleted outside omviews.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if a.cfg.Emergent.Token != "" {
				ctx = emergent.WithToken(ctx, a.cfg.Emergent.Token)
			}
			report, err := janitor.NewSweeper(a.base, types...).Sweep(ctx, deleteOrphans)
			if err != nil {
				return err
			}
			if output == outputText {
				return writeReport(cmd.OutOrStdout(), report)
			}
			return writeView(cmd.OutOrStdout(), output, report)
		},
	}
	cmd.Flags().BoolVar(&deleteOrphans, "delete", false, "Delete the orphans found")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Element types to sweep (default: all anchored types)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func writeReport(w io.Writer, r *janitor.Report) error {
	if _, err := fmt.Fprintln(w, r.Summary); err != nil {
		return err
	}
	for _, issue := range r.Issues {
		state := "orphaned"
		if issue.Deleted {
			state = "deleted"
		}
		if _, err := fmt.Fprintf(w, "  %s %s %s (anchor %s)\n", state, issue.TypeName, issue.GUID, issue.AnchorGUID); err != nil {
			return err
		}
	}
	return nil
}
