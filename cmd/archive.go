package cmd

import (
	"github.com/mohawk-valley-archives/curator/internal/archivecmd"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive resolution pipeline",
		Long: `Pipeline commands for resolving photographed archive pages into logical
artifacts.

The stages can be run one at a time (ingest, group, refine, consolidate,
date) or end to end with run. Transcriptions are filled in with transcribe,
and ambiguous groupings are inspected with review.`,
	}

	// Add archive subcommands
	cmd.AddCommand(archivecmd.NewIngestCmd())
	cmd.AddCommand(archivecmd.NewGroupCmd())
	cmd.AddCommand(archivecmd.NewRefineCmd())
	cmd.AddCommand(archivecmd.NewConsolidateCmd())
	cmd.AddCommand(archivecmd.NewDateCmd())
	cmd.AddCommand(archivecmd.NewRunCmd())
	cmd.AddCommand(archivecmd.NewRunsCmd())
	cmd.AddCommand(archivecmd.NewReviewCmd())
	cmd.AddCommand(archivecmd.NewTranscribeCmd())

	return cmd
}
