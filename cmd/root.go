package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "curator",
		Short: "Archive photo resolution tool for historical document collections",
		Long: `Curator resolves directories of photographed archive pages into logical
artifacts: it groups images into photo sessions, merges multi-page documents
using transcription similarity, culls duplicate captures, and assigns
creation dates from the transcribed text.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
