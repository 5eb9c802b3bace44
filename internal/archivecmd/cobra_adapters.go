package archivecmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewIngestCmd creates the ingest command for building an inventory from a
// directory of page photographs.
func NewIngestCmd() *cobra.Command {
	var imagesDir string
	var inventoryPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build an image inventory from a directory of page photographs",
		Long: `Walk a directory of archive page photographs and write an inventory file.

Each image gets a stable id, a SHA-256 checksum for exact-duplicate detection,
and its file modification time as the capture-time fallback.`,
		Example: `  # Inventory a scanning session
  curator archive ingest --images ./scans --inventory inventory.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(imagesDir); os.IsNotExist(err) {
				return fmt.Errorf("images directory not found: %s", imagesDir)
			}
			return executeIngest(imagesDir, inventoryPath)
		},
	}

	cmd.Flags().StringVar(&imagesDir, "images", "", "Directory of page photographs (required)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "inventory.jsonl", "Output inventory path")
	_ = cmd.MarkFlagRequired("images")
	return cmd
}

// NewGroupCmd creates the group command for temporal session grouping.
func NewGroupCmd() *cobra.Command {
	var configPath string
	var inventoryPath string
	var outputPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group inventory images into photo sessions",
		Long: `Sort the inventory by capture time and split it into photo sessions wherever
the gap between consecutive images exceeds the configured threshold. Images
with identical checksums are marked as exact duplicates.`,
		Example: `  # Trial run over the first 50 images of a large inventory
  curator archive group --limit 50 --output sample.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeGroup(configPath, inventoryPath, outputPath, limit)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "Inventory path (defaults to config)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output path (defaults to overwriting the inventory)")
	cmd.Flags().IntVar(&limit, "limit", -1, "Number of inventory records to process (-1 for all)")
	return cmd
}

// NewRefineCmd creates the refine command for similarity clustering.
func NewRefineCmd() *cobra.Command {
	var configPath string
	var inventoryPath string
	var outputPath string
	var reviewPath string

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Refine session groups using transcription similarity",
		Long: `Compare transcriptions pairwise within each session and merge images whose
text overlaps into content groups. Low-confidence and oversized groups are
flagged and written to the review queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRefine(configPath, inventoryPath, outputPath, reviewPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "Inventory path (defaults to config)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output path (defaults to overwriting the inventory)")
	cmd.Flags().StringVar(&reviewPath, "review", "review_queue.jsonl", "Review queue output path")
	return cmd
}

// NewConsolidateCmd creates the consolidate command.
func NewConsolidateCmd() *cobra.Command {
	var configPath string
	var inventoryPath string
	var skipReview bool
	var confidentOnly bool

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge each artifact group into one consolidated artifact",
		Long: `Collapse each artifact group's page captures into a single artifact: cull
near-duplicate captures of the same page, merge the remaining pages in capture
order, and route research material into its own partition.`,
		Example: `  # Consolidate everything
  curator archive consolidate

  # Only groups with confident links, excluding flagged images
  curator archive consolidate --confident-only --skip-review`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeConsolidate(configPath, inventoryPath, skipReview, confidentOnly)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "Inventory path (defaults to config)")
	cmd.Flags().BoolVar(&skipReview, "skip-review", false, "Exclude images flagged for review")
	cmd.Flags().BoolVar(&confidentOnly, "confident-only", false, "Exclude groups without confident links")
	return cmd
}

// NewDateCmd creates the date command for assigning creation years to
// already-consolidated artifacts.
func NewDateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "date",
		Short: "Assign creation years to consolidated artifacts",
		Long: `Run the date heuristics over every consolidated artifact in the output
directory and record the winning year, its source, and its confidence in each
artifact's metadata.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDate(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	return cmd
}

// NewRunCmd creates the run command for the full pipeline.
func NewRunCmd() *cobra.Command {
	var configPath string
	var inventoryPath string
	var skipReview bool
	var confidentOnly bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full resolution pipeline over an inventory",
		Long: `Run session grouping, similarity refinement, consolidation, and date
assignment in one pass. Results are written to the output directory and
recorded in the catalog database.`,
		Example: `  # Process an inventory end to end
  curator archive run --inventory inventory.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(configPath, inventoryPath, skipReview, confidentOnly)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "Inventory path (defaults to config)")
	cmd.Flags().BoolVar(&skipReview, "skip-review", false, "Exclude images flagged for review")
	cmd.Flags().BoolVar(&confidentOnly, "confident-only", false, "Exclude groups without confident links")
	return cmd
}

// NewRunsCmd creates the runs command for listing recorded pipeline runs.
func NewRunsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		Long:  `Print every run recorded in the catalog, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRuns(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	return cmd
}

// NewReviewCmd creates the review command for inspecting the review queue.
func NewReviewCmd() *cobra.Command {
	var configPath string
	var runID string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show the review queue of a recorded run",
		Long:  `Print the review queue of a catalog run as a table, most doubtful items first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReview(configPath, runID)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&runID, "run", "", "Run id (defaults to the latest run)")
	return cmd
}

// NewTranscribeCmd creates the transcribe command for filling in missing
// OCR text with Gemini.
func NewTranscribeCmd() *cobra.Command {
	var configPath string
	var inventoryPath string
	var imagesDir string
	var documentType string
	var concurrency int
	var limit int

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe inventory images that have no OCR text yet",
		Long: `Send each untranscribed inventory image to Gemini vision and record the
returned text together with an estimated confidence. Already-transcribed
images are left alone, so interrupted runs can be resumed.`,
		Example: `  # Transcribe handwritten material, four images at a time
  curator archive transcribe --images ./scans --type handwritten --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			return executeTranscribe(cmd.Context(), configPath, inventoryPath, imagesDir, documentType, concurrency, limit)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&inventoryPath, "inventory", "", "Inventory path (defaults to config)")
	cmd.Flags().StringVar(&imagesDir, "images", ".", "Directory the inventory's relative paths resolve against")
	cmd.Flags().StringVar(&documentType, "type", "historical_document", "Document type (historical_document, handwritten, typed, mixed)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Concurrent transcription requests")
	cmd.Flags().IntVar(&limit, "limit", -1, "Maximum images to transcribe (-1 for all)")
	return cmd
}
