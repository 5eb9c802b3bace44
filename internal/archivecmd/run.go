package archivecmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mohawk-valley-archives/curator/internal/catalog"
	"github.com/mohawk-valley-archives/curator/internal/cluster"
	"github.com/mohawk-valley-archives/curator/internal/config"
	"github.com/mohawk-valley-archives/curator/internal/consolidate"
	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/pipeline"
	"github.com/mohawk-valley-archives/curator/internal/report"
)

func executeRun(configPath, inventoryPath string, skipReview, confidentOnly bool) error {
	cfg, records, _, err := loadStage(configPath, inventoryPath, -1)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(pipeline.Options{
		SessionGap: cfg.SessionGap(),
		Thresholds: cluster.Thresholds{
			NoiseFloor:     cfg.Clustering.NoiseFloor,
			MergeThreshold: cfg.Clustering.MergeThreshold,
			ReviewFloor:    cfg.Clustering.ReviewFloor,
			MaxAutoGroup:   cfg.Clustering.MaxAutoGroup,
		},
		Consolidate: consolidate.Options{
			DuplicatePageThreshold: cfg.Consolidation.DuplicatePageThreshold,
			ResearchKeywords:       cfg.Consolidation.ResearchKeywords,
			SkipNeedsReview:        skipReview,
			ConfidentOnly:          confidentOnly,
		},
	})
	result := runner.Run(records)

	if err := report.WriteArtifacts(cfg.Paths.OutputDir, result.Artifacts); err != nil {
		return err
	}
	if err := inventory.WriteReviewQueueJSONL(filepath.Join(cfg.Paths.OutputDir, "review_queue.jsonl"), result.Review); err != nil {
		return fmt.Errorf("failed to write review queue: %w", err)
	}

	store, err := catalog.Open(cfg.Paths.Catalog)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if err := store.SaveRun(context.Background(), result); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	slog.Info("run recorded", "run_id", result.RunID, "catalog", cfg.Paths.Catalog)
	fmt.Println(report.SummaryTable(result.Stats))
	if len(result.Review) > 0 {
		fmt.Println(report.ReviewTable(result.Review))
	}
	return nil
}

func executeRuns(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Paths.Catalog)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return err
	}

	rows := make([]report.RunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, report.RunRow{
			RunID:       run.RunID,
			StartedAt:   run.StartedAt.Format("2006-01-02 15:04:05"),
			Images:      run.Images,
			Artifacts:   run.Artifacts,
			NeedsReview: run.NeedsReview,
		})
	}
	fmt.Println(report.RunsTable(rows))
	return nil
}

func executeReview(configPath, runID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Paths.Catalog)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if runID == "" {
		runID, err = store.LatestRunID(ctx)
		if err != nil {
			return fmt.Errorf("no runs recorded yet: %w", err)
		}
	}

	items, err := store.ListReview(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("review queue for run %s\n", runID)
	fmt.Println(report.ReviewTable(items))
	return nil
}
