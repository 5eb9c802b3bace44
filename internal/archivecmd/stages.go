package archivecmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mohawk-valley-archives/curator/internal/cluster"
	"github.com/mohawk-valley-archives/curator/internal/config"
	"github.com/mohawk-valley-archives/curator/internal/consolidate"
	"github.com/mohawk-valley-archives/curator/internal/dates"
	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/report"
	"github.com/mohawk-valley-archives/curator/internal/sessions"
)

// loadStage resolves config and inventory for the single-stage commands.
// A non-negative limit caps how many records are loaded.
func loadStage(configPath, inventoryPath string, limit int) (*config.Config, []inventory.ImageRecord, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, "", err
	}
	if inventoryPath == "" {
		inventoryPath = cfg.Paths.Inventory
	}

	records, err := inventory.NewLoader(inventoryPath).LoadSample(limit)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load inventory: %w", err)
	}
	return cfg, records, inventoryPath, nil
}

func executeGroup(configPath, inventoryPath, outputPath string, limit int) error {
	cfg, records, inventoryPath, err := loadStage(configPath, inventoryPath, limit)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = inventoryPath
	}

	grouped := sessions.NewGrouper(cfg.SessionGap()).Group(records)
	if err := inventory.WriteJSONL(outputPath, grouped); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	slog.Info("session grouping complete", "images", len(grouped), "output", outputPath)
	return nil
}

func executeRefine(configPath, inventoryPath, outputPath, reviewPath string) error {
	cfg, records, inventoryPath, err := loadStage(configPath, inventoryPath, -1)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = inventoryPath
	}

	clusterer := cluster.NewClusterer(cluster.Thresholds{
		NoiseFloor:     cfg.Clustering.NoiseFloor,
		MergeThreshold: cfg.Clustering.MergeThreshold,
		ReviewFloor:    cfg.Clustering.ReviewFloor,
		MaxAutoGroup:   cfg.Clustering.MaxAutoGroup,
	})
	result := clusterer.Refine(records)

	if err := inventory.WriteJSONL(outputPath, result.Records); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	if err := inventory.WriteReviewQueueJSONL(reviewPath, result.Review); err != nil {
		return fmt.Errorf("failed to write review queue: %w", err)
	}

	slog.Info("refinement complete",
		"content_groups", result.Groups,
		"edges", len(result.Edges),
		"needs_review", len(result.Review))
	if len(result.Review) > 0 {
		fmt.Println(report.ReviewTable(result.Review))
	}
	return nil
}

func executeConsolidate(configPath, inventoryPath string, skipReview, confidentOnly bool) error {
	cfg, records, _, err := loadStage(configPath, inventoryPath, -1)
	if err != nil {
		return err
	}

	consolidator := consolidate.NewConsolidator(consolidate.Options{
		DuplicatePageThreshold: cfg.Consolidation.DuplicatePageThreshold,
		ResearchKeywords:       cfg.Consolidation.ResearchKeywords,
		SkipNeedsReview:        skipReview,
		ConfidentOnly:          confidentOnly,
	})
	artifacts := consolidator.Consolidate(records)

	if err := report.WriteArtifacts(cfg.Paths.OutputDir, artifacts); err != nil {
		return err
	}

	slog.Info("consolidation complete", "artifacts", len(artifacts), "output", cfg.Paths.OutputDir)
	return nil
}

func executeDate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	resolver := dates.NewResolver()
	dated := 0
	total := 0

	err = filepath.WalkDir(cfg.Paths.OutputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "metadata.yaml" {
			return nil
		}

		artifact, err := readArtifactDir(filepath.Dir(path))
		if err != nil {
			return err
		}

		assignment := resolver.Resolve(artifact)
		artifact.Date = &assignment
		total++
		if assignment.Year > 0 {
			dated++
		}

		metadata, err := yaml.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("failed to marshal artifact %s: %w", artifact.ArtifactGroupID, err)
		}
		return os.WriteFile(path, metadata, 0o644)
	})
	if err != nil {
		return fmt.Errorf("failed to date artifacts: %w", err)
	}

	slog.Info("dating complete", "artifacts", total, "dated", dated, "undated", total-dated)
	return nil
}

// readArtifactDir loads an artifact folder written by the consolidate stage:
// metadata.yaml plus the transcription held in its sibling file.
func readArtifactDir(dir string) (*inventory.ArtifactGroup, error) {
	metadata, err := os.ReadFile(filepath.Join(dir, "metadata.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var artifact inventory.ArtifactGroup
	if err := yaml.Unmarshal(metadata, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse metadata in %s: %w", dir, err)
	}

	text, err := os.ReadFile(filepath.Join(dir, "transcription.txt"))
	if err == nil {
		artifact.MergedText = string(text)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read transcription: %w", err)
	}
	return &artifact, nil
}
