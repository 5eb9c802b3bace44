// Package pipeline chains the resolution stages end to end: session
// grouping, content clustering, consolidation, and date assignment. Each
// stage is usable on its own through the CLI; Run exists for the common case
// of processing a whole inventory in one pass.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mohawk-valley-archives/curator/internal/cluster"
	"github.com/mohawk-valley-archives/curator/internal/consolidate"
	"github.com/mohawk-valley-archives/curator/internal/dates"
	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/sessions"
)

// Options collects the tunables of every stage.
type Options struct {
	SessionGap  time.Duration
	Thresholds  cluster.Thresholds
	Consolidate consolidate.Options
}

// Result is the output of one full pipeline run.
type Result struct {
	RunID     string
	Records   []inventory.ImageRecord
	Artifacts []inventory.ArtifactGroup
	Edges     []cluster.Edge
	Review    []inventory.ReviewItem
	Stats     Stats
}

// Stats summarizes a run for reporting.
type Stats struct {
	Images          int
	Sessions        int
	ExactDuplicates int
	ContentGroups   int
	Artifacts       int
	ResearchItems   int
	NeedsReview     int
	Dated           int
	Undated         int
}

// Runner executes the full pipeline.
type Runner struct {
	grouper      *sessions.Grouper
	clusterer    *cluster.Clusterer
	consolidator *consolidate.Consolidator
	resolver     *dates.Resolver
}

// NewRunner builds a Runner from stage options.
func NewRunner(opts Options) *Runner {
	return &Runner{
		grouper:      sessions.NewGrouper(opts.SessionGap),
		clusterer:    cluster.NewClusterer(opts.Thresholds),
		consolidator: consolidate.NewConsolidator(opts.Consolidate),
		resolver:     dates.NewResolver(),
	}
}

// Run processes an inventory through every stage. The input slice is not
// modified; running twice over the same input yields identical results apart
// from the run id.
func (r *Runner) Run(records []inventory.ImageRecord) Result {
	runID := uuid.NewString()
	slog.Info("pipeline run starting", "run_id", runID, "images", len(records))

	grouped := r.grouper.Group(records)
	refined := r.clusterer.Refine(grouped)

	artifacts := r.consolidator.Consolidate(refined.Records)
	for i := range artifacts {
		assignment := r.resolver.Resolve(&artifacts[i])
		artifacts[i].Date = &assignment
	}

	stats := computeStats(refined.Records, artifacts)
	slog.Info("pipeline run finished",
		"run_id", runID,
		"sessions", stats.Sessions,
		"content_groups", stats.ContentGroups,
		"artifacts", stats.Artifacts,
		"needs_review", stats.NeedsReview)

	return Result{
		RunID:     runID,
		Records:   refined.Records,
		Artifacts: artifacts,
		Edges:     refined.Edges,
		Review:    refined.Review,
		Stats:     stats,
	}
}

func computeStats(records []inventory.ImageRecord, artifacts []inventory.ArtifactGroup) Stats {
	stats := Stats{Images: len(records), Artifacts: len(artifacts)}

	sessionSet := make(map[string]bool)
	contentSet := make(map[string]bool)
	for _, rec := range records {
		if rec.SessionID != "" {
			sessionSet[rec.SessionID] = true
		}
		if rec.LinkType == inventory.LinkContentOverlap {
			contentSet[rec.ArtifactGroupID] = true
		}
		if rec.DuplicateOf != "" {
			stats.ExactDuplicates++
		}
		if rec.NeedsReview {
			stats.NeedsReview++
		}
	}
	stats.Sessions = len(sessionSet)
	stats.ContentGroups = len(contentSet)

	for _, a := range artifacts {
		if a.IsResearch {
			stats.ResearchItems++
		}
		if a.Date != nil && a.Date.Year > 0 {
			stats.Dated++
		} else {
			stats.Undated++
		}
	}
	return stats
}
