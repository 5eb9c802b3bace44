// Package report renders pipeline results for humans: terminal tables for
// the review queue and run summaries, and per-artifact output folders with
// YAML metadata and merged transcriptions.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// ReviewTable renders the review queue as a terminal table, most doubtful
// items first.
func ReviewTable(items []inventory.ReviewItem) string {
	if len(items) == 0 {
		return "review queue is empty"
	}

	headers := []string{"IMAGE", "PROPOSED", "SESSION", "CONFIDENCE", "REASON", "SIZE"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.ProposedGroup,
			item.SessionGroup,
			fmt.Sprintf("%.3f", item.Confidence),
			item.Reason,
			strconv.Itoa(item.GroupSize),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight}
	return renderTable(headers, rows, aligns)
}

// SummaryTable renders one pipeline run's statistics.
func SummaryTable(stats pipeline.Stats) string {
	headers := []string{"METRIC", "VALUE"}
	rows := [][]string{
		{"images", strconv.Itoa(stats.Images)},
		{"sessions", strconv.Itoa(stats.Sessions)},
		{"exact duplicates", strconv.Itoa(stats.ExactDuplicates)},
		{"content groups", strconv.Itoa(stats.ContentGroups)},
		{"artifacts", strconv.Itoa(stats.Artifacts)},
		{"research items", strconv.Itoa(stats.ResearchItems)},
		{"dated", strconv.Itoa(stats.Dated)},
		{"undated", strconv.Itoa(stats.Undated)},
		{"needs review", strconv.Itoa(stats.NeedsReview)},
	}
	aligns := []columnAlignment{alignLeft, alignRight}
	return renderTable(headers, rows, aligns)
}

// RunsTable renders catalog run summaries.
func RunsTable(runs []RunRow) string {
	if len(runs) == 0 {
		return "no runs recorded"
	}
	headers := []string{"RUN", "STARTED", "IMAGES", "ARTIFACTS", "REVIEW"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunID,
			run.StartedAt,
			strconv.Itoa(run.Images),
			strconv.Itoa(run.Artifacts),
			strconv.Itoa(run.NeedsReview),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

// RunRow is one row of the runs table.
type RunRow struct {
	RunID       string
	StartedAt   string
	Images      int
	Artifacts   int
	NeedsReview int
}

// WriteArtifacts writes each artifact under outputDir as a folder holding
// metadata.yaml and, when text exists, transcription.txt. Research material
// is partitioned from primary documents.
func WriteArtifacts(outputDir string, artifacts []inventory.ArtifactGroup) error {
	for _, artifact := range artifacts {
		partition := "documents"
		if artifact.IsResearch {
			partition = "research"
		}

		dir := filepath.Join(outputDir, partition, artifact.ArtifactGroupID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}

		metadata, err := yaml.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("failed to marshal artifact %s: %w", artifact.ArtifactGroupID, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "metadata.yaml"), metadata, 0o644); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}

		if artifact.MergedText != "" {
			if err := os.WriteFile(filepath.Join(dir, "transcription.txt"), []byte(artifact.MergedText), 0o644); err != nil {
				return fmt.Errorf("failed to write transcription: %w", err)
			}
		}
	}
	return nil
}
