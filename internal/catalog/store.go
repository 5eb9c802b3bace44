// Package catalog persists pipeline runs in SQLite so results can be
// inspected and served after the fact.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users need to delete the catalog database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// curator version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// RunSummary is one catalog run row.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	Images      int       `json:"images"`
	Sessions    int       `json:"sessions"`
	Artifacts   int       `json:"artifacts"`
	NeedsReview int       `json:"needs_review"`
}

// SaveRun persists a full pipeline result in one transaction.
func (s *Store) SaveRun(ctx context.Context, result pipeline.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	startedAt := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, images, sessions, artifacts, needs_review)
         VALUES (?, ?, ?, ?, ?, ?)`,
		result.RunID, startedAt,
		result.Stats.Images, result.Stats.Sessions, result.Stats.Artifacts, result.Stats.NeedsReview)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, rec := range result.Records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (
                id, run_id, relative_path, sha256, captured_at,
                session_id, session_index, duplicate_group_id, duplicate_of,
                artifact_group_id, link_type, link_confidence, needs_review,
                ocr_confidence, item_type, subject
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, result.RunID, rec.RelativePath, rec.SHA256,
			rec.CaptureTime().UTC().Format(time.RFC3339Nano),
			rec.SessionID, rec.SessionIndex, rec.DuplicateGroupID, rec.DuplicateOf,
			rec.ArtifactGroupID, rec.LinkType, rec.LinkConfidence, rec.NeedsReview,
			rec.OCRConfidence, rec.ItemType, rec.Subject)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	for _, artifact := range result.Artifacts {
		sourceImages, err := json.Marshal(artifact.SourceImages)
		if err != nil {
			return fmt.Errorf("marshal source images: %w", err)
		}
		linkTypes, err := json.Marshal(artifact.LinkTypes)
		if err != nil {
			return fmt.Errorf("marshal link types: %w", err)
		}

		var dateYear sql.NullInt64
		var dateSource sql.NullString
		var dateConfidence sql.NullFloat64
		if artifact.Date != nil {
			if artifact.Date.Year > 0 {
				dateYear = sql.NullInt64{Int64: int64(artifact.Date.Year), Valid: true}
			}
			dateSource = sql.NullString{String: artifact.Date.Source, Valid: true}
			dateConfidence = sql.NullFloat64{Float64: artifact.Date.Confidence, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO artifacts (
                artifact_group_id, run_id, source_images, unique_pages,
                duplicate_pages_culled, merged_text, item_title, item_type,
                subject, location_guess, notes, average_confidence,
                group_confidence, link_types, confident_link_ratio, is_research,
                date_year, date_source, date_confidence
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			artifact.ArtifactGroupID, result.RunID, string(sourceImages), artifact.UniquePages,
			artifact.DuplicatePagesCulled, artifact.MergedText, artifact.ItemTitle, artifact.ItemType,
			artifact.Subject, artifact.LocationGuess, artifact.Notes, artifact.AverageConfidence,
			artifact.GroupConfidence, string(linkTypes), artifact.ConfidentLinkRatio, artifact.IsResearch,
			dateYear, dateSource, dateConfidence)
		if err != nil {
			return fmt.Errorf("insert artifact %s: %w", artifact.ArtifactGroupID, err)
		}
	}

	for _, item := range result.Review {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO review_queue (
                id, run_id, proposed_group, current_group, session_group,
                confidence, reason, group_size, subject
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, result.RunID, item.ProposedGroup, item.CurrentGroup, item.SessionGroup,
			item.Confidence, item.Reason, item.GroupSize, item.Subject)
		if err != nil {
			return fmt.Errorf("insert review item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, images, sessions, artifacts, needs_review
         FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var startedAt string
		if err := rows.Scan(&run.RunID, &startedAt, &run.Images, &run.Sessions, &run.Artifacts, &run.NeedsReview); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRunID returns the id of the most recent run.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return runID, nil
}

// ListArtifacts returns every artifact of a run in id order.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]inventory.ArtifactGroup, error) {
	rows, err := s.db.QueryContext(ctx, artifactSelect+
		" WHERE run_id = ? ORDER BY artifact_group_id", runID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []inventory.ArtifactGroup
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// GetArtifact returns one artifact of a run.
func (s *Store) GetArtifact(ctx context.Context, runID, artifactGroupID string) (*inventory.ArtifactGroup, error) {
	row := s.db.QueryRowContext(ctx, artifactSelect+
		" WHERE run_id = ? AND artifact_group_id = ?", runID, artifactGroupID)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

// ListReview returns a run's review queue ordered by ascending confidence,
// most doubtful first.
func (s *Store) ListReview(ctx context.Context, runID string) ([]inventory.ReviewItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, proposed_group, current_group, session_group, confidence, reason, group_size, subject
         FROM review_queue WHERE run_id = ? ORDER BY confidence, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()

	var items []inventory.ReviewItem
	for rows.Next() {
		var item inventory.ReviewItem
		if err := rows.Scan(&item.ID, &item.ProposedGroup, &item.CurrentGroup, &item.SessionGroup,
			&item.Confidence, &item.Reason, &item.GroupSize, &item.Subject); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const artifactSelect = `SELECT
    artifact_group_id, source_images, unique_pages, duplicate_pages_culled,
    merged_text, item_title, item_type, subject, location_guess, notes,
    average_confidence, group_confidence, link_types, confident_link_ratio,
    is_research, date_year, date_source, date_confidence
FROM artifacts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (inventory.ArtifactGroup, error) {
	var artifact inventory.ArtifactGroup
	var sourceImages, linkTypes string
	var dateYear sql.NullInt64
	var dateSource sql.NullString
	var dateConfidence sql.NullFloat64

	err := row.Scan(&artifact.ArtifactGroupID, &sourceImages, &artifact.UniquePages,
		&artifact.DuplicatePagesCulled, &artifact.MergedText, &artifact.ItemTitle,
		&artifact.ItemType, &artifact.Subject, &artifact.LocationGuess, &artifact.Notes,
		&artifact.AverageConfidence, &artifact.GroupConfidence, &linkTypes,
		&artifact.ConfidentLinkRatio, &artifact.IsResearch,
		&dateYear, &dateSource, &dateConfidence)
	if err != nil {
		return artifact, err
	}

	if err := json.Unmarshal([]byte(sourceImages), &artifact.SourceImages); err != nil {
		return artifact, fmt.Errorf("unmarshal source images: %w", err)
	}
	if err := json.Unmarshal([]byte(linkTypes), &artifact.LinkTypes); err != nil {
		return artifact, fmt.Errorf("unmarshal link types: %w", err)
	}

	if dateSource.Valid {
		artifact.Date = &inventory.DateAssignment{
			Year:       int(dateYear.Int64),
			Source:     dateSource.String,
			Confidence: dateConfidence.Float64,
		}
	}
	return artifact, nil
}
