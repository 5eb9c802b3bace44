package inventory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader handles loading of an image inventory file
type Loader struct {
	inventoryPath string
}

// NewLoader creates a new inventory loader
func NewLoader(inventoryPath string) *Loader {
	return &Loader{
		inventoryPath: inventoryPath,
	}
}

// Load loads records from an inventory file (JSONL or Parquet)
func (l *Loader) Load() ([]ImageRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.inventoryPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// loadJSONL loads records from a JSONL file
func (l *Loader) loadJSONL() ([]ImageRecord, error) {
	slog.Debug("Opening JSONL inventory", "path", l.inventoryPath)

	file, err := os.Open(l.inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer file.Close()

	var records []ImageRecord
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large transcriptions on a single line
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var record ImageRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		records = append(records, record)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading inventory: %w", err)
	}

	slog.Debug("Finished reading JSONL inventory", "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet() ([]ImageRecord, error) {
	slog.Debug("Opening Parquet inventory", "path", l.inventoryPath)

	file, err := os.Open(l.inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ImageRecord](pf)
	defer reader.Close()

	var records []ImageRecord
	rows := make([]ImageRecord, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet inventory", "total_records", len(records))

	return records, nil
}

// LoadSample loads a limited number of records (useful for trial runs over a
// large inventory)
func (l *Loader) LoadSample(limit int) ([]ImageRecord, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
