package inventory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONL writes records to a JSONL file, one record per line. The parent
// directory is created if needed and the file is replaced atomically so a
// failed run never leaves a truncated inventory behind.
func WriteJSONL(path string, records []ImageRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create inventory file: %w", err)
	}

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			file.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to encode record %s: %w", records[i].ID, err)
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush inventory: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close inventory: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace inventory: %w", err)
	}
	return nil
}

// WriteReviewQueueJSONL writes the review queue, one item per line.
func WriteReviewQueueJSONL(path string, items []ReviewItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create review queue directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create review queue file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			return fmt.Errorf("failed to encode review item %s: %w", items[i].ID, err)
		}
	}
	return w.Flush()
}
