package archivecmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
	"github.com/mohawk-valley-archives/curator/internal/ocr"
)

func executeTranscribe(ctx context.Context, configPath, inventoryPath, imagesDir, documentType string, concurrency, limit int) error {
	cfg, records, inventoryPath, err := loadStage(configPath, inventoryPath, -1)
	if err != nil {
		return err
	}

	service := ocr.NewService(cfg.Transcription.Model, cfg.Transcription.APIKey)

	var pending []int
	for i := range records {
		if records[i].HasText() {
			continue
		}
		if limit >= 0 && len(pending) >= limit {
			break
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		slog.Info("nothing to transcribe")
		return nil
	}

	slog.Info("transcribing images",
		"pending", len(pending),
		"model", cfg.Transcription.Model,
		"concurrency", concurrency)

	type outcome struct {
		index int
		text  string
		conf  float64
		err   error
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	results := make(chan outcome, len(pending))

	for n, idx := range pending {
		wg.Add(1)
		go func(progress, idx int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			rec := records[idx]
			slog.Info("transcribing", "id", rec.ID, "progress", fmt.Sprintf("%d/%d", progress+1, len(pending)))

			imagePath := filepath.Join(imagesDir, filepath.FromSlash(rec.RelativePath))
			transcription, err := service.Transcribe(ctx, imagePath, documentType)
			if err != nil {
				results <- outcome{index: idx, err: fmt.Errorf("transcribe %s: %w", rec.ID, err)}
				return
			}
			results <- outcome{index: idx, text: transcription.Text, conf: transcription.Confidence}
		}(n, idx)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	failed := 0
	for result := range results {
		if result.err != nil {
			slog.Error("transcription failed", "error", result.err)
			failed++
			continue
		}
		records[result.index].OCRText = result.text
		records[result.index].OCRConfidence = result.conf
	}

	if err := inventory.WriteJSONL(inventoryPath, records); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	slog.Info("transcription complete",
		"transcribed", len(pending)-failed,
		"failed", failed,
		"inventory", inventoryPath)
	if failed > 0 {
		return fmt.Errorf("%d of %d transcriptions failed", failed, len(pending))
	}
	return nil
}
