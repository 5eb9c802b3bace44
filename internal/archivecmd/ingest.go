package archivecmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mohawk-valley-archives/curator/internal/inventory"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".heic": true,
}

// Filenames like "IMG_3323.jpeg" carry a camera sequence number; a trailing
// " 2" ("IMG_3323 2.jpeg") is the exporter's duplicate suffix.
var filenamePattern = regexp.MustCompile(`(?i)^IMG[_-](\d+)(\s+\d+)?$`)

func executeIngest(imagesDir, inventoryPath string) error {
	slog.Info("ingesting images", "dir", imagesDir)

	var paths []string
	err := filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk images directory: %w", err)
	}
	sort.Strings(paths)

	records := make([]inventory.ImageRecord, 0, len(paths))
	for i, path := range paths {
		record, err := buildRecord(imagesDir, path)
		if err != nil {
			return err
		}
		record.ID = fmt.Sprintf("img_%04d", i+1)
		records = append(records, record)

		if (i+1)%100 == 0 {
			slog.Debug("ingest progress", "processed", i+1, "total", len(paths))
		}
	}

	if err := inventory.WriteJSONL(inventoryPath, records); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	slog.Info("inventory written", "path", inventoryPath, "images", len(records))
	return nil
}

func buildRecord(imagesDir, path string) (inventory.ImageRecord, error) {
	var record inventory.ImageRecord

	info, err := os.Stat(path)
	if err != nil {
		return record, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	digest, err := fileSHA256(path)
	if err != nil {
		return record, err
	}

	relative, err := filepath.Rel(imagesDir, path)
	if err != nil {
		return record, fmt.Errorf("failed to relativize %s: %w", path, err)
	}

	filename := filepath.Base(path)
	extension := strings.ToLower(filepath.Ext(filename))
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	record = inventory.ImageRecord{
		RelativePath: filepath.ToSlash(relative),
		Filename:     filename,
		Extension:    extension,
		SizeBytes:    info.Size(),
		SHA256:       digest,
		FileModified: info.ModTime().UTC(),
	}

	if m := filenamePattern.FindStringSubmatch(stem); m != nil {
		if number, err := strconv.Atoi(m[1]); err == nil {
			record.ImageNumber = number
		}
		record.DuplicateHint = m[2] != ""
	}

	return record, nil
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
