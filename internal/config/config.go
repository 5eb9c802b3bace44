// Package config loads pipeline configuration from a TOML file, layering the
// file over repository defaults so a missing or partial config still runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultInventoryPath          = "inventory.jsonl"
	defaultCatalogPath            = "catalog.db"
	defaultOutputDir              = "resolved"
	defaultSessionGapSeconds      = 90
	defaultNoiseFloor             = 0.15
	defaultMergeThreshold         = 0.40
	defaultReviewFloor            = 0.6
	defaultMaxAutoGroup           = 5
	defaultDuplicatePageThreshold = 0.85
	defaultAPIBind                = "127.0.0.1:8472"
	defaultGeminiModel            = "gemini-2.0-flash"
)

// Paths contains file and directory configuration.
type Paths struct {
	Inventory string `toml:"inventory"`
	Catalog   string `toml:"catalog"`
	OutputDir string `toml:"output_dir"`
	APIBind   string `toml:"api_bind"`
}

// Sessions tunes temporal grouping.
type Sessions struct {
	GapSeconds int `toml:"gap_seconds"`
}

// Clustering tunes text-similarity refinement.
type Clustering struct {
	NoiseFloor     float64 `toml:"noise_floor"`
	MergeThreshold float64 `toml:"merge_threshold"`
	ReviewFloor    float64 `toml:"review_floor"`
	MaxAutoGroup   int     `toml:"max_auto_group"`
}

// Consolidation tunes duplicate-page culling and research routing.
type Consolidation struct {
	DuplicatePageThreshold float64  `toml:"duplicate_page_threshold"`
	ResearchKeywords       []string `toml:"research_keywords"`
}

// Transcription contains the Gemini OCR settings.
type Transcription struct {
	Model  string `toml:"model"`
	APIKey string `toml:"api_key"`
}

// Config is the full curator configuration.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sessions      Sessions      `toml:"sessions"`
	Clustering    Clustering    `toml:"clustering"`
	Consolidation Consolidation `toml:"consolidation"`
	Transcription Transcription `toml:"transcription"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Inventory: defaultInventoryPath,
			Catalog:   defaultCatalogPath,
			OutputDir: defaultOutputDir,
			APIBind:   defaultAPIBind,
		},
		Sessions: Sessions{
			GapSeconds: defaultSessionGapSeconds,
		},
		Clustering: Clustering{
			NoiseFloor:     defaultNoiseFloor,
			MergeThreshold: defaultMergeThreshold,
			ReviewFloor:    defaultReviewFloor,
			MaxAutoGroup:   defaultMaxAutoGroup,
		},
		Consolidation: Consolidation{
			DuplicatePageThreshold: defaultDuplicatePageThreshold,
		},
		Transcription: Transcription{
			Model: defaultGeminiModel,
		},
	}
}

// SessionGap returns the session gap as a duration.
func (c *Config) SessionGap() time.Duration {
	return time.Duration(c.Sessions.GapSeconds) * time.Second
}

// Load reads the config at path, layered over defaults. An empty path falls
// back to curator.toml in the working directory; a missing file is not an
// error and yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Transcription.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		_, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file not found: %s", path)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, true, nil
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return projectPath, false, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.Inventory == "" {
		return errors.New("paths.inventory must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Sessions.GapSeconds <= 0 {
		return errors.New("sessions.gap_seconds must be positive")
	}
	if err := ratioField("clustering.noise_floor", c.Clustering.NoiseFloor); err != nil {
		return err
	}
	if err := ratioField("clustering.merge_threshold", c.Clustering.MergeThreshold); err != nil {
		return err
	}
	if err := ratioField("clustering.review_floor", c.Clustering.ReviewFloor); err != nil {
		return err
	}
	if c.Clustering.NoiseFloor >= c.Clustering.MergeThreshold {
		return errors.New("clustering.noise_floor must be below clustering.merge_threshold")
	}
	if c.Clustering.MaxAutoGroup < 1 {
		return errors.New("clustering.max_auto_group must be at least 1")
	}
	if err := ratioField("consolidation.duplicate_page_threshold", c.Consolidation.DuplicatePageThreshold); err != nil {
		return err
	}
	if c.Consolidation.DuplicatePageThreshold <= c.Clustering.MergeThreshold {
		return errors.New("consolidation.duplicate_page_threshold must be above clustering.merge_threshold")
	}
	return nil
}

func ratioField(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1", name)
	}
	return nil
}
