// Package config provides unified configuration for the pipeline
// services. One explicit structure, resolved once at startup and
// passed in; nothing reads ambient environment state mid-run.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects which pipelines a run executes.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeSales     Mode = "sales"
	ModeDocuments Mode = "documents"
)

// Config holds the unified configuration for all pipeline services.
type Config struct {
	// Mode specifies which pipelines to run: all, sales, documents
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Input configuration
	Input InputConfig `json:"input" yaml:"input"`

	// Sales pipeline configuration
	Sales SalesConfig `json:"sales" yaml:"sales"`

	// Document pipeline configuration
	Documents DocumentsConfig `json:"documents" yaml:"documents"`

	// Archive configuration
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// InputConfig locates the source exports.
type InputConfig struct {
	// Dir is the directory holding the POS exports
	Dir string `json:"dir" yaml:"dir"`

	// LegacyFile is the legacy archive CSV inside Dir
	LegacyFile string `json:"legacy_file" yaml:"legacy_file"`
}

// SalesConfig tunes the sales pipeline.
type SalesConfig struct {
	// SnapshotDir is where the typed store is built and published
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir"`

	// SubscriptionValidityDays is the coverage window one
	// subscription payment opens
	SubscriptionValidityDays int `json:"subscription_validity_days" yaml:"subscription_validity_days"`
}

// DocumentsConfig tunes the document pipeline.
type DocumentsConfig struct {
	// Dir is the directory of raw documents to ingest
	Dir string `json:"dir" yaml:"dir"`

	// StorePath is the canonical document store database
	StorePath string `json:"store_path" yaml:"store_path"`

	// ConfidenceThreshold is the record-level acceptance floor
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// ArchiveConfig configures off-host snapshot retention.
type ArchiveConfig struct {
	// Enabled turns archiving of published snapshots on
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Type is the archive backend: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local archive root (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 archive configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local runs.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeAll,
		DataDir: "./data/moonwalk",
		Input: InputConfig{
			LegacyFile: "RePos_Archive.csv",
		},
		Sales: SalesConfig{
			SubscriptionValidityDays: 30,
		},
		Documents: DocumentsConfig{
			ConfidenceThreshold: 0.95,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "local",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/moonwalk"
	}
	if c.Input.Dir == "" {
		c.Input.Dir = filepath.Join(c.DataDir, "input")
	}
	if c.Sales.SnapshotDir == "" {
		c.Sales.SnapshotDir = filepath.Join(c.DataDir, "snapshot")
	}
	if c.Documents.Dir == "" {
		c.Documents.Dir = filepath.Join(c.DataDir, "documents")
	}
	if c.Documents.StorePath == "" {
		c.Documents.StorePath = filepath.Join(c.DataDir, "documents.db")
	}
	if c.Archive.Path == "" {
		c.Archive.Path = filepath.Join(c.DataDir, "archive")
	}
}

// SummaryPath returns the run summary location next to the store.
func (c *Config) SummaryPath() string {
	return filepath.Join(c.Sales.SnapshotDir, "run_summary.json")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAll, ModeSales, ModeDocuments:
	default:
		return fmt.Errorf("invalid mode: %s (must be all, sales, or documents)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Sales.SubscriptionValidityDays <= 0 {
		return fmt.Errorf("sales.subscription_validity_days must be positive, got %d",
			c.Sales.SubscriptionValidityDays)
	}

	if c.Documents.ConfidenceThreshold <= 0 || c.Documents.ConfidenceThreshold > 1 {
		return fmt.Errorf("documents.confidence_threshold must be in (0, 1], got %g",
			c.Documents.ConfidenceThreshold)
	}

	if c.Archive.Type != "local" && c.Archive.Type != "s3" {
		return fmt.Errorf("invalid archive type: %s (must be local or s3)", c.Archive.Type)
	}
	if c.Archive.Enabled && c.Archive.Type == "s3" && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("archive.s3.bucket is required when archive type is s3")
	}

	return nil
}

// ShouldRunSales returns true if the sales pipeline should run.
func (c *Config) ShouldRunSales() bool {
	return c.Mode == ModeAll || c.Mode == ModeSales
}

// ShouldRunDocuments returns true if the document pipeline should run.
func (c *Config) ShouldRunDocuments() bool {
	return c.Mode == ModeAll || c.Mode == ModeDocuments
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the MOONWALK_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MOONWALK_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("MOONWALK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MOONWALK_INPUT_DIR"); v != "" {
		cfg.Input.Dir = v
	}
	if v := os.Getenv("MOONWALK_LEGACY_FILE"); v != "" {
		cfg.Input.LegacyFile = v
	}

	if v := os.Getenv("MOONWALK_SNAPSHOT_DIR"); v != "" {
		cfg.Sales.SnapshotDir = v
	}
	if v := os.Getenv("MOONWALK_SUBSCRIPTION_VALIDITY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sales.SubscriptionValidityDays = n
		} else {
			log.Printf("[WARN] config: ignoring MOONWALK_SUBSCRIPTION_VALIDITY_DAYS=%q: not an integer", v)
		}
	}

	if v := os.Getenv("MOONWALK_DOCUMENTS_DIR"); v != "" {
		cfg.Documents.Dir = v
	}
	if v := os.Getenv("MOONWALK_DOCUMENTS_STORE"); v != "" {
		cfg.Documents.StorePath = v
	}
	if v := os.Getenv("MOONWALK_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Documents.ConfidenceThreshold = f
		} else {
			log.Printf("[WARN] config: ignoring MOONWALK_CONFIDENCE_THRESHOLD=%q: not a number", v)
		}
	}

	if v := os.Getenv("MOONWALK_ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MOONWALK_ARCHIVE_TYPE"); v != "" {
		cfg.Archive.Type = v
	}
	if v := os.Getenv("MOONWALK_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("MOONWALK_S3_BUCKET"); v != "" {
		cfg.Archive.S3.Bucket = v
	}
	if v := os.Getenv("MOONWALK_S3_REGION"); v != "" {
		cfg.Archive.S3.Region = v
	}
	if v := os.Getenv("MOONWALK_S3_ENDPOINT"); v != "" {
		cfg.Archive.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Input.Dir,
		c.Sales.SnapshotDir,
		c.Documents.Dir,
	}
	if c.Archive.Enabled && c.Archive.Type == "local" {
		dirs = append(dirs, c.Archive.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
