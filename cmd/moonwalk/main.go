// Package main implements the unified moonwalk binary: one batch run
// of the configured pipelines (sales, documents, or both).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/moonwalk/moonwalk/internal/app"
	"github.com/moonwalk/moonwalk/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		inputDir    string
		mode        string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&inputDir, "input-dir", "", "Directory holding the POS exports")
	flag.StringVar(&mode, "mode", "", "Pipeline mode: all, sales, documents")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Moonwalk - POS analytics pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: moonwalk [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  moonwalk --data-dir /data/moonwalk\n")
		fmt.Fprintf(os.Stderr, "  moonwalk --mode sales --input-dir /data/exports\n")
		fmt.Fprintf(os.Stderr, "  moonwalk --config /etc/moonwalk/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MOONWALK_MODE            Pipeline mode (all, sales, documents)\n")
		fmt.Fprintf(os.Stderr, "  MOONWALK_DATA_DIR        Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  MOONWALK_INPUT_DIR       Directory holding the POS exports\n")
		fmt.Fprintf(os.Stderr, "  MOONWALK_ARCHIVE_TYPE    Archive backend (local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("moonwalk version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, dataDir, inputDir, mode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// An interrupt cancels the run; the atomic publish guarantees the
	// live snapshot is either the old one or the new one, never partial.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and command
// line flags, in ascending priority.
func loadConfig(configFile, dataDir, inputDir, mode string) (*config.Config, error) {
	// Local .env, if present, feeds the environment overrides.
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if inputDir != "" {
		cfg.Input.Dir = inputDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	return cfg, nil
}
