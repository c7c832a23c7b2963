// Package main implements the standalone document pipeline binary.
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

func main() {
	var (
		configFile string
		dataDir    string
		docsDir    string
		threshold  float64
	)
	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&docsDir, "docs-dir", "", "Directory of raw documents to ingest")
	flag.Float64Var(&threshold, "threshold", 0, "Record confidence acceptance floor (0 keeps configured value)")
	flag.Parse()

	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if docsDir != "" {
		cfg.Documents.Dir = docsDir
	}
	if threshold > 0 {
		cfg.Documents.ConfidenceThreshold = threshold
	}
	cfg.Mode = config.ModeDocuments

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
