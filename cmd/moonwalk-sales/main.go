// Package main implements the standalone sales pipeline binary.
// Equivalent to moonwalk --mode sales; exists so schedulers can give
// the two pipelines separate schedules and credentials.
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
		inputDir   string
	)
	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&inputDir, "input-dir", "", "Directory holding the POS exports")
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
	if inputDir != "" {
		cfg.Input.Dir = inputDir
	}
	cfg.Mode = config.ModeSales

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
