// Package main implements the cowrite-fetch binary, which downloads
// event logs from the remote store into the local cache and exits.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/app"
	"github.com/cowrite/cowrite/internal/config"
)

func main() {
	var (
		configFile string
		dataDir    string
		sourceType string
		verbose    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&sourceType, "source", "", "Remote event source: mongo, s3")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Mode = config.ModeFetch
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if sourceType != "" {
		cfg.Source.Type = sourceType
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := application.Fetch(context.Background()); err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}
}

func loadConfig(configFile string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}
