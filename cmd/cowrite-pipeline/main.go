// Package main implements the cowrite-pipeline binary, which runs the
// reconstruction pipeline over the cached event logs and writes one
// result run to the results database.
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
		surveyPath string
		verbose    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&surveyPath, "survey", "", "Path to the survey export (.csv or .xlsx)")
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
	cfg.Mode = config.ModePipeline
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if surveyPath != "" {
		cfg.Survey.Path = surveyPath
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	runID, err := application.RunPipeline(context.Background())
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	log.WithField("run_id", runID).Info("Pipeline complete")
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
