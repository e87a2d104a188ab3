// Package main implements the unified cowrite binary.
// It can run the full analysis (fetch, pipeline, stats) or individual
// stages based on the --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/app"
	"github.com/cowrite/cowrite/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		mode        string
		surveyPath  string
		eventsDir   string
		sourceType  string
		verbose     bool
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&mode, "mode", "", "Stage mode: all, fetch, pipeline, stats")
	flag.StringVar(&surveyPath, "survey", "", "Path to the survey export (.csv or .xlsx)")
	flag.StringVar(&eventsDir, "events-dir", "", "Directory of the local event-log cache")
	flag.StringVar(&sourceType, "source", "", "Remote event source: none, mongo, s3")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Cowrite - Behavioral analysis pipeline for AI-assisted writing studies\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cowrite [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cowrite --data-dir ./data/study\n")
		fmt.Fprintf(os.Stderr, "  cowrite --mode fetch --source mongo --data-dir ./data/study\n")
		fmt.Fprintf(os.Stderr, "  cowrite --mode stats --config ./config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_MODE          Stage mode (all, fetch, pipeline, stats)\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_DATA_DIR      Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_SOURCE_TYPE   Remote event source (none, mongo, s3)\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_MONGO_URI     MongoDB connection string\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_S3_BUCKET     S3 bucket of the event archive\n")
		fmt.Fprintf(os.Stderr, "  COWRITE_LLM_API_KEY   API key for the LLM boundary\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("cowrite version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Secrets and local overrides live in .env during development.
	_ = godotenv.Load()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(configFile, dataDir, mode, surveyPath, eventsDir, sourceType)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and command
// line flags, in increasing priority.
func loadConfig(configFile, dataDir, mode, surveyPath, eventsDir, sourceType string) (*config.Config, error) {
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
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if surveyPath != "" {
		cfg.Survey.Path = surveyPath
	}
	if eventsDir != "" {
		cfg.Source.CacheDir = eventsDir
	}
	if sourceType != "" {
		cfg.Source.Type = sourceType
	}

	return cfg, nil
}
