// Package main implements the cowrite-stats binary, which runs the
// group comparisons over a stored result run.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/app"
	"github.com/cowrite/cowrite/internal/config"
)

func main() {
	var (
		configFile string
		dataDir    string
		runID      string
		metricList string
		verbose    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&runID, "run", "", "Run ID to analyze (defaults to the latest run)")
	flag.StringVar(&metricList, "metrics", "", "Comma-separated metric columns to compare")
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
	cfg.Mode = config.ModeStats
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	metrics := app.DefaultStatsMetrics
	if metricList != "" {
		metrics = nil
		for _, m := range strings.Split(metricList, ",") {
			if m = strings.TrimSpace(m); m != "" {
				metrics = append(metrics, m)
			}
		}
	}

	reports, err := application.RunStats(context.Background(), runID, metrics)
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}
	for _, r := range reports {
		application.LogReport(r)
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
