// Package config provides unified configuration for all Cowrite
// commands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents the command mode to run.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeFetch    Mode = "fetch"
	ModePipeline Mode = "pipeline"
	ModeStats    Mode = "stats"
)

// Config holds the unified configuration for all Cowrite commands.
type Config struct {
	// Mode specifies which stages to run: all, fetch, pipeline, stats
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Source configures where event logs come from
	Source SourceConfig `json:"source" yaml:"source"`

	// Survey configures the participant survey export
	Survey SurveyConfig `json:"survey" yaml:"survey"`

	// Cohort configures participant cleaning and group labeling
	Cohort CohortConfig `json:"cohort" yaml:"cohort"`

	// LLM configures the optional language-model boundary
	LLM LLMConfig `json:"llm" yaml:"llm"`
}

// SourceConfig holds event source configuration.
type SourceConfig struct {
	// Type is the remote source type: none, mongo, s3. With "none" the
	// pipeline runs purely from the local cache.
	Type string `json:"type" yaml:"type"`

	// CacheDir is the local event-log mirror
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// Compress stores cached logs snappy-compressed
	Compress bool `json:"compress" yaml:"compress"`

	// Mongo configuration (for mongo type)
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// MongoConfig holds MongoDB source configuration.
type MongoConfig struct {
	URI        string `json:"uri" yaml:"uri"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`
}

// S3Config holds S3 archive configuration.
type S3Config struct {
	Bucket string `json:"bucket" yaml:"bucket"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// SurveyConfig holds survey export configuration.
type SurveyConfig struct {
	// Path is the survey export file (.csv or .xlsx)
	Path string `json:"path" yaml:"path"`

	// Remap rewrites completion codes of participants who restarted the
	// study under a fresh code
	Remap map[string]string `json:"remap" yaml:"remap"`
}

// CohortConfig holds cohort cleaning and labeling configuration.
type CohortConfig struct {
	TreatmentLabel string   `json:"treatment_label" yaml:"treatment_label"`
	ControlLabel   string   `json:"control_label" yaml:"control_label"`
	ExcludedTasks  []string `json:"excluded_tasks" yaml:"excluded_tasks"`
	BannedUsers    []string `json:"banned_users" yaml:"banned_users"`

	KeepOnlyProlificIndia bool `json:"keep_only_prolific_india" yaml:"keep_only_prolific_india"`
	KeepOnlyProlificUS    bool `json:"keep_only_prolific_us" yaml:"keep_only_prolific_us"`
	RemoveBornOutside     bool `json:"remove_born_outside" yaml:"remove_born_outside"`
	RemovePilot           bool `json:"remove_pilot" yaml:"remove_pilot"`

	// PilotCutoff is the last pilot day, "2006-01-02"
	PilotCutoff string `json:"pilot_cutoff" yaml:"pilot_cutoff"`
}

// LLMConfig holds language-model boundary configuration.
type LLMConfig struct {
	// Enabled controls whether extraction and embeddings run at all
	Enabled bool `json:"enabled" yaml:"enabled"`

	BaseURL    string `json:"base_url" yaml:"base_url"`
	ChatModel  string `json:"chat_model" yaml:"chat_model"`
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// APIKey is normally injected via COWRITE_LLM_API_KEY, never a file
	APIKey string `json:"-" yaml:"-"`

	// CacheDir holds extraction and embedding results
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// DefaultConfig returns the default configuration for local analysis.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeAll,
		DataDir: "./data/cowrite",
		Source: SourceConfig{
			Type:     "none",
			Compress: true,
			Mongo: MongoConfig{
				Database:   "cowrite",
				Collection: "events",
			},
		},
		Cohort: CohortConfig{
			TreatmentLabel: "AI",
			ControlLabel:   "No AI",
			ExcludedTasks:  []string{"tutorial", "attention_check"},
			PilotCutoff:    "2024-07-31",
		},
		LLM: LLMConfig{
			ChatModel: "gpt-4o-mini",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/cowrite"
	}
	if c.Source.CacheDir == "" {
		c.Source.CacheDir = filepath.Join(c.DataDir, "events")
	}
	if c.Survey.Path == "" {
		c.Survey.Path = filepath.Join(c.DataDir, "qualtrics.csv")
	}
	if c.LLM.CacheDir == "" {
		c.LLM.CacheDir = filepath.Join(c.DataDir, "llm")
	}
}

// ResultsPath returns the path of the results database.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

// ParsedPilotCutoff returns the pilot cutoff as a time, or the zero
// time when unset.
func (c *Config) ParsedPilotCutoff() (time.Time, error) {
	if c.Cohort.PilotCutoff == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.Cohort.PilotCutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pilot_cutoff: %w", err)
	}
	return t, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAll, ModeFetch, ModePipeline, ModeStats:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be all, fetch, pipeline, or stats)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Source.Type {
	case "none", "mongo", "s3":
		// Valid source types
	default:
		return fmt.Errorf("invalid source type: %s (must be none, mongo, or s3)", c.Source.Type)
	}

	if c.Source.Type == "mongo" && c.Source.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required when source type is mongo")
	}
	if c.Source.Type == "s3" && c.Source.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when source type is s3")
	}
	if c.Mode == ModeFetch && c.Source.Type == "none" {
		return fmt.Errorf("fetch mode requires a remote source type")
	}

	if _, err := c.ParsedPilotCutoff(); err != nil {
		return err
	}

	if c.LLM.Enabled && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required when llm is enabled")
	}

	return nil
}

// ShouldFetch returns true if the fetch stage should run.
func (c *Config) ShouldFetch() bool {
	return (c.Mode == ModeAll || c.Mode == ModeFetch) && c.Source.Type != "none"
}

// ShouldRunPipeline returns true if the pipeline stage should run.
func (c *Config) ShouldRunPipeline() bool {
	return c.Mode == ModeAll || c.Mode == ModePipeline
}

// ShouldRunStats returns true if the stats stage should run.
func (c *Config) ShouldRunStats() bool {
	return c.Mode == ModeAll || c.Mode == ModeStats
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
// Environment variables use the COWRITE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("COWRITE_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("COWRITE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Source configuration
	if v := os.Getenv("COWRITE_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("COWRITE_EVENTS_DIR"); v != "" {
		cfg.Source.CacheDir = v
	}
	if v := os.Getenv("COWRITE_MONGO_URI"); v != "" {
		cfg.Source.Mongo.URI = v
	}
	if v := os.Getenv("COWRITE_MONGO_DATABASE"); v != "" {
		cfg.Source.Mongo.Database = v
	}
	if v := os.Getenv("COWRITE_S3_BUCKET"); v != "" {
		cfg.Source.S3.Bucket = v
	}
	if v := os.Getenv("COWRITE_S3_PREFIX"); v != "" {
		cfg.Source.S3.Prefix = v
	}
	if v := os.Getenv("COWRITE_S3_REGION"); v != "" {
		cfg.Source.S3.Region = v
	}
	if v := os.Getenv("COWRITE_S3_ENDPOINT"); v != "" {
		cfg.Source.S3.Endpoint = v
	}

	// Survey configuration
	if v := os.Getenv("COWRITE_SURVEY_PATH"); v != "" {
		cfg.Survey.Path = v
	}

	// LLM configuration
	if v := os.Getenv("COWRITE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("COWRITE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("COWRITE_LLM_ENABLED"); v != "" {
		cfg.LLM.Enabled = v == "true" || v == "1"
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Source.CacheDir,
		c.LLM.CacheDir,
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
