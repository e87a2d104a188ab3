// Package app wires configuration, stores, and the cohort pipeline into
// the stages the command-line front-ends run.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/cohort"
	"github.com/cowrite/cowrite/internal/config"
	"github.com/cowrite/cowrite/internal/eventstore"
	"github.com/cowrite/cowrite/internal/results"
	"github.com/cowrite/cowrite/internal/survey"
	"github.com/cowrite/cowrite/pkg/types"
)

// App runs the analysis stages against one configuration.
type App struct {
	cfg *config.Config
	log *logrus.Logger
}

// New creates an App. The configuration is resolved, validated, and its
// directories created.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}
	return &App{cfg: cfg, log: log}, nil
}

// Run executes the stages selected by the configured mode.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.ShouldFetch() {
		if err := a.Fetch(ctx); err != nil {
			return err
		}
	}
	var runID string
	if a.cfg.ShouldRunPipeline() {
		id, err := a.RunPipeline(ctx)
		if err != nil {
			return err
		}
		runID = id
	}
	if a.cfg.ShouldRunStats() {
		reports, err := a.RunStats(ctx, runID, nil)
		if err != nil {
			return err
		}
		for _, r := range reports {
			a.LogReport(r)
		}
	}
	return nil
}

// Fetch mirrors the cohort's event logs from the remote source into the
// local cache.
func (a *App) Fetch(ctx context.Context) error {
	users, err := a.loadCohort()
	if err != nil {
		return err
	}

	store, cleanup, err := a.buildCachingStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	fetched, err := store.Prefetch(ctx, ids)
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"users": len(ids), "fetched": fetched}).
		Info("app: event cache warmed")
	return nil
}

// RunPipeline assembles the cohort tables and persists them, returning
// the run id.
func (a *App) RunPipeline(ctx context.Context) (string, error) {
	users, err := a.loadCohort()
	if err != nil {
		return "", err
	}

	var store eventstore.Store
	if a.cfg.Source.Type == "none" {
		fileStore, err := eventstore.NewFileStore(a.cfg.Source.CacheDir, a.cfg.Source.Compress)
		if err != nil {
			return "", err
		}
		store = fileStore
	} else {
		caching, cleanup, err := a.buildCachingStore(ctx)
		if err != nil {
			return "", err
		}
		defer cleanup()
		store = caching
	}

	assembler := cohort.NewAssembler(store, nil, cohort.Options{
		TreatmentLabel: a.cfg.Cohort.TreatmentLabel,
		ControlLabel:   a.cfg.Cohort.ControlLabel,
		ExcludedTasks:  a.cfg.Cohort.ExcludedTasks,
	}, a.log)

	res, err := assembler.Run(ctx, users)
	if err != nil {
		return "", err
	}

	db, err := results.Open(a.cfg.ResultsPath())
	if err != nil {
		return "", err
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, res)
	if err != nil {
		return "", err
	}
	a.log.WithField("run", runID).Info("app: pipeline run persisted")

	if a.cfg.LLM.Enabled {
		if err := a.EnrichTasks(ctx, res.Tasks); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// loadCohort loads the survey export, derives value scores, and applies
// the cleaning policy.
func (a *App) loadCohort() ([]*types.User, error) {
	users, err := survey.Load(a.cfg.Survey.Path, a.cfg.Survey.Remap, a.log)
	if err != nil {
		return nil, err
	}
	survey.ComputeScores(users)

	cutoff, err := a.cfg.ParsedPilotCutoff()
	if err != nil {
		return nil, err
	}
	cleaned := cohort.CleanUsers(users, cohort.CleaningPolicy{
		BannedUsers:           a.cfg.Cohort.BannedUsers,
		KeepOnlyProlificIndia: a.cfg.Cohort.KeepOnlyProlificIndia,
		KeepOnlyProlificUS:    a.cfg.Cohort.KeepOnlyProlificUS,
		RemoveBornOutside:     a.cfg.Cohort.RemoveBornOutside,
		RemovePilot:           a.cfg.Cohort.RemovePilot,
		PilotCutoff:           cutoff,
	}, a.log)

	a.log.WithFields(logrus.Fields{"loaded": len(users), "cohort": len(cleaned)}).
		Info("app: cohort cleaned")
	return cleaned, nil
}

// buildCachingStore builds the remote store for the configured source
// type, wrapped in the local cache.
func (a *App) buildCachingStore(ctx context.Context) (*eventstore.CachingStore, func(), error) {
	cache, err := eventstore.NewFileStore(a.cfg.Source.CacheDir, a.cfg.Source.Compress)
	if err != nil {
		return nil, nil, err
	}

	var remote eventstore.Store
	cleanup := func() {}
	switch a.cfg.Source.Type {
	case "mongo":
		mongoStore, err := eventstore.NewMongoStore(ctx,
			a.cfg.Source.Mongo.URI, a.cfg.Source.Mongo.Database, a.cfg.Source.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		remote = mongoStore
		cleanup = func() { _ = mongoStore.Close(context.Background()) }
	case "s3":
		archive, err := eventstore.NewArchiveStore(ctx, eventstore.ArchiveConfig{
			Bucket:   a.cfg.Source.S3.Bucket,
			Prefix:   a.cfg.Source.S3.Prefix,
			Region:   a.cfg.Source.S3.Region,
			Endpoint: a.cfg.Source.S3.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		remote = archive
	default:
		return nil, nil, fmt.Errorf("app: source type %q has no remote store", a.cfg.Source.Type)
	}

	return eventstore.NewCachingStore(remote, cache, a.cfg.Survey.Remap, a.log), cleanup, nil
}
