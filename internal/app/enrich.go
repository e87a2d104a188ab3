package app

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/cohort"
	"github.com/cowrite/cowrite/internal/llm"
)

// EnrichTasks runs the model boundary over completed essays: one
// structured artifact per recognized task kind and one embedding per
// essay, both memoized on disk keyed by (user, task). Individual model
// failures are logged and skipped; the run they enrich is already
// persisted.
func (a *App) EnrichTasks(ctx context.Context, rows []cohort.TaskRow) error {
	client := llm.NewClient(llm.ClientConfig{
		BaseURL:    a.cfg.LLM.BaseURL,
		APIKey:     a.cfg.LLM.APIKey,
		ChatModel:  a.cfg.LLM.ChatModel,
		EmbedModel: a.cfg.LLM.EmbedModel,
	})
	extractor, err := llm.NewCachingExtractor(client, filepath.Join(a.cfg.LLM.CacheDir, "artifacts"))
	if err != nil {
		return err
	}
	embedder, err := llm.NewCachingEmbedder(client, filepath.Join(a.cfg.LLM.CacheDir, "embeddings"))
	if err != nil {
		return err
	}

	artifacts, embeddings := 0, 0
	for _, row := range rows {
		if row.Task.TimeCompleted == nil || row.Task.FinalText == "" {
			continue
		}
		if _, ok := llm.TaskFields[row.Task.ID]; ok {
			if _, err := extractor.ExtractForUser(ctx, row.UserID, row.Task.ID, row.Task.FinalText); err != nil {
				a.log.WithError(err).WithFields(logrus.Fields{"user": row.UserID, "task": row.Task.ID}).
					Warn("app: artifact extraction failed")
			} else {
				artifacts++
			}
		}
		if _, err := embedder.EmbedForUser(ctx, row.UserID, row.Task.ID, row.Task.FinalText); err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{"user": row.UserID, "task": row.Task.ID}).
				Warn("app: essay embedding failed")
		} else {
			embeddings++
		}
	}

	a.log.WithFields(logrus.Fields{"artifacts": artifacts, "embeddings": embeddings}).
		Info("app: essays enriched")
	return nil
}
