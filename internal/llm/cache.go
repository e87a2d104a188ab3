package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CachingExtractor memoizes extraction results on disk, one JSON file
// per (user, task). Model calls are slow and billed, so an existing
// file is never recomputed.
type CachingExtractor struct {
	inner Extractor
	dir   string
}

// NewCachingExtractor wraps inner with a disk cache rooted at dir.
func NewCachingExtractor(inner Extractor, dir string) (*CachingExtractor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("llm: create cache dir %s: %w", dir, err)
	}
	return &CachingExtractor{inner: inner, dir: dir}, nil
}

// ExtractForUser returns the cached artifact for (userID, taskID) or
// extracts and caches it.
func (c *CachingExtractor) ExtractForUser(ctx context.Context, userID, taskID, essay string) (Artifact, error) {
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", userID, taskID))

	if data, err := os.ReadFile(path); err == nil {
		var artifact Artifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return Artifact{}, fmt.Errorf("llm: decode cached artifact %s: %w", path, err)
		}
		return artifact, nil
	}

	artifact, err := c.inner.ExtractArtifact(ctx, taskID, essay)
	if err != nil {
		return Artifact{}, err
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return Artifact{}, fmt.Errorf("llm: encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("llm: cache artifact %s: %w", path, err)
	}
	return artifact, nil
}

// CachingEmbedder memoizes embeddings on disk with the same keying.
type CachingEmbedder struct {
	inner Embedder
	dir   string
}

// NewCachingEmbedder wraps inner with a disk cache rooted at dir.
func NewCachingEmbedder(inner Embedder, dir string) (*CachingEmbedder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("llm: create cache dir %s: %w", dir, err)
	}
	return &CachingEmbedder{inner: inner, dir: dir}, nil
}

// EmbedForUser returns the cached embedding for (userID, taskID) or
// computes and caches it.
func (c *CachingEmbedder) EmbedForUser(ctx context.Context, userID, taskID, essay string) ([]float64, error) {
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", userID, taskID))

	if data, err := os.ReadFile(path); err == nil {
		var vec []float64
		if err := json.Unmarshal(data, &vec); err != nil {
			return nil, fmt.Errorf("llm: decode cached embedding %s: %w", path, err)
		}
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, essay)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("llm: encode embedding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("llm: cache embedding %s: %w", path, err)
	}
	return vec, nil
}
