package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

const (
	jsonExt   = ".json"
	snappyExt = ".json.sz"
)

// FileStore reads and writes per-user event logs under a single
// directory, one file per user: <dir>/<userID>.json, or
// <dir>/<userID>.json.sz when snappy compression is enabled. Reads
// accept either form regardless of the write setting.
type FileStore struct {
	dir      string
	compress bool
}

// NewFileStore creates a file store rooted at dir, creating it if
// needed.
func NewFileStore(dir string, compress bool) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: create %s", dir), err)
	}
	return &FileStore{dir: dir, compress: compress}, nil
}

// FetchEvents loads the user's event log from disk. The compressed form
// is preferred when both exist.
func (s *FileStore) FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(userID, snappyExt))
	if err == nil {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, errors.NewStoreError(errors.CodeCacheFailed,
				fmt.Sprintf("eventstore: decompress events for %s", userID), err)
		}
		return decodeEvents(userID, data)
	}
	if !os.IsNotExist(err) {
		return nil, errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: read events for %s", userID), err)
	}

	data, err = os.ReadFile(s.path(userID, jsonExt))
	if os.IsNotExist(err) {
		return nil, errors.NewStoreError(errors.CodeEventsNotFound,
			fmt.Sprintf("eventstore: no event log for %s", userID), nil)
	}
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: read events for %s", userID), err)
	}
	return decodeEvents(userID, data)
}

// Has reports whether an event log exists on disk for the user.
func (s *FileStore) Has(userID string) bool {
	for _, ext := range []string{snappyExt, jsonExt} {
		if _, err := os.Stat(s.path(userID, ext)); err == nil {
			return true
		}
	}
	return false
}

// StoreEvents writes the user's event log to disk, replacing any
// previous file. The write goes through a temp file and rename.
func (s *FileStore) StoreEvents(userID string, events []types.RawEvent) error {
	data, err := json.Marshal(events)
	if err != nil {
		return errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: encode events for %s", userID), err)
	}
	ext := jsonExt
	if s.compress {
		ext = snappyExt
		data = snappy.Encode(nil, data)
	}

	path := s.path(userID, ext)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: stage events for %s", userID), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: stage events for %s", userID), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: stage events for %s", userID), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: commit events for %s", userID), err)
	}
	return nil
}

func (s *FileStore) path(userID, ext string) string {
	return filepath.Join(s.dir, userID+ext)
}

func decodeEvents(userID string, data []byte) ([]types.RawEvent, error) {
	var events []types.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.NewStoreError(errors.CodeCacheFailed,
			fmt.Sprintf("eventstore: decode events for %s", userID), err)
	}
	return events, nil
}
