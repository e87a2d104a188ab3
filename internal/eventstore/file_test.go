package eventstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

func sampleEvents() []types.RawEvent {
	return []types.RawEvent{
		{Timestamp: 100, EventName: "study_started", EventDetails: map[string]interface{}{
			"user": map[string]interface{}{"showSuggestions": true},
		}},
		{Timestamp: 200, EventName: "task_started", EventDetails: map[string]interface{}{
			"task": map[string]interface{}{"id": "t1"},
		}},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), false)
	require.NoError(t, err)

	require.NoError(t, store.StoreEvents("u-a", sampleEvents()))
	assert.True(t, store.Has("u-a"))

	events, err := store.FetchEvents(context.Background(), "u-a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(100), events[0].Timestamp)
	assert.Equal(t, "task_started", events[1].EventName)
}

func TestFileStoreCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true)
	require.NoError(t, err)

	require.NoError(t, store.StoreEvents("u-a", sampleEvents()))
	_, err = os.Stat(filepath.Join(dir, "u-a.json.sz"))
	require.NoError(t, err)

	events, err := store.FetchEvents(context.Background(), "u-a")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileStoreReadsPlainJSONWhenCompressionEnabled(t *testing.T) {
	dir := t.TempDir()
	plain, err := NewFileStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, plain.StoreEvents("u-a", sampleEvents()))

	compressed, err := NewFileStore(dir, true)
	require.NoError(t, err)
	events, err := compressed.FetchEvents(context.Background(), "u-a")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileStoreMissingUser(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), false)
	require.NoError(t, err)

	_, err = store.FetchEvents(context.Background(), "u-missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeEventsNotFound, errors.GetCode(err))
	assert.False(t, store.Has("u-missing"))
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u-a.json"), []byte("{not json"), 0o644))

	_, err = store.FetchEvents(context.Background(), "u-a")
	require.Error(t, err)
	assert.Equal(t, errors.CodeCacheFailed, errors.GetCode(err))
}

type stubStore struct {
	events map[string][]types.RawEvent
	calls  map[string]int
}

func (s *stubStore) FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[userID]++
	events, ok := s.events[userID]
	if !ok {
		return nil, errors.NewStoreError(errors.CodeEventsNotFound, "stub: no events", nil)
	}
	return events, nil
}

func TestCachingStoreFetchesOnceAndCaches(t *testing.T) {
	cache, err := NewFileStore(t.TempDir(), true)
	require.NoError(t, err)
	remote := &stubStore{events: map[string][]types.RawEvent{"u-a": sampleEvents()}}
	store := NewCachingStore(remote, cache, nil, nil)

	for i := 0; i < 3; i++ {
		events, err := store.FetchEvents(context.Background(), "u-a")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	}
	assert.Equal(t, 1, remote.calls["u-a"])
	assert.True(t, cache.Has("u-a"))
}

func TestCachingStoreRemapsRestartedUsers(t *testing.T) {
	cache, err := NewFileStore(t.TempDir(), false)
	require.NoError(t, err)
	remote := &stubStore{events: map[string][]types.RawEvent{"u-old": sampleEvents()}}
	store := NewCachingStore(remote, cache, map[string]string{"u-old": "p-new"}, nil)

	events, err := store.FetchEvents(context.Background(), "p-new")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	// Remote is queried under the original code, the cache keeps the
	// canonical one.
	assert.Equal(t, 1, remote.calls["u-old"])
	assert.True(t, cache.Has("p-new"))
	assert.False(t, cache.Has("u-old"))
}

func TestCachingStorePrefetch(t *testing.T) {
	cache, err := NewFileStore(t.TempDir(), false)
	require.NoError(t, err)
	remote := &stubStore{events: map[string][]types.RawEvent{
		"u-a": sampleEvents(),
		"u-b": sampleEvents(),
	}}
	store := NewCachingStore(remote, cache, nil, nil)

	require.NoError(t, cache.StoreEvents("u-a", sampleEvents()))
	fetched, err := store.Prefetch(context.Background(), []string{"u-a", "u-b"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)
}
