package eventstore

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/pkg/types"
)

// CachingStore mirrors a remote store into a local FileStore so repeat
// runs never refetch. Some participants restarted the study and were
// assigned a fresh "u-" code later remapped to their platform "p-"
// code; the remote store only knows the original code, so lookups
// reverse the remap while the cache files keep the canonical id.
type CachingStore struct {
	remote Store
	cache  *FileStore
	p2u    map[string]string
	log    *logrus.Logger
}

// NewCachingStore wraps remote with the local cache. remap maps
// original ids to canonical ids (the direction used during survey
// loading); it is inverted here for remote lookups.
func NewCachingStore(remote Store, cache *FileStore, remap map[string]string, log *logrus.Logger) *CachingStore {
	p2u := make(map[string]string, len(remap))
	for original, canonical := range remap {
		p2u[canonical] = original
	}
	return &CachingStore{remote: remote, cache: cache, p2u: p2u, log: log}
}

// FetchEvents returns the cached log when present, otherwise fetches
// from the remote store and caches the result under the canonical id.
func (s *CachingStore) FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error) {
	if s.cache.Has(userID) {
		return s.cache.FetchEvents(ctx, userID)
	}

	remoteID := userID
	if original, ok := s.p2u[userID]; ok {
		remoteID = original
	}
	events, err := s.remote.FetchEvents(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.StoreEvents(userID, events); err != nil {
		// A failed cache write is not fatal for the current run.
		if s.log != nil {
			s.log.WithField("user", userID).WithError(err).Warn("eventstore: cache write failed")
		}
	}
	return events, nil
}

// Prefetch warms the cache for every listed user and reports how many
// were fetched remotely.
func (s *CachingStore) Prefetch(ctx context.Context, userIDs []string) (fetched int, err error) {
	for _, id := range userIDs {
		if s.cache.Has(id) {
			continue
		}
		if _, err := s.FetchEvents(ctx, id); err != nil {
			return fetched, err
		}
		fetched++
	}
	return fetched, nil
}
