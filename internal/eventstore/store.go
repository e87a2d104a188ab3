// Package eventstore provides access to per-user interaction event
// logs. Events live remotely (document store or object archive) and are
// mirrored into a local directory so the pipeline can run offline.
package eventstore

import (
	"context"

	"github.com/cowrite/cowrite/pkg/types"
)

// Store fetches the complete event log of one user. Implementations
// return events in persisted order; callers are responsible for
// timestamp sorting.
type Store interface {
	// FetchEvents returns every event recorded for the user.
	FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error)
}
