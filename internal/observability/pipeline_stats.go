// Package observability provides run diagnostics for the reconstruction
// pipeline: duplicate-collapse counts and suggestion-attribution losses.
package observability

import (
	"sort"
	"sync"
)

// PipelineStats aggregates per-user reconstruction diagnostics.
// Attribution losses are warning-level observations, never errors: the
// affected suggestions are already dropped by the reconstructor, and this
// tracker only makes the loss visible.
type PipelineStats struct {
	mu    sync.RWMutex
	users map[string]*UserStats
}

// UserStats holds the diagnostics for one user.
type UserStats struct {
	UserID string

	EventCount           int
	DuplicateStarts      int
	DuplicateCompletions int

	SuggestionsShown   int
	SuggestionsDropped int
}

// DroppedFraction returns the fraction of shown suggestions that could
// not be attributed to a task, or zero when none were shown.
func (u *UserStats) DroppedFraction() float64 {
	if u.SuggestionsShown == 0 {
		return 0
	}
	return float64(u.SuggestionsDropped) / float64(u.SuggestionsShown)
}

// NewPipelineStats creates an empty diagnostics tracker.
func NewPipelineStats() *PipelineStats {
	return &PipelineStats{users: make(map[string]*UserStats)}
}

// RecordUser stores the diagnostics for one user, replacing any previous
// record for the same id.
func (p *PipelineStats) RecordUser(stats UserStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := stats
	p.users[stats.UserID] = &cp
}

// User returns a copy of one user's diagnostics.
func (p *PipelineStats) User(userID string) (UserStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.users[userID]
	if !ok {
		return UserStats{}, false
	}
	return *s, true
}

// Snapshot returns copies of all user diagnostics sorted by user id.
func (p *PipelineStats) Snapshot() []UserStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]UserStats, 0, len(p.users))
	for _, s := range p.users {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Totals sums the diagnostics across all recorded users.
func (p *PipelineStats) Totals() UserStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total UserStats
	for _, s := range p.users {
		total.EventCount += s.EventCount
		total.DuplicateStarts += s.DuplicateStarts
		total.DuplicateCompletions += s.DuplicateCompletions
		total.SuggestionsShown += s.SuggestionsShown
		total.SuggestionsDropped += s.SuggestionsDropped
	}
	return total
}
