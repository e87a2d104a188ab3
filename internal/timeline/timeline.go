// Package timeline normalizes a user's raw event records into a
// time-ordered sequence of typed events.
//
// The timeline never drops or merges events: different event kinds have
// different duplicate-detection keys, so all deduplication is deferred to
// the reconstructors.
package timeline

import (
	"fmt"
	"sort"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

// Build converts raw records into events ordered by timestamp ascending.
// Ties keep the original log order (stable sort). The redundant
// timestampStr field is discarded. A record with an unrecognized or
// missing event name fails the whole timeline.
func Build(records []types.RawEvent) ([]types.Event, error) {
	events := make([]types.Event, 0, len(records))
	for i, rec := range records {
		if rec.EventName == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("record %d has no eventName", i))
		}
		name := types.EventName(rec.EventName)
		if !types.KnownEventNames[name] {
			return nil, errors.NewMalformedEvent(errors.CodeUnknownEventName,
				fmt.Sprintf("record %d has unrecognized eventName %q", i, rec.EventName))
		}
		events = append(events, types.Event{
			Timestamp: rec.Timestamp,
			Name:      name,
			Details:   rec.EventDetails,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return events, nil
}

// Filter returns the events with the given name, preserving order.
func Filter(events []types.Event, name types.EventName) []types.Event {
	var out []types.Event
	for _, ev := range events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// CountBetween returns how many events fall strictly between two
// timestamps. Used by the duplicate-completion integrity check.
func CountBetween(events []types.Event, after, before int64) int {
	n := 0
	for _, ev := range events {
		if ev.Timestamp > after && ev.Timestamp < before {
			n++
		}
	}
	return n
}

// ShowSuggestions extracts the showSuggestions flag from the first
// study_started event. The flag determines the user's experimental group.
func ShowSuggestions(events []types.Event) (bool, error) {
	started := Filter(events, types.EventStudyStarted)
	if len(started) == 0 {
		return false, errors.NewMalformedEvent(errors.CodeMissingField,
			"no study_started event in timeline")
	}
	user, ok := started[0].Details["user"].(map[string]interface{})
	if !ok {
		return false, errors.NewMalformedEvent(errors.CodeMissingField,
			"study_started event has no user payload")
	}
	show, ok := user["showSuggestions"].(bool)
	if !ok {
		return false, errors.NewMalformedEvent(errors.CodeMissingField,
			"study_started user payload has no showSuggestions flag")
	}
	return show, nil
}
