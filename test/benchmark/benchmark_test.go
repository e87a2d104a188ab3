// Package benchmark provides performance benchmarks for the cowrite
// reconstruction and reliance code paths.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cowrite/cowrite/internal/reconstruct"
	"github.com/cowrite/cowrite/internal/reliance"
	"github.com/cowrite/cowrite/internal/textmetrics"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

// generateRawLog builds a synthetic event log with n tasks, each with a
// handful of suggestions, shuffled enough to exercise the stable sort.
func generateRawLog(n int) []types.RawEvent {
	out := []types.RawEvent{{
		Timestamp: 0,
		EventName: "study_started",
		EventDetails: map[string]interface{}{
			"user": map[string]interface{}{"showSuggestions": true},
		},
	}}
	for i := 0; i < n; i++ {
		base := int64(1000 * (i + 1))
		id := fmt.Sprintf("essay%d", i)
		out = append(out,
			types.RawEvent{Timestamp: base, EventName: "task_started", EventDetails: map[string]interface{}{
				"task": map[string]interface{}{"id": id, "prompt": "p", "minWords": float64(50), "completed": false},
			}},
			types.RawEvent{Timestamp: base + 900, EventName: "task_completed", EventDetails: map[string]interface{}{
				"taskId": id, "finalHtml": "<p>a long passage about writing essays with some help</p>",
			}},
		)
		for s := 0; s < 4; s++ {
			sid := fmt.Sprintf("%s-s%d", id, s)
			shown := base + int64(100+s*100)
			out = append(out,
				types.RawEvent{Timestamp: shown, EventName: "suggestion_shown", EventDetails: map[string]interface{}{
					"suggestionId": sid, "timestamp": float64(shown), "suggestionText": "writing essays with some help",
				}},
				types.RawEvent{Timestamp: shown + 50, EventName: "suggestion_accepted", EventDetails: map[string]interface{}{
					"suggestionId": sid, "timestamp": float64(shown + 50),
				}},
			)
		}
	}
	return out
}

// BenchmarkTimelineBuild measures event normalization and ordering
// throughput over a 100-task log.
func BenchmarkTimelineBuild(b *testing.B) {
	raw := generateRawLog(100)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := timeline.Build(raw); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(len(raw))*float64(b.N)/b.Elapsed().Seconds(), "events/sec")
}

// BenchmarkReconstruct measures full task and suggestion table
// reconstruction from an ordered timeline.
func BenchmarkReconstruct(b *testing.B) {
	events, err := timeline.Build(generateRawLog(100))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tasks, err := reconstruct.ReconstructTasks(events)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := reconstruct.ReconstructSuggestions(events, tasks); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLongestOverlap measures the subsequence matcher on
// essay-sized inputs. The quadratic table dominates pipeline runtime.
func BenchmarkLongestOverlap(b *testing.B) {
	essay := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	suggestion := "a quick brown fox leaps over a sleeping dog"

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		reliance.LongestOverlap(essay, suggestion)
	}
}

// BenchmarkTypeTokenRatio measures lexical diversity scoring.
func BenchmarkTypeTokenRatio(b *testing.B) {
	essay := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		textmetrics.TypeTokenRatio(essay)
	}
}
