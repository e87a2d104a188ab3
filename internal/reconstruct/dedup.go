// Package reconstruct derives the per-user task and suggestion tables from
// a normalized event timeline.
package reconstruct

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spaolacci/murmur3"
)

// fingerprint hashes a flattened event payload with every field except the
// timestamp. Records with equal fingerprints are double-click artifacts:
// identical intent logged more than once.
func fingerprint(fields map[string]interface{}) uint64 {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := murmur3.New64()
	for _, k := range keys {
		v, err := json.Marshal(fields[k])
		if err != nil {
			// Payload values come from decoded JSON and always re-marshal;
			// fall back to the string form for anything exotic.
			v = []byte(fmt.Sprintf("%v", fields[k]))
		}
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(v)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// dedupKeepEarliest collapses adjacent records with equal fingerprints,
// keeping the earliest occurrence. Records must already be sorted by
// timestamp. Returns the survivors and the number collapsed.
func dedupKeepEarliest[T any](records []T, fp func(T) uint64) ([]T, int) {
	seen := make(map[uint64]bool, len(records))
	out := records[:0:0]
	collapsed := 0
	for _, rec := range records {
		key := fp(rec)
		if seen[key] {
			collapsed++
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out, collapsed
}
