// Package cohort builds the study-wide analysis tables: it cleans the
// participant list and runs the per-user reconstruction pipeline over
// every remaining participant.
package cohort

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/pkg/types"
)

// CleaningPolicy controls which participants enter the cohort.
type CleaningPolicy struct {
	// BannedUsers are completion codes excluded outright (fraud,
	// withdrawn consent, broken sessions).
	BannedUsers []string

	// KeepOnlyProlificIndia and KeepOnlyProlificUS restrict each region
	// to participants recruited through the primary platform ("p-"
	// prefixed codes).
	KeepOnlyProlificIndia bool
	KeepOnlyProlificUS    bool

	// RemoveBornOutside drops participants not born in their country of
	// residence.
	RemoveBornOutside bool

	// RemovePilot drops participants who started on or before
	// PilotCutoff.
	RemovePilot bool
	PilotCutoff time.Time
}

// DefaultPilotCutoff is the last day of the pilot phase.
var DefaultPilotCutoff = time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC)

const prolificPrefix = "p-"

// CleanUsers applies the policy and returns the cohort, Indian
// participants first, then US. Completion codes appearing more than once
// are removed entirely, both copies.
func CleanUsers(users []*types.User, policy CleaningPolicy, log *logrus.Logger) []*types.User {
	banned := make(map[string]bool, len(policy.BannedUsers))
	for _, id := range policy.BannedUsers {
		banned[id] = true
	}

	var kept []*types.User
	for _, u := range users {
		if banned[u.ID] {
			continue
		}
		if policy.RemoveBornOutside && u.Birth != u.Country {
			continue
		}
		kept = append(kept, u)
	}

	var cohort []*types.User
	cohort = append(cohort, filterRegion(kept, "IND", policy.KeepOnlyProlificIndia)...)
	cohort = append(cohort, filterRegion(kept, "US", policy.KeepOnlyProlificUS)...)

	if policy.RemovePilot {
		cutoff := policy.PilotCutoff
		if cutoff.IsZero() {
			cutoff = DefaultPilotCutoff
		}
		var afterPilot []*types.User
		for _, u := range cohort {
			if u.StartDate.After(cutoff) {
				afterPilot = append(afterPilot, u)
			}
		}
		cohort = afterPilot
	}

	return dropDuplicates(cohort, log)
}

func filterRegion(users []*types.User, country string, prolificOnly bool) []*types.User {
	var out []*types.User
	for _, u := range users {
		if u.Country != country {
			continue
		}
		if prolificOnly && !strings.HasPrefix(u.ID, prolificPrefix) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// dropDuplicates removes every occurrence of a repeated completion code;
// a duplicate means the code cannot be trusted to identify one person.
func dropDuplicates(users []*types.User, log *logrus.Logger) []*types.User {
	counts := make(map[string]int, len(users))
	for _, u := range users {
		counts[u.ID]++
	}
	var out []*types.User
	var dropped []string
	for _, u := range users {
		if counts[u.ID] > 1 {
			dropped = append(dropped, u.ID)
			continue
		}
		out = append(out, u)
	}
	if len(dropped) > 0 && log != nil {
		log.WithField("users", dropped).Warn("cohort: duplicate completion codes removed")
	}
	return out
}
