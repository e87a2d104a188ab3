package types

import "time"

// Group is the experimental condition of a user, derived from the
// study_started event's showSuggestions flag (not from survey data).
type Group string

const (
	GroupControl   Group = "control"
	GroupTreatment Group = "treatment"
)

// User is one study participant, keyed by completion code.
type User struct {
	// ID is the completion code ("u-..." or "p-..." prefixed).
	ID string

	StartDate        time.Time
	SurveyDurationS  float64
	Age              string
	Gender           string
	Birth            string
	Country          string
	YearsInCountry   string
	City             string
	Education        string
	Occupation       string
	Languages        string

	// SSVSScores maps trait name (e.g., "power", "tradition") to the
	// numeric rating extracted from the survey.
	SSVSScores map[string]float64

	// Conservation and Transcendence are higher-order value scores
	// derived from SSVSScores.
	Conservation  float64
	Transcendence float64

	// Group is written back by the per-user pipeline loop; the zero value
	// means the user has not been processed.
	Group Group

	// GroupLabel is the human-readable label used in assembled tables
	// (e.g., "AI" / "No AI").
	GroupLabel string
}

// SSVSTraits lists the ten Schwartz value-survey traits in weight order.
var SSVSTraits = []string{
	"power",
	"achievement",
	"hedonism",
	"stimulation",
	"self-direction",
	"universalism",
	"benevolence",
	"tradition",
	"conformity",
	"security",
}
