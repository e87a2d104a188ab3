// Package types provides core data types for the Cowrite analysis pipeline.
package types

// EventName identifies the kind of an interaction event.
type EventName string

const (
	EventStudyStarted       EventName = "study_started"
	EventTaskStarted        EventName = "task_started"
	EventTaskCompleted      EventName = "task_completed"
	EventSuggestionShown    EventName = "suggestion_shown"
	EventSuggestionAccepted EventName = "suggestion_accepted"
	EventSuggestionRejected EventName = "suggestion_rejected"
	EventStudyFinished      EventName = "study_finished"
)

// KnownEventNames lists every event name the pipeline recognizes.
var KnownEventNames = map[EventName]bool{
	EventStudyStarted:       true,
	EventTaskStarted:        true,
	EventTaskCompleted:      true,
	EventSuggestionShown:    true,
	EventSuggestionAccepted: true,
	EventSuggestionRejected: true,
	EventStudyFinished:      true,
}

// RawEvent is an event record exactly as persisted by the study client.
// TimestampStr duplicates Timestamp in human-readable form and is discarded
// during normalization.
type RawEvent struct {
	Timestamp    int64                  `json:"timestamp" bson:"timestamp"`
	TimestampStr string                 `json:"timestampStr,omitempty" bson:"timestampStr,omitempty"`
	EventName    string                 `json:"eventName" bson:"eventName"`
	EventDetails map[string]interface{} `json:"eventDetails" bson:"eventDetails"`
}

// Event is a normalized, typed event in a user's timeline.
// Ordering key is Timestamp (epoch milliseconds); ties keep log order.
type Event struct {
	Timestamp int64
	Name      EventName
	Details   map[string]interface{}
}
