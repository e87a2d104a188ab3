package types

// Resolution is the outcome of a shown suggestion.
type Resolution string

const (
	ResolutionAccepted Resolution = "accepted"
	ResolutionRejected Resolution = "rejected"

	// ResolutionUnresolved marks a shown suggestion with no matching
	// accept or reject event (log loss). Downstream counting treats it
	// the same as rejected.
	ResolutionUnresolved Resolution = "unresolved"
)

// Rejection reasons logged by the study client.
const (
	RejectionImplicit      = "implicit"
	RejectionPressedEscape = "pressed_escape"
)

// Suggestion is one reconstructed autocomplete suggestion for a single user.
type Suggestion struct {
	// ID is the suggestion identifier from the study client.
	ID string

	// TimeShown is the epoch-millisecond timestamp of the shown event.
	TimeShown int64

	// TimeResolved is the timestamp of the accept/reject event, or zero
	// when unresolved.
	TimeResolved int64

	// Resolution records how the suggestion was resolved.
	Resolution Resolution

	// RejectionReason is empty unless Resolution is rejected.
	RejectionReason string

	// Text is the suggested completion text.
	Text string

	// LeadingText is the essay text immediately preceding the suggestion
	// when it was shown.
	LeadingText string

	// TaskID is derived by interval containment, never logged. Empty only
	// transiently; unattributable suggestions are dropped before the
	// table is returned.
	TaskID string
}

// IsAccepted reports whether the suggestion was explicitly accepted.
func (s *Suggestion) IsAccepted() bool {
	return s.Resolution == ResolutionAccepted
}
