package deck

import "fmt"

// Reason is a machine-readable code identifying why validation failed.
type Reason string

const (
	// ReasonUnparseable means the raw output was not a JSON array of objects.
	ReasonUnparseable Reason = "unparseable"
	// ReasonBadCount means the card count fell outside [MinCards, MaxCards].
	ReasonBadCount Reason = "bad_count"
	// ReasonUnknownType means a card declared a type outside the enum.
	ReasonUnknownType Reason = "unknown_type"
	// ReasonMissingAnswer means a quiz card had an empty answer.
	ReasonMissingAnswer Reason = "missing_answer"
	// ReasonBadStructure means a boundary card could not be safely retyped,
	// e.g. the first or last card is a quiz.
	ReasonBadStructure Reason = "bad_structure"
)

// Error is a structural validation failure. It is fatal for the sequence:
// defects that can be repaired locally never produce an Error.
type Error struct {
	// Reason is the machine-readable failure code.
	Reason Reason
	// Detail is a human-readable description of the defect.
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("deck validation failed (%s): %s", e.Reason, e.Detail)
}

// failf builds an *Error with a formatted detail message.
func failf(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
