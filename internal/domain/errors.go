package domain

import "errors"

// ErrorKind is the abstract failure class. Transports map kinds to their own
// status vocabulary; the core never picks status codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindUnauthorized
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error is a domain failure carrying its kind. Sentinel values below cover the
// common cases; infra wraps them with context via fmt.Errorf and %w.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a one-off domain error with the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the kind from err, unwrapping as needed. Errors that are not
// domain errors classify as KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	// ErrGameNotFound is returned when no game exists for a code.
	ErrGameNotFound = &Error{Kind: KindNotFound, Message: "game not found"}
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = &Error{Kind: KindNotFound, Message: "question not found"}
	// ErrParticipantNotFound is returned when a participant ID is unknown.
	ErrParticipantNotFound = &Error{Kind: KindNotFound, Message: "participant not found"}
	// ErrNameTaken is returned when joining with a name already used in the game.
	ErrNameTaken = &Error{Kind: KindConflict, Message: "name already taken"}
	// ErrAlreadyAnswered is returned when an answer for the (participant,
	// question) pair already exists.
	ErrAlreadyAnswered = &Error{Kind: KindConflict, Message: "already answered this question"}
	// ErrInvalidTransition is returned when a game is not in the state the
	// operation requires; status only moves forward.
	ErrInvalidTransition = &Error{Kind: KindConflict, Message: "invalid game state for this operation"}
	// ErrNotOrganizer is returned when the admin join is attempted by someone
	// other than the game's organizer.
	ErrNotOrganizer = &Error{Kind: KindUnauthorized, Message: "not the organizer of this game"}
)
