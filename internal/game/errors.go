// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure so callers can render it or map it to a status code.
type Kind string

const (
	KindRoomNotFound        Kind = "room_not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindRoleTaken           Kind = "role_taken"
	KindInvalidRole         Kind = "invalid_role"
	KindNotReady            Kind = "not_ready"
	KindWrongPhase          Kind = "wrong_phase"
	KindDuplicateSubmission Kind = "duplicate_submission"
	KindInvalidOrder        Kind = "invalid_order"
	KindInvalidSettings     Kind = "invalid_settings"
	KindGameAlreadyStarted  Kind = "game_already_started"
)

// Error is the single error type returned by game and room operations.
// Two Errors are considered equal by errors.Is when their kinds match.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrRoomNotFound        = &Error{Kind: KindRoomNotFound, Msg: "room not found"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrForbidden           = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrRoleTaken           = &Error{Kind: KindRoleTaken, Msg: "team already taken"}
	ErrInvalidRole         = &Error{Kind: KindInvalidRole, Msg: "invalid team"}
	ErrNotReady            = &Error{Kind: KindNotReady, Msg: "4 teams are required before start"}
	ErrWrongPhase          = &Error{Kind: KindWrongPhase, Msg: "action not allowed in current phase"}
	ErrDuplicateSubmission = &Error{Kind: KindDuplicateSubmission, Msg: "you already submitted this round"}
	ErrInvalidOrder        = &Error{Kind: KindInvalidOrder, Msg: "order must be a non-negative integer"}
	ErrInvalidSettings     = &Error{Kind: KindInvalidSettings, Msg: "invalid settings"}
	ErrGameAlreadyStarted  = &Error{Kind: KindGameAlreadyStarted, Msg: "cannot change settings after game start"}
)

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or "" if err is not a game error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
