// Package apperr provides the typed error used across the game server.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error kind.
type Code string

const (
	// Room and roster
	CodeGameNotFound     Code = "GAME_NOT_FOUND"
	CodeDuplicateRoom    Code = "DUPLICATE_ROOM"
	CodePlayerNotFound   Code = "PLAYER_NOT_FOUND"
	CodeInvalidNickname  Code = "INVALID_NICKNAME"
	CodeRoomFull         Code = "ROOM_FULL"
	CodeNotOwner         Code = "NOT_OWNER"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"
	CodeTooManyPlayers   Code = "TOO_MANY_PLAYERS"
	CodePlayerNotReady   Code = "PLAYER_NOT_READY"

	// Phase and turn
	CodeWrongPhase     Code = "WRONG_PHASE"
	CodeNotYourTurn    Code = "NOT_YOUR_TURN"
	CodePlayerFinished Code = "PLAYER_FINISHED"
	CodeAlreadyPassed  Code = "ALREADY_PASSED"
	CodeCannotPass     Code = "CANNOT_PASS"
	CodeAlreadyVoted   Code = "ALREADY_VOTED"

	// Cards
	CodeCardsEmpty        Code = "CARDS_EMPTY"
	CodeCardsNotInHand    Code = "CARDS_NOT_IN_HAND"
	CodeCardsNotSameRank  Code = "CARDS_NOT_SAME_RANK"
	CodeCardCountMismatch Code = "CARD_COUNT_MISMATCH"
	CodeCardsTooWeak      Code = "CARDS_TOO_WEAK"

	// Selection
	CodeInvalidRole       Code = "INVALID_ROLE"
	CodeRoleClaimed       Code = "ROLE_CLAIMED"
	CodeRoleAlreadyChosen Code = "ROLE_ALREADY_CHOSEN"
	CodeInvalidDeckIndex  Code = "INVALID_DECK_INDEX"
	CodeDeckClaimed       Code = "DECK_CLAIMED"
	CodeNoDoubleJoker     Code = "NO_DOUBLE_JOKER"

	// Transport
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeUnauthorized   Code = "UNAUTHORIZED"

	// Infrastructure
	CodeRoomBusy         Code = "ROOM_BUSY"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)

// Infrastructure reports whether the code describes a service failure
// rather than an invalid player action.
func (c Code) Infrastructure() bool {
	switch c {
	case CodeRoomBusy, CodeStoreUnavailable, CodeInternal:
		return true
	}
	return false
}

// HTTPStatus maps a code to the status the transport responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeGameNotFound, CodePlayerNotFound:
		return http.StatusNotFound
	case CodeDuplicateRoom:
		return http.StatusConflict
	case CodeNotOwner, CodeNotYourTurn:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeInvalidRequest,
		CodeInvalidNickname,
		CodeCardsEmpty,
		CodeCardsNotInHand,
		CodeCardsNotSameRank,
		CodeCardCountMismatch,
		CodeCardsTooWeak,
		CodeInvalidRole,
		CodeInvalidDeckIndex:
		return http.StatusBadRequest
	case CodeRoomBusy:
		return http.StatusTooManyRequests
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case CodeInternal:
		return http.StatusInternalServerError
	}
	// Everything else is a state precondition.
	return http.StatusConflict
}

// Error is the typed error returned by every game command.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
