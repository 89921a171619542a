package game

import (
	"errors"
	"fmt"
)

// Error is a rule violation reported back to the offending client. Two
// errors match under errors.Is when their codes match.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// withMessage keeps the code and replaces the human-readable text.
func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrRoomNotFound       = &Error{Code: "ROOM_NOT_FOUND", Message: "Room not found"}
	ErrRoomFull           = &Error{Code: "ROOM_FULL", Message: "Room is full"}
	ErrAlreadyStarted     = &Error{Code: "GAME_ALREADY_STARTED", Message: "Game already in progress"}
	ErrNotEnoughPlayers   = &Error{Code: "NOT_ENOUGH_PLAYERS", Message: "Not enough players"}
	ErrNotInRoom          = &Error{Code: "NOT_IN_ROOM", Message: "You are not in this room"}
	ErrWrongPhase         = &Error{Code: "WRONG_PHASE", Message: "Action not allowed right now"}
	ErrInvalidMode        = &Error{Code: "INVALID_MODE", Message: "Unknown game mode"}
	ErrMissingField       = &Error{Code: "MISSING_FIELD", Message: "Missing required field"}
	ErrUnknownMessage     = &Error{Code: "UNKNOWN_MESSAGE", Message: "Unknown message type"}
	ErrCodeSpaceExhausted = &Error{Code: "ROOM_CODE_UNAVAILABLE", Message: "Could not allocate a room code, try again"}
)

// errorPayload renders err as the data of an outbound error event.
func errorPayload(err error) map[string]any {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return map[string]any{
			"message": gameErr.Message,
			"code":    gameErr.Code,
		}
	}
	return map[string]any{
		"message": err.Error(),
		"code":    "INTERNAL",
	}
}
