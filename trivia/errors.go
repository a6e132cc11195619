/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrNotFound          = errors.New("game not found")
	ErrUnauthorized      = errors.New("not the host of this game")
	ErrStale             = errors.New("question is no longer active")
	ErrDuplicateAnswer   = errors.New("answer already submitted")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrCodeSpace         = errors.New("unable to allocate game code")
)

// eventError carries a player-facing message alongside its error class.
type eventError struct {
	kind error
	msg  string
}

func (e *eventError) Error() string {
	return e.kind.Error() + ": " + e.msg
}

func (e *eventError) Unwrap() error {
	return e.kind
}

func failf(kind error, format string, args ...any) error {
	return &eventError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// publicMessage returns the text safe to show the originating client.
func publicMessage(err error) string {
	var e *eventError
	if errors.As(err, &e) {
		return e.msg
	}

	return err.Error()
}
