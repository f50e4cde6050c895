package board

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every FormatError.
	ErrFormat = errors.New("malformed input")
	// ErrIllegalMove matches every IllegalMoveError.
	ErrIllegalMove = errors.New("illegal move")
)

// FormatError reports malformed external input: a FEN string (Kind
// "position") or a move string (Kind "move").
type FormatError struct {
	Kind   string
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s %q: %s", e.Kind, e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IllegalMoveError reports a well-formed move that is not legal in the
// position it was applied to.
type IllegalMoveError struct {
	Move string
	FEN  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s in position %s", e.Move, e.FEN)
}

func (e *IllegalMoveError) Is(target error) bool { return target == ErrIllegalMove }

func positionError(input, format string, args ...any) *FormatError {
	return &FormatError{Kind: "position", Input: input, Reason: fmt.Sprintf(format, args...)}
}
