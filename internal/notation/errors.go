package notation

import (
	"errors"
	"fmt"

	"github.com/hailam/tungsten/internal/board"
)

// Sentinel errors. Use these with errors.Is().
var (
	// ErrIllegalReplayMove indicates a move whose source square is empty in
	// the replayed position. Callers are expected to pass legal sequences, so
	// this is a contract violation rather than a recoverable condition.
	ErrIllegalReplayMove = errors.New("illegal move in replay")

	// ErrInvalidSAN indicates text that does not name a legal move.
	ErrInvalidSAN = errors.New("invalid SAN")

	// ErrAmbiguousSAN indicates text that matches more than one legal move.
	ErrAmbiguousSAN = errors.New("ambiguous SAN")
)

// ReplayError wraps an error with the ply at which a game replay failed.
type ReplayError struct {
	Err  error      // The underlying error
	Ply  int        // 1-based ply within the move sequence
	Move board.Move // The move being rendered
}

// Error returns the message with ply and move context.
func (e *ReplayError) Error() string {
	return fmt.Sprintf("ply %d, move %s: %v", e.Ply, e.Move, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReplayError) Unwrap() error {
	return e.Err
}
