package etl

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every stage wraps its cause with one of these so callers
// can classify a failure with errors.Is. None of them is retried.
var (
	ErrNetwork       = errors.New("network error")
	ErrParse         = errors.New("parse error")
	ErrFormat        = errors.New("format error")
	ErrMissingColumn = errors.New("missing column")
	ErrIO            = errors.New("io error")
	ErrQuery         = errors.New("query error")
)

// StageError records the last state a run reached before it aborted.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline aborted after %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
