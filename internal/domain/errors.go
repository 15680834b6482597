package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or invalid coordinates and credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedSnapshot marks a payload that does not contain an asset sequence.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// StageError carries the stage a pipeline run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
