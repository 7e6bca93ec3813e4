package content

import (
	"errors"
	"fmt"
)

// ErrDuplicate signals that a source URL was already ingested. It is a normal
// short-circuit outcome, not a failure.
var ErrDuplicate = errors.New("source url already ingested")

// ErrNotFound signals a lookup for a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Stage identifies which pipeline stage produced an error.
type Stage string

// Pipeline stages that can fail hard.
const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageParse   Stage = "parse"
	StagePersist Stage = "persist"
)

// StageError wraps a failure with the stage it occurred in. Each stage fails
// fast; the whole URL aborts with the first StageError encountered.
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

// NewFetchError wraps a scrape failure.
func NewFetchError(err error) error {
	return &StageError{Stage: StageFetch, Err: err}
}

// NewExtractError wraps a model-stage failure.
func NewExtractError(err error) error {
	return &StageError{Stage: StageExtract, Err: err}
}

// NewParseError wraps a structured-output parse failure.
func NewParseError(err error) error {
	return &StageError{Stage: StageParse, Err: err}
}

// NewPersistError wraps a storage failure.
func NewPersistError(err error) error {
	return &StageError{Stage: StagePersist, Err: err}
}

// StageOf returns the failing stage, or "" if err is not a StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
