package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPass is returned when a pass name does not exist in the pipeline.
	ErrUnknownPass = errors.New("unknown pass")
	// ErrInvalidInsertMode is returned for a mode other than Before or After.
	ErrInvalidInsertMode = errors.New("invalid insert mode")
)

// MissingResultError reports a pass whose dependency has not been produced.
type MissingResultError struct {
	Key string
	// Pass is empty when the result was looked up outside a pipeline run.
	Pass string
}

func (e *MissingResultError) Error() string {
	if e.Pass == "" {
		return fmt.Sprintf("Key '%s' is not present in results", e.Key)
	}
	return fmt.Sprintf("Key '%s' is required by %s", e.Key, e.Pass)
}

// DuplicateResultError reports a pass writing a key that already exists.
type DuplicateResultError struct {
	Key string
}

func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("result '%s' is already present", e.Key)
}
