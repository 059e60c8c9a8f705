package thread

import (
	"errors"
	"fmt"
)

// Sentinel outcomes. The gateway maps these to transport responses; they are
// never fatal to the process.
var (
	// ErrPayloadNotFound means no candidate blob contained the requested
	// post's code. Usually a fetch or timing problem, not a parse problem.
	ErrPayloadNotFound = errors.New("no data blob contains the requested post")

	// ErrThreadNotFound means a plausible data blob was located but the
	// requested post code never appeared among its items. Indicates a schema
	// shift or a wrong-blob match.
	ErrThreadNotFound = errors.New("post not present in located data blob")

	// ErrEnrichmentUnavailable marks a classifier failure for one record.
	ErrEnrichmentUnavailable = errors.New("sentiment enrichment unavailable")

	// ErrBadURL means a post code could not be parsed from the input URL.
	ErrBadURL = errors.New("post code missing from url")
)

// ExtractError wraps a sentinel with the post code and pipeline stage for
// boundary logging.
type ExtractError struct {
	Stage   string
	Code    string
	Wrapped error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %s (code=%q)", e.Stage, e.Wrapped, e.Code)
}

func (e *ExtractError) Unwrap() error { return e.Wrapped }

func extractError(stage, code string, wrapped error) *ExtractError {
	return &ExtractError{Stage: stage, Code: code, Wrapped: wrapped}
}
