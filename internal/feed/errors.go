package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ConfigError indicates the ingestion cannot start at all, e.g. no
// source URL is configured. Terminal; never retried.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return e.Msg }

// RetrievalError indicates the raw CSV bytes could not be fetched.
// Retry policy lives inside the retrieval client; once this surfaces,
// the run is over.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// StructureError indicates the fetched text is not a usable CSV export
// (no header row, no data rows). Row-level anomalies never raise this.
type StructureError struct{ Err error }

func (e *StructureError) Error() string { return fmt.Sprintf("malformed export: %v", e.Err) }

func (e *StructureError) Unwrap() error { return e.Err }

// friendlyMessage converts a pipeline failure into the single
// human-readable string the dashboard shows.
func friendlyMessage(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Msg
	}
	var retErr *RetrievalError
	if errors.As(err, &retErr) {
		switch {
		case errors.Is(retErr.Err, context.Canceled):
			return "data retrieval was cancelled"
		case errors.Is(retErr.Err, context.DeadlineExceeded):
			return "data retrieval timed out"
		default:
			var netErr net.Error
			if errors.As(retErr.Err, &netErr) {
				return "the data source could not be reached"
			}
			return fmt.Sprintf("the data source returned an error: %v", retErr.Err)
		}
	}
	var structErr *StructureError
	if errors.As(err, &structErr) {
		return fmt.Sprintf("the export could not be read: %v", structErr.Err)
	}
	return err.Error()
}
