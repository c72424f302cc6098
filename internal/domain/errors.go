package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies feed failures. Every kind is recovered at the feed
// boundary and turned into a fallback value.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport" // network, timeout, non-2xx
	KindSchema    ErrorKind = "schema"    // expected fields absent or unparseable
	KindEmpty     ErrorKind = "empty"     // nothing left after filtering
)

// ErrEmptyTable is returned when metric evaluation is handed an empty table.
// The orchestrator substitutes synthetic data first, so this indicates a bug.
var ErrEmptyTable = errors.New("seismic table is empty")

// NormalizeError reports a payload that could not be turned into a reading.
type NormalizeError struct {
	Feed    string
	Kind    ErrorKind
	Message string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize %s: %s: %s", e.Feed, e.Kind, e.Message)
}

func schemaError(feed, format string, args ...any) error {
	return &NormalizeError{Feed: feed, Kind: KindSchema, Message: fmt.Sprintf(format, args...)}
}

func emptyError(feed, format string, args ...any) error {
	return &NormalizeError{Feed: feed, Kind: KindEmpty, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from a normalize error, defaulting to
// KindTransport for anything else.
func KindOf(err error) ErrorKind {
	var ne *NormalizeError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return KindTransport
}
