package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrUnparsableTimestamp marks a capture time that no known layout accepts.
// Messages carrying it are kept with the invalid time sentinel.
var ErrUnparsableTimestamp = stderrors.New("unparsable timestamp")

// NotFoundError reports a missing input path. Fatal to the load call.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// FormatError reports an export whose top-level content is not a list of
// decoded records, or whose syntax is invalid. Fatal to the load call.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error in %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("format error in %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports a decoded record missing a field required by
// its classified type. The record is skipped; the load continues.
type MalformedRecordError struct {
	Index       int    // position of the record in the export
	FrameNumber string // empty when the frame number itself is missing
	Kind        string
	Field       string
	Reason      string // set when the field is present but unusable
}

func (e *MalformedRecordError) Error() string {
	frame := e.FrameNumber
	if frame == "" {
		frame = "?"
	}
	kind := "record"
	if e.Kind != "" {
		kind = e.Kind + " record"
	}
	if e.Reason != "" {
		return fmt.Sprintf("malformed %s #%d (frame %s): field %s: %s", kind, e.Index, frame, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed %s #%d (frame %s): missing field %s", kind, e.Index, frame, e.Field)
}

// ExternalLookupFailure reports a failed remote lookup. Callers degrade to
// "no data" for the affected sample.
type ExternalLookupFailure struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *ExternalLookupFailure) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s lookup failed: %v", e.Service, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s lookup failed: status %d", e.Service, e.StatusCode)
	default:
		return fmt.Sprintf("%s lookup failed", e.Service)
	}
}

func (e *ExternalLookupFailure) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is (or wraps) a MalformedRecordError.
func IsMalformed(err error) bool {
	var m *MalformedRecordError
	return stderrors.As(err, &m)
}
