package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapLoadError wraps export loading errors with user-friendly context
func WrapLoadError(err error, path string) error {
	if err == nil {
		return nil
	}

	var notFound *NotFoundError
	if stderrors.As(err, &notFound) {
		return UserFriendlyError{
			Message: fmt.Sprintf("Capture export not found: %s", path),
			Reason:  "The path does not exist or is not readable",
			Hint:    "Exports are produced from .pcap files with tshark",
			Try:     fmt.Sprintf("g5trace export --input capture.pcap --output %s", path),
			Err:     err,
		}
	}

	var format *FormatError
	if stderrors.As(err, &format) {
		return UserFriendlyError{
			Message: fmt.Sprintf("Capture export is not usable: %s", path),
			Reason:  format.Reason,
			Hint:    "The file must be the JSON array written by 'tshark -T json'",
			Try:     "Re-export the capture: g5trace export --input capture.pcap",
			Err:     err,
		}
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to load capture export %s", path),
		Reason:  extractLoadReason(err),
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Write a fresh default file and compare",
		Try:     "g5trace config --output g5trace.default.yaml",
		Err:     err,
	}
}

func extractLoadReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - the export is not readable by this user"
	}
	if strings.Contains(errStr, "is a directory") {
		return "The path is a directory, not an export file"
	}

	return "Reading the export failed"
}
