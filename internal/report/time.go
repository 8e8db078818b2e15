package report

import "time"

// FormatTimestamp returns a RFC3339 UTC timestamp string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// formatCaptureTime renders a capture time, or "invalid" for the zero time.
func formatCaptureTime(t time.Time) string {
	if t.IsZero() {
		return "invalid"
	}
	return t.UTC().Format("2006-01-02 15:04:05.000")
}
