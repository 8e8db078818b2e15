package message

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/tturner/g5trace/internal/errors"
)

// Layouts tshark and earlier exports use for frame.time, most specific first.
var captureTimeLayouts = []string{
	"Jan _2, 2006 15:04:05.999999999 MST",
	"Jan _2, 2006 15:04:05.999999999 -0700",
	"Jan _2, 2006 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Newer tshark releases spell the zone out ("Central European Summer Time").
var longZoneTime = regexp.MustCompile(`^([A-Z][a-z]{2}\s+\d{1,2}, \d{4} \d{2}:\d{2}:\d{2}(?:\.\d+)?)\s+[A-Za-z][A-Za-z ]+$`)

// ParseCaptureTime parses a frame.time value. On failure it returns the zero
// time, which Frame.HasTime reports as invalid, and ErrUnparsableTimestamp.
func ParseCaptureTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", errors.ErrUnparsableTimestamp)
	}
	for _, layout := range captureTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if m := longZoneTime.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("Jan _2, 2006 15:04:05.999999999", m[1]); err == nil {
			return t, nil
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil && !t.IsZero() {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errors.ErrUnparsableTimestamp, raw)
}
