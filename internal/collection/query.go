package collection

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
)

// Page returns page pageNumber (1-indexed) of pageSize messages. Pages
// outside the collection are empty, never an error.
func (c *Collection) Page(pageNumber, pageSize int) []message.Message {
	if pageNumber < 1 || pageSize < 1 {
		return []message.Message{}
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(c.messages) {
		return []message.Message{}
	}
	end := start + pageSize
	if end > len(c.messages) {
		end = len(c.messages)
	}
	out := make([]message.Message, end-start)
	copy(out, c.messages[start:end])
	return out
}

// TotalPages returns the number of pages of pageSize messages.
func (c *Collection) TotalPages(pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (len(c.messages) + pageSize - 1) / pageSize
}

// ByKind returns the messages whose kind is exactly k.
func (c *Collection) ByKind(k message.Kind) []message.Message {
	return c.filter(func(m message.Message) bool { return m.Kind == k })
}

// WithinRadius returns messages positioned within radiusKm of (lat, lon).
// Plain frames carry no position and are never returned.
func (c *Collection) WithinRadius(lat, lon, radiusKm float64) []message.Message {
	center := geo.Position{Latitude: lat, Longitude: lon}
	return c.filter(func(m message.Message) bool {
		p, ok := m.Position()
		return ok && geo.Within(center, p, radiusKm)
	})
}

// Search returns messages whose summary matches the regular expression.
func (c *Collection) Search(pattern string) ([]message.Message, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}
	return c.filter(func(m message.Message) bool { return re.MatchString(m.Summary()) }), nil
}

// TimeRange returns the earliest and latest valid capture times. ok is false
// when no message has a valid time.
func (c *Collection) TimeRange() (first, last time.Time, ok bool) {
	for _, m := range c.messages {
		if !m.HasTime() {
			continue
		}
		if !ok || m.CaptureTime.Before(first) {
			first = m.CaptureTime
		}
		if !ok || m.CaptureTime.After(last) {
			last = m.CaptureTime
		}
		ok = true
	}
	return first, last, ok
}

// BySourceAddress returns messages sent from addr.
func (c *Collection) BySourceAddress(addr string) []message.Message {
	return c.filter(func(m message.Message) bool { return m.SourceAddress == addr })
}

// ByDestinationAddress returns messages sent to addr.
func (c *Collection) ByDestinationAddress(addr string) []message.Message {
	return c.filter(func(m message.Message) bool { return m.DestinationAddress == addr })
}

// ByTime returns the first message captured exactly at t.
func (c *Collection) ByTime(t time.Time) (message.Message, bool) {
	for _, m := range c.messages {
		if m.HasTime() && m.CaptureTime.Equal(t) {
			return m, true
		}
	}
	return message.Message{}, false
}

// Between returns messages captured in [start, end]. Messages without a
// valid time are excluded.
func (c *Collection) Between(start, end time.Time) []message.Message {
	return c.filter(func(m message.Message) bool {
		return m.HasTime() && !m.CaptureTime.Before(start) && !m.CaptureTime.After(end)
	})
}

// Kinds returns the distinct kinds present, in display order.
func (c *Collection) Kinds() []message.Kind {
	present := make(map[message.Kind]bool)
	for _, m := range c.messages {
		present[m.Kind] = true
	}
	var out []message.Kind
	for _, k := range message.Kinds {
		if present[k] {
			out = append(out, k)
		}
	}
	return out
}

// FirstPosition returns the position of the first positioned message.
func (c *Collection) FirstPosition() (geo.Position, bool) {
	for _, m := range c.messages {
		if p, ok := m.Position(); ok {
			return p, true
		}
	}
	return geo.Position{}, false
}

// DENMStations returns the distinct originating stations of DENM messages,
// sorted ascending.
func (c *Collection) DENMStations() []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, m := range c.messages {
		if m.Kind != message.KindDENM || seen[m.DENM.OriginatingStationID] {
			continue
		}
		seen[m.DENM.OriginatingStationID] = true
		out = append(out, m.DENM.OriginatingStationID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Collection) filter(keep func(message.Message) bool) []message.Message {
	out := []message.Message{}
	for _, m := range c.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
