package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	barWidth       = 40
	renderInterval = 100 * time.Millisecond
)

// Bar is a terminal progress bar for record classification. It writes to
// stderr so report output on stdout stays clean.
type Bar struct {
	total       int64
	current     int64
	startTime   time.Time
	lastRender  time.Time
	output      io.Writer
	enabled     bool
	description string
}

// NewBar creates an enabled bar over total records.
func NewBar(total int64, description string) *Bar {
	now := time.Now()
	return &Bar{
		total:       total,
		startTime:   now,
		lastRender:  now,
		output:      os.Stderr,
		enabled:     true,
		description: description,
	}
}

// ForRecords returns a constructor suitable for collection.WithProgress.
// Inputs below minRecords get a silent bar.
func ForRecords(w io.Writer, minRecords int64) func(total int64) *Bar {
	return func(total int64) *Bar {
		b := NewBar(total, "Classifying records")
		if w != nil {
			b.output = w
		}
		if total < minRecords {
			b.enabled = false
		}
		return b
	}
}

// Disable silences the bar.
func (b *Bar) Disable() {
	b.enabled = false
}

// Set moves the bar to n processed records.
func (b *Bar) Set(n int64) {
	b.current = n
	b.render(false)
}

// Finish draws the completed bar and ends the line.
func (b *Bar) Finish() {
	if !b.enabled {
		return
	}
	b.current = b.total
	b.render(true)
	fmt.Fprint(b.output, "\n")
}

func (b *Bar) render(force bool) {
	if !b.enabled {
		return
	}
	now := time.Now()
	if !force && now.Sub(b.lastRender) < renderInterval && b.current < b.total {
		return
	}
	b.lastRender = now

	var fraction float64
	if b.total > 0 {
		fraction = float64(b.current) / float64(b.total)
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	elapsed := now.Sub(b.startTime)
	line := fmt.Sprintf("[%s] %d/%d records (%.1f%%) %s",
		bar, b.current, b.total, fraction*100, formatDuration(elapsed))
	if b.description != "" {
		line = b.description + " " + line
	}
	if rate := b.rate(elapsed); rate > 0 && b.current < b.total {
		remaining := time.Duration(float64(b.total-b.current) / rate * float64(time.Second))
		line += " eta " + formatDuration(remaining)
	}
	fmt.Fprint(b.output, "\r"+line)
}

// rate is records per second so far.
func (b *Bar) rate(elapsed time.Duration) float64 {
	if b.current == 0 || elapsed <= 0 {
		return 0
	}
	return float64(b.current) / elapsed.Seconds()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
