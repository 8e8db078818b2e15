// Package collection loads a tshark JSON export into an ordered, immutable
// set of classified messages and answers read-only queries over it.
//
// A Collection is built once by Load or Decode and never mutated afterwards,
// so any number of analyses may read it concurrently without locking.
package collection

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tturner/g5trace/internal/errors"
	"github.com/tturner/g5trace/internal/logging"
	"github.com/tturner/g5trace/internal/message"
)

// Observer receives load events; internal/metrics implements it.
type Observer interface {
	RecordLoaded(kind message.Kind)
	RecordSkipped(err error)
	InvalidTimestamp()
	LoadFinished(elapsed time.Duration)
}

// Progress is a progress indicator for record classification.
type Progress interface {
	Set(n int64)
	Finish()
}

type loadOptions struct {
	logger      *logging.Logger
	observer    Observer
	newProgress func(total int64) Progress
}

// Option configures Load and Decode.
type Option func(*loadOptions)

// WithLogger routes skip and summary messages to logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// WithObserver reports load events to obs.
func WithObserver(obs Observer) Option {
	return func(o *loadOptions) { o.observer = obs }
}

// WithProgress shows classification progress. newProgress is called once
// the record count is known.
func WithProgress(newProgress func(total int64) Progress) Option {
	return func(o *loadOptions) { o.newProgress = newProgress }
}

// Collection is the ordered set of messages of one capture, in capture order.
type Collection struct {
	source   string
	messages []message.Message
	byFrame  map[int]int
	skipped  []error
}

// Statistics counts messages per kind. Other covers plain frames, so
// CAM+DENM+GeoNetworking+Other == Total.
type Statistics struct {
	Total         int `json:"total"`
	CAM           int `json:"cam"`
	DENM          int `json:"denm"`
	GeoNetworking int `json:"geonetworking"`
	Other         int `json:"other"`
}

// Load reads the export at path. A missing path is a *errors.NotFoundError;
// content that is not a list of decoded records is a *errors.FormatError.
// Individual malformed records are skipped and reported through Skipped.
func Load(path string, opts ...Option) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, &errors.NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &errors.FormatError{Path: path, Reason: "is a directory"}
	}
	return Decode(bufio.NewReader(f), path, opts...)
}

type exportElement struct {
	Source *struct {
		Layers message.Tree `json:"layers"`
	} `json:"_source"`
}

// Decode reads an export from r. source names the input in errors and logs.
func Decode(r io.Reader, source string, opts ...Option) (*Collection, error) {
	o := loadOptions{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	dec := json.NewDecoder(r)
	var elements []json.RawMessage
	if err := dec.Decode(&elements); err != nil {
		return nil, formatError(source, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &errors.FormatError{Path: source, Reason: "trailing data after the record list", Err: err}
	}
	if elements == nil {
		return nil, &errors.FormatError{Path: source, Reason: "top-level content is not a list of decoded records"}
	}

	c := &Collection{
		source:   source,
		messages: make([]message.Message, 0, len(elements)),
		byFrame:  make(map[int]int, len(elements)),
	}

	var bar Progress
	if o.newProgress != nil {
		bar = o.newProgress(int64(len(elements)))
	}

	invalidTimes := 0
	for i, raw := range elements {
		msg, err := decodeElement(i, raw)
		if err == nil {
			if _, dup := c.byFrame[msg.FrameNumber]; dup {
				err = &errors.MalformedRecordError{
					Index:       i,
					FrameNumber: strconv.Itoa(msg.FrameNumber),
					Kind:        msg.Kind.String(),
					Field:       "frame/frame.number",
					Reason:      "duplicate frame number",
				}
			}
		}
		if err != nil {
			c.skipped = append(c.skipped, err)
			o.logger.Info("Skipping record: %v", err)
			if o.observer != nil {
				o.observer.RecordSkipped(err)
			}
		} else {
			if !msg.HasTime() {
				invalidTimes++
				o.logger.Verbose("Frame %d: unparsable capture time %q", msg.FrameNumber, msg.RawTime)
				if o.observer != nil {
					o.observer.InvalidTimestamp()
				}
			}
			c.byFrame[msg.FrameNumber] = len(c.messages)
			c.messages = append(c.messages, msg)
			if o.observer != nil {
				o.observer.RecordLoaded(msg.Kind)
			}
		}
		if bar != nil {
			bar.Set(int64(i + 1))
		}
	}
	if bar != nil {
		bar.Finish()
	}

	elapsed := time.Since(start)
	o.logger.LogLoad(source, len(c.messages), len(c.skipped), invalidTimes, elapsed)
	if o.observer != nil {
		o.observer.LoadFinished(elapsed)
	}
	return c, nil
}

func decodeElement(index int, raw json.RawMessage) (message.Message, error) {
	var el exportElement
	if err := json.Unmarshal(raw, &el); err != nil {
		return message.Message{}, &errors.MalformedRecordError{Index: index, Field: "_source/layers", Reason: "unexpected record shape"}
	}
	if el.Source == nil || el.Source.Layers == nil {
		return message.Message{}, &errors.MalformedRecordError{Index: index, Field: "_source/layers"}
	}
	msg, err := message.Classify(el.Source.Layers)
	if err != nil {
		var m *errors.MalformedRecordError
		if stderrors.As(err, &m) {
			m.Index = index
		}
		return message.Message{}, err
	}
	return msg, nil
}

func formatError(source string, err error) error {
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntax):
		return &errors.FormatError{Path: source, Reason: fmt.Sprintf("invalid JSON at offset %d", syntax.Offset), Err: err}
	case stderrors.As(err, &typeErr):
		return &errors.FormatError{Path: source, Reason: "top-level content is not a list of decoded records", Err: err}
	case stderrors.Is(err, io.EOF):
		return &errors.FormatError{Path: source, Reason: "empty input", Err: err}
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return &errors.FormatError{Path: source, Reason: "truncated JSON", Err: err}
	}
	return &errors.FormatError{Path: source, Reason: "unreadable export", Err: err}
}

// New builds a Collection directly from classified messages, keeping the
// first message of each frame number. It is used by tests and by callers
// that classify records themselves.
func New(source string, msgs []message.Message) *Collection {
	c := &Collection{
		source:   source,
		messages: make([]message.Message, 0, len(msgs)),
		byFrame:  make(map[int]int, len(msgs)),
	}
	for i, msg := range msgs {
		if _, dup := c.byFrame[msg.FrameNumber]; dup {
			c.skipped = append(c.skipped, &errors.MalformedRecordError{
				Index:       i,
				FrameNumber: strconv.Itoa(msg.FrameNumber),
				Kind:        msg.Kind.String(),
				Field:       "frame/frame.number",
				Reason:      "duplicate frame number",
			})
			continue
		}
		c.byFrame[msg.FrameNumber] = len(c.messages)
		c.messages = append(c.messages, msg)
	}
	return c
}

// Source names the loaded input.
func (c *Collection) Source() string { return c.source }

// Len returns the number of loaded messages.
func (c *Collection) Len() int { return len(c.messages) }

// Messages returns the messages in capture order. The slice is a copy; the
// payload pointers are shared and must not be written through.
func (c *Collection) Messages() []message.Message {
	out := make([]message.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Skipped returns the errors of records excluded during load.
func (c *Collection) Skipped() []error {
	out := make([]error, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// ByFrameNumber returns the message with frame number n.
func (c *Collection) ByFrameNumber(n int) (message.Message, bool) {
	i, ok := c.byFrame[n]
	if !ok {
		return message.Message{}, false
	}
	return c.messages[i], true
}

// Statistics counts messages per kind.
func (c *Collection) Statistics() Statistics {
	s := Statistics{Total: len(c.messages)}
	for _, m := range c.messages {
		switch m.Kind {
		case message.KindCAM:
			s.CAM++
		case message.KindDENM:
			s.DENM++
		case message.KindGeoNetworking:
			s.GeoNetworking++
		}
	}
	s.Other = s.Total - s.CAM - s.DENM - s.GeoNetworking
	return s
}
