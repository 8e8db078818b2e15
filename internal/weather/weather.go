// Package weather looks up historical weather at CAM positions from the
// open-meteo ERA5 archive. Lookups are best effort: any failure degrades to
// "no data" for that sample.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tturner/g5trace/internal/errors"
	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/logging"
	"github.com/tturner/g5trace/internal/message"
)

// DefaultBaseURL is the open-meteo ERA5 archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/era5"

const (
	serviceName          = "open-meteo"
	defaultTimeout       = 10 * time.Second
	defaultMaxConcurrent = 4
	hourLayout           = "2006-01-02T15:04"
	dateLayout           = "2006-01-02"
)

// Sample is one position and time to look up.
type Sample struct {
	Time     time.Time    `json:"time"`
	Position geo.Position `json:"position"`
}

// Date is the UTC calendar day of the sample.
func (s Sample) Date() string {
	return s.Time.UTC().Format(dateLayout)
}

// Observation is the archived hour closest to a sample.
type Observation struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature_c"`
	WeatherCode  int       `json:"weather_code"`
}

// Result pairs a sample with its observation. NoData is set when the lookup
// failed; Err then holds the cause.
type Result struct {
	Sample      Sample      `json:"sample"`
	Observation Observation `json:"observation"`
	NoData      bool        `json:"no_data"`
	Err         error       `json:"-" cbor:"-"`
}

// Observer counts lookup outcomes; internal/metrics implements it.
type Observer interface {
	WeatherLookup(outcome string)
}

// Client queries the archive.
type Client struct {
	baseURL       string
	http          *http.Client
	timeout       time.Duration
	maxConcurrent int
	logger        *logging.Logger
	observer      Observer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the archive endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxConcurrent bounds the number of requests in flight in Collect.
func WithMaxConcurrent(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithLogger logs failed lookups.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver reports lookup outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		http:          http.DefaultClient,
		timeout:       defaultTimeout,
		maxConcurrent: defaultMaxConcurrent,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type archiveResponse struct {
	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		WeatherCode []*int     `json:"weathercode"`
	} `json:"hourly"`
}

// Lookup fetches the archived hour closest to s. Failures are returned as
// *errors.ExternalLookupFailure.
func (c *Client) Lookup(ctx context.Context, s Sample) (Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(s), nil)
	if err != nil {
		return Observation{}, &errors.ExternalLookupFailure{Service: serviceName, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Observation{}, &errors.ExternalLookupFailure{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Observation{}, &errors.ExternalLookupFailure{Service: serviceName, StatusCode: resp.StatusCode}
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Observation{}, &errors.ExternalLookupFailure{Service: serviceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	obs, ok := closestHour(body, s.Time)
	if !ok {
		return Observation{}, &errors.ExternalLookupFailure{Service: serviceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("no hourly data for %s", s.Date())}
	}
	return obs, nil
}

func (c *Client) requestURL(s Sample) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(s.Position.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(s.Position.Longitude, 'f', 4, 64))
	q.Set("start_date", s.Date())
	q.Set("end_date", s.Time.UTC().AddDate(0, 0, 1).Format(dateLayout))
	q.Set("hourly", "temperature_2m,weathercode")
	return c.baseURL + "?" + q.Encode()
}

// closestHour picks the hourly entry nearest to at that has a temperature.
func closestHour(body archiveResponse, at time.Time) (Observation, bool) {
	h := body.Hourly
	var best Observation
	var bestDiff time.Duration
	found := false
	for i, raw := range h.Time {
		if i >= len(h.Temperature) || h.Temperature[i] == nil {
			continue
		}
		ts, err := time.Parse(hourLayout, raw)
		if err != nil {
			continue
		}
		diff := ts.Sub(at.UTC())
		if diff < 0 {
			diff = -diff
		}
		if found && diff >= bestDiff {
			continue
		}
		best = Observation{Time: ts, TemperatureC: *h.Temperature[i]}
		if i < len(h.WeatherCode) && h.WeatherCode[i] != nil {
			best.WeatherCode = *h.WeatherCode[i]
		}
		bestDiff, found = diff, true
	}
	return best, found
}

// Collect looks up every sample with at most the configured number of
// requests in flight. It never fails: a failed sample is returned with
// NoData set. Results keep the order of samples.
func (c *Client) Collect(ctx context.Context, samples []Sample) []Result {
	results := make([]Result, len(samples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, s := range samples {
		g.Go(func() error {
			obs, err := c.Lookup(ctx, s)
			results[i] = Result{Sample: s, Observation: obs}
			if err != nil {
				results[i].NoData = true
				results[i].Err = err
				c.logger.Info("Weather for %s at %s unavailable: %v", s.Date(), s.Position, err)
				c.observe("no_data")
				return nil
			}
			c.observe("ok")
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) observe(outcome string) {
	if c.observer != nil {
		c.observer.WeatherLookup(outcome)
	}
}

// SamplesFrom derives one sample per distinct (day, position rounded to
// 0.01°) from the CAMs with a valid capture time, in capture order.
func SamplesFrom(msgs []message.Message) []Sample {
	type key struct {
		date     string
		lat, lon float64
	}
	seen := make(map[key]bool)
	var out []Sample
	for _, m := range msgs {
		if m.Kind != message.KindCAM || !m.HasTime() {
			continue
		}
		p := geo.FromFixed(m.CAM.Latitude, m.CAM.Longitude)
		s := Sample{
			Time:     m.CaptureTime,
			Position: geo.Position{Latitude: round2(p.Latitude), Longitude: round2(p.Longitude)},
		}
		k := key{date: s.Date(), lat: s.Position.Latitude, lon: s.Position.Longitude}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Available returns the results that carry an observation, sorted by time.
func Available(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.NoData {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sample.Time.Before(out[j].Sample.Time) })
	return out
}
