package weather

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/g5trace/internal/errors"
	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
	"github.com/tturner/g5trace/internal/message/fixtures"
)

const archiveBody = `{
  "latitude": 48.86,
  "longitude": 2.35,
  "hourly": {
    "time": ["2024-03-14T09:00", "2024-03-14T10:00", "2024-03-14T11:00", "2024-03-14T12:00"],
    "temperature_2m": [8.1, 9.4, null, 11.0],
    "weathercode": [3, 61, 61, 2]
  }
}`

func sample(hour, minute int) Sample {
	return Sample{
		Time:     time.Date(2024, 3, 14, hour, minute, 0, 0, time.UTC),
		Position: geo.Position{Latitude: 48.86, Longitude: 2.35},
	}
}

func TestLookupClosestHour(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, archiveBody)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	obs, err := c.Lookup(context.Background(), sample(10, 20))
	require.NoError(t, err)
	assert.Equal(t, 9.4, obs.TemperatureC)
	assert.Equal(t, 61, obs.WeatherCode)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), obs.Time)

	for _, want := range []string{"latitude=48.8600", "longitude=2.3500", "start_date=2024-03-14", "end_date=2024-03-15", "hourly=temperature_2m%2Cweathercode"} {
		assert.Contains(t, query, want)
	}

	// 11:00 has no temperature; 11:40 falls back to 12:00
	obs, err = c.Lookup(context.Background(), sample(11, 40))
	require.NoError(t, err)
	assert.Equal(t, 11.0, obs.TemperatureC)
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, http.StatusInternalServerError},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, http.StatusTooManyRequests},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "{not json")
		}, http.StatusOK},
		{"no hourly data", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"hourly": {"time": [], "temperature_2m": []}}`)
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).Lookup(context.Background(), sample(10, 0))
			var lf *errors.ExternalLookupFailure
			require.True(t, stderrors.As(err, &lf), "got %v", err)
			assert.Equal(t, "open-meteo", lf.Service)
			assert.Equal(t, tt.status, lf.StatusCode)
		})
	}
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond)).Lookup(context.Background(), sample(10, 0))
	var lf *errors.ExternalLookupFailure
	require.True(t, stderrors.As(err, &lf))
	assert.Less(t, time.Since(start), 5*time.Second)
}

type outcomes struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *outcomes) WeatherLookup(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[outcome]++
}

func TestCollectDegradesAndBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		if strings.Contains(r.URL.RawQuery, "start_date=2024-03-15") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, archiveBody)
	}))
	defer srv.Close()

	samples := []Sample{sample(10, 0), sample(9, 0), sample(12, 0)}
	bad := sample(10, 0)
	bad.Time = bad.Time.AddDate(0, 0, 1)
	samples = append(samples, bad, sample(11, 50), sample(9, 10))

	obs := &outcomes{counts: make(map[string]int)}
	c := NewClient(WithBaseURL(srv.URL), WithMaxConcurrent(2), WithObserver(obs))
	results := c.Collect(context.Background(), samples)

	require.Len(t, results, len(samples))
	for i, r := range results {
		assert.Equal(t, samples[i], r.Sample, "results keep sample order")
	}
	assert.True(t, results[3].NoData)
	assert.Error(t, results[3].Err)
	assert.False(t, results[0].NoData)
	assert.Equal(t, 9.4, results[0].Observation.TemperatureC)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, map[string]int{"ok": 5, "no_data": 1}, obs.counts)
	assert.Len(t, Available(results), 5)
}

func TestCollectUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	results := NewClient(WithBaseURL(url)).Collect(context.Background(), []Sample{sample(10, 0)})
	require.Len(t, results, 1)
	assert.True(t, results[0].NoData)
	assert.Empty(t, Available(results))
}

func TestSamplesFrom(t *testing.T) {
	at := fixtures.Epoch
	msgs := []message.Message{
		fixtures.CAM(fixtures.CAMFields{Frame: 1, Source: "a", At: at, StationID: 1, Lat: 48.8566, Lon: 2.3522}),
		fixtures.CAM(fixtures.CAMFields{Frame: 2, Source: "a", At: at.Add(time.Minute), StationID: 1, Lat: 48.8571, Lon: 2.3519}),
		fixtures.CAM(fixtures.CAMFields{Frame: 3, Source: "b", At: at.Add(2 * time.Minute), StationID: 2, Lat: 48.9, Lon: 2.4}),
		fixtures.CAM(fixtures.CAMFields{Frame: 4, Source: "a", At: at.AddDate(0, 0, 1), StationID: 1, Lat: 48.8566, Lon: 2.3522}),
		fixtures.CAM(fixtures.CAMFields{Frame: 5, Source: "a", At: time.Time{}, StationID: 1, Lat: 10, Lon: 10}),
		fixtures.DENM(fixtures.DENMFields{Frame: 6, Source: "a", At: at, Origin: 1, Lat: 30, Lon: 30}),
	}
	samples := SamplesFrom(msgs)
	require.Len(t, samples, 3)
	assert.Equal(t, geo.Position{Latitude: 48.86, Longitude: 2.35}, samples[0].Position)
	assert.Equal(t, "2024-03-14", samples[0].Date())
	assert.Equal(t, geo.Position{Latitude: 48.9, Longitude: 2.4}, samples[1].Position)
	assert.Equal(t, "2024-03-15", samples[2].Date())
}
