package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/weather"
)

func TestWriteText(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})
	r.Weather = []weather.Result{
		{Sample: weather.Sample{Time: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), Position: geo.Position{Latitude: 48.86, Longitude: 2.35}},
			Observation: weather.Observation{TemperatureC: 9.4, WeatherCode: 61}},
		{Sample: weather.Sample{Time: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}, NoData: true},
	}

	var buf bytes.Buffer
	WriteText(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"g5trace analysis: relayed.json",
		"Total messages: 4",
		"Time series (1 min)",
		"2024-03-14 10:00",
		"aa:00:00:00:00:0a",
		"station 42 seq 1: 2 hop(s), path 42 > 101",
		"2 hop(s): 1 event(s)",
		"station 42: 73 m",
		"0-200",
		"2024-03-14 (48.8600000, 2.3500000): 9.4 C, code 61",
		"2024-03-15 (0.0000000, 0.0000000): no data",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteTextEmpty(t *testing.T) {
	c := collection.New("empty.json", nil)
	r, err := Build(t.Context(), c, dissemination.New(c), Options{BucketMinutes: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteText(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "(no timestamped messages)")
	assert.Contains(t, out, "(no DENM events)")
	assert.Contains(t, out, "(no DENM matched a CAM of its station)")
	assert.NotContains(t, out, "Weather")
}

func TestWritePassagesVerbose(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})
	var buf bytes.Buffer
	WritePassages(&buf, r.Passages, true)
	out := buf.String()
	assert.Contains(t, out, "frame 2 rhl 5 sn 1 from aa:00:00:00:00:42 (relay 42)")
	assert.Contains(t, out, "frame 4 rhl 4 sn 2 from aa:00:00:00:00:0a (relay 101)")
}

func TestWriteEventHops(t *testing.T) {
	c := relayedEvent()
	var buf bytes.Buffer
	WriteEventHops(&buf, dissemination.New(c).RepetitionDistribution())
	assert.Equal(t, "  station 42\n    seq 1: 1 {42:1 101:1}\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.Contains(t, buf.String(), "\n  \"run_id\"", "indented output")

	var decoded AnalysisReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, r.Statistics, decoded.Statistics)
	assert.Equal(t, r.Furthest, decoded.Furthest)
	assert.Equal(t, r.Traffic, decoded.Traffic)
	assert.Equal(t, r.HopHistogram, decoded.HopHistogram)
}

func TestWriteJSONFile(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSONFile(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "relayed.json", decoded["source"])
	assert.Contains(t, decoded, "distance_distribution")
}

func TestWriteCBOR(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})

	var buf bytes.Buffer
	require.NoError(t, WriteCBOR(&buf, r))

	var decoded AnalysisReport
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, r.Statistics, decoded.Statistics)
	assert.Equal(t, r.HopHistogram, decoded.HopHistogram)
	require.Len(t, decoded.Passages, 1)
	assert.Equal(t, r.Passages[0].Path, decoded.Passages[0].Path)
	assert.Equal(t, r.Distribution.Total, decoded.Distribution.Total)
	require.NotNil(t, decoded.FirstSeen)
	assert.True(t, r.FirstSeen.Equal(*decoded.FirstSeen))
}

func TestWriteCBORFileDeterministic(t *testing.T) {
	r := buildReport(t, Options{BucketMinutes: 1})
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.cbor"), filepath.Join(dir, "b.cbor")
	require.NoError(t, WriteCBORFile(a, r))
	require.NoError(t, WriteCBORFile(b, r))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTimeSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "series.csv")
	buckets := []collection.TimeBucket{
		{Start: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), CAM: 3, DENM: 1},
		{Start: time.Date(2024, 3, 14, 10, 15, 0, 0, time.UTC), Other: 2},
	}
	require.NoError(t, WriteTimeSeriesCSV(path, buckets))
	assert.Equal(t, [][]string{
		{"Start", "CAM", "DENM", "Other"},
		{"2024-03-14T10:00:00Z", "3", "1", "0"},
		{"2024-03-14T10:15:00Z", "0", "0", "2"},
	}, readCSV(t, path))
}

func TestWriteDistributionCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.csv")
	d := dissemination.Distribution{Total: 4, Width: 200, Buckets: []dissemination.Bucket{
		{Label: "0-200", Lower: 0, Upper: 200, Count: 3, Percentage: 75},
		{Label: "200-400", Lower: 200, Upper: 400},
		{Label: "400-600", Lower: 400, Upper: 600, Count: 1, Percentage: 25},
	}}
	require.NoError(t, WriteDistributionCSV(path, d))

	rows := readCSV(t, path)
	require.Len(t, rows, 4, "empty buckets are written")
	assert.Equal(t, []string{"200-400", "200", "400", "0", "0.00"}, rows[2])
	assert.True(t, strings.HasPrefix(rows[3][0], "400"))
}
