package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/g5trace/internal/message"
	"github.com/tturner/g5trace/internal/message/fixtures"
)

func TestBucketStart(t *testing.T) {
	at := time.Date(2024, 3, 14, 10, 47, 31, 500, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 47, 0, 0, time.UTC), BucketStart(at, 1))
	assert.Equal(t, time.Date(2024, 3, 14, 10, 45, 0, 0, time.UTC), BucketStart(at, 15))
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), BucketStart(at, 60))
	assert.Equal(t, time.Date(2024, 3, 14, 10, 47, 0, 0, time.UTC), BucketStart(at, 0))
}

func TestTimeSeries(t *testing.T) {
	c := New("mem", mixedCapture())

	series := c.TimeSeries(15)
	require.Len(t, series, 2)
	assert.Equal(t, TimeBucket{Start: series[0].Start, CAM: 1, DENM: 1, Other: 2}, series[0])
	assert.Equal(t, TimeBucket{Start: series[1].Start, CAM: 1}, series[1])
	assert.True(t, series[0].Start.Before(series[1].Start))

	total := 0
	for _, b := range c.TimeSeries(1) {
		total += b.CAM + b.DENM + b.Other
	}
	assert.Equal(t, c.Len()-1, total, "invalid timestamps are excluded")
}

func TestTimeSeriesZoneAbbreviation(t *testing.T) {
	var msgs []message.Message
	for i, raw := range []string{
		"Mar 14, 2024 10:15:30.000000000 CET",
		"Mar 14, 2024 10:15:40.000000000 CET",
		"Mar 14, 2024 10:16:05.000000000 CET",
	} {
		m := fixtures.Frame(i+1, "aa:00:00:00:00:01", message.BroadcastAddress, fixtures.Epoch, "eth", "ethertype", "arp")
		at, err := message.ParseCaptureTime(raw)
		require.NoError(t, err)
		m.RawTime, m.CaptureTime = raw, at
		msgs = append(msgs, m)
	}
	c := New("mem", msgs)

	series := c.TimeSeries(1)
	require.Len(t, series, 2)
	assert.Equal(t, 2, series[0].Other)
	assert.Equal(t, 1, series[1].Other)
	assert.Len(t, c.TimeSeries(15), 1)
}

func TestTraffic(t *testing.T) {
	c := New("mem", mixedCapture())

	src := c.TrafficBySource()
	assert.Equal(t, 3, src["aa:00:00:00:00:01"])
	assert.Equal(t, 1, src["aa:00:00:00:00:04"])

	dst := c.TrafficByDestination()
	assert.Equal(t, 5, dst["ff:ff:ff:ff:ff:ff"])

	detail := c.TrafficDetail()
	assert.Equal(t, TrafficCounts{Total: 3, CAM: 2, Other: 1}, detail["aa:00:00:00:00:01"])
	assert.Equal(t, TrafficCounts{Total: 1, DENM: 1}, detail["aa:00:00:00:00:02"])

	order := SortedAddresses(src)
	assert.Equal(t, "aa:00:00:00:00:01", order[0])
	assert.Len(t, order, 4)
}
