package collection

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
	"github.com/tturner/g5trace/internal/message/fixtures"
)

func framesCollection(n int) *Collection {
	msgs := make([]message.Message, 0, n)
	for i := 1; i <= n; i++ {
		msgs = append(msgs, fixtures.Frame(i, "aa:00:00:00:00:01", message.BroadcastAddress, fixtures.Epoch.Add(time.Duration(i)*time.Second), "eth", "ethertype", "arp"))
	}
	return New("mem", msgs)
}

func TestPagination(t *testing.T) {
	c := framesCollection(25)

	var sizes []int
	for page := 1; page <= 3; page++ {
		sizes = append(sizes, len(c.Page(page, 10)))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Empty(t, c.Page(4, 10))
	assert.NotNil(t, c.Page(4, 10))
	assert.Empty(t, c.Page(0, 10))
	assert.Empty(t, c.Page(1, 0))
	assert.Equal(t, 3, c.TotalPages(10))
	assert.Equal(t, 0, c.TotalPages(0))

	page2 := c.Page(2, 10)
	assert.Equal(t, 11, page2[0].FrameNumber)
	assert.Equal(t, 20, page2[9].FrameNumber)
}

func TestByKind(t *testing.T) {
	c := New("mem", mixedCapture())
	assert.Len(t, c.ByKind(message.KindCAM), 2)
	assert.Len(t, c.ByKind(message.KindDENM), 1)
	assert.Len(t, c.ByKind(message.KindGeoNetworking), 1)
	assert.Equal(t, []message.Kind{message.KindCAM, message.KindDENM, message.KindGeoNetworking, message.KindFrame}, c.Kinds())
}

func TestWithinRadius(t *testing.T) {
	c := New("mem", mixedCapture())

	near := c.WithinRadius(48.8566, 2.3522, 0.5)
	var frames []int
	for _, m := range near {
		frames = append(frames, m.FrameNumber)
	}
	assert.Equal(t, []int{1, 2, 5}, frames)

	all := c.WithinRadius(48.8566, 2.3522, 100)
	assert.Len(t, all, 4, "plain frames have no position")
}

func TestWithinRadiusAntipode(t *testing.T) {
	south := fixtures.GeoNetworking(1, "aa:00:00:00:00:01", fixtures.Epoch, -90, 0)
	c := New("mem", []message.Message{south})

	halfCircumference := math.Pi * geo.EarthRadiusKm
	for _, r := range []float64{0, 1, 10000, halfCircumference - 1, math.Nextafter(halfCircumference, 0)} {
		assert.Empty(t, c.WithinRadius(90, 0, r), "radius %f", r)
	}

	assert.Len(t, c.WithinRadius(-90, 0, 0), 1, "distance 0 is always within radius 0")
}

func TestSearch(t *testing.T) {
	c := New("mem", mixedCapture())

	got, err := c.Search(`Originating Station ID: 42\b`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].FrameNumber)

	got, err = c.Search("From: aa:00:00:00:00:01")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = c.Search("To: Broadcast")
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = c.Search("([")
	assert.Error(t, err)
}

func TestAddressAndTimeQueries(t *testing.T) {
	c := New("mem", mixedCapture())

	assert.Len(t, c.BySourceAddress("aa:00:00:00:00:01"), 3)
	assert.Len(t, c.ByDestinationAddress("33:33:00:00:00:16"), 1)

	m, ok := c.ByTime(fixtures.Epoch.Add(30 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 2, m.FrameNumber)
	_, ok = c.ByTime(fixtures.Epoch.Add(time.Hour))
	assert.False(t, ok)

	between := c.Between(fixtures.Epoch, fixtures.Epoch.Add(3*time.Minute))
	assert.Len(t, between, 4)
}

func TestFirstPositionAndStations(t *testing.T) {
	c := New("mem", mixedCapture())
	p, ok := c.FirstPosition()
	require.True(t, ok)
	assert.InDelta(t, 48.8566, p.Latitude, 1e-9)

	assert.Equal(t, []int64{42}, c.DENMStations())

	_, ok = framesCollection(3).FirstPosition()
	assert.False(t, ok)
}

func TestQueriesDoNotMutate(t *testing.T) {
	c := New("mem", mixedCapture())
	before := c.Messages()

	c.WithinRadius(48.8566, 2.3522, 10)
	c.FirstPosition()
	page := c.Page(1, 2)
	page[0].FrameNumber = 999

	assert.Equal(t, before, c.Messages())
}
