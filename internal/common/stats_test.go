package common

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.AddPixels(100)
	s.AddPixels(50)
	s.AddBytes(300)
	s.BandDone(20*time.Millisecond, false)
	s.BandDone(5*time.Millisecond, true)

	assert.Equal(t, uint64(150), s.GetTotalPixels())
	assert.Equal(t, uint64(300), s.GetTotalBytes())
	assert.Equal(t, uint64(1), s.GetBandsComplete())
	assert.Equal(t, uint64(1), s.GetBandsFailed())
	assert.Equal(t, 5*time.Millisecond, s.GetBandLatency())
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	s := NewStats()
	s.SetOutput(&buf)
	s.lastTime = time.Now().Add(-time.Second)

	s.AddPixels(2_000_000)
	s.BandDone(10*time.Millisecond, false)
	s.printStatus(s.lastTime.Add(time.Second))

	assert.Contains(t, buf.String(), "[Progress]")
	assert.Contains(t, buf.String(), "Calibrate: 2.00 Mpx/s")
	assert.Contains(t, buf.String(), "Bands: 1 ok, 0 failed")

	buf.Reset()
	s.SetSilent(true)
	s.printStatus(time.Now().Add(time.Second))
	assert.Empty(t, buf.String())
}

func TestReporterStartStop(t *testing.T) {
	s := NewStats()
	s.SetSilent(true)
	s.StartReporter()
	s.StartReporter() // second start is a no-op
	s.StopReporter()
	s.StopReporter() // second stop is a no-op
}
