package common

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters for calibration progress
type Stats struct {
	TotalPixels      uint64 // Atomic counter for calibrated pixels written
	TotalBytesRead   uint64 // Atomic counter for raw raster bytes read
	CurrentBandNanos uint64 // Atomic: latency of the most recently finished band
	BandsComplete    uint64 // Atomic counter for successful band jobs
	BandsFailed      uint64 // Atomic counter for failed band jobs

	// Internal state for reporter
	running    atomic.Bool
	stopCh     chan struct{}
	silent     bool
	out        io.Writer
	lastPixels uint64
	lastBytes  uint64
	lastTime   time.Time

	// Moving average window for Mpx/s
	mpxWindow     []float64
	mpxWindowSize int
	mpxIndex      int
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		stopCh:        make(chan struct{}),
		out:           os.Stdout,
		mpxWindow:     make([]float64, 10), // 10-sample moving average (5 seconds)
		mpxWindowSize: 10,
	}
}

// AddPixels atomically increments the calibrated pixel counter
func (s *Stats) AddPixels(count uint64) {
	atomic.AddUint64(&s.TotalPixels, count)
}

// AddBytes atomically increments the total bytes read counter
func (s *Stats) AddBytes(count uint64) {
	atomic.AddUint64(&s.TotalBytesRead, count)
}

// BandDone records the outcome and latency of one band job
func (s *Stats) BandDone(elapsed time.Duration, failed bool) {
	atomic.StoreUint64(&s.CurrentBandNanos, uint64(elapsed.Nanoseconds()))
	if failed {
		atomic.AddUint64(&s.BandsFailed, 1)
		return
	}
	atomic.AddUint64(&s.BandsComplete, 1)
}

// GetTotalPixels atomically reads the pixel counter
func (s *Stats) GetTotalPixels() uint64 {
	return atomic.LoadUint64(&s.TotalPixels)
}

// GetTotalBytes atomically reads the total bytes read
func (s *Stats) GetTotalBytes() uint64 {
	return atomic.LoadUint64(&s.TotalBytesRead)
}

// GetBandLatency atomically reads the latest band latency
func (s *Stats) GetBandLatency() time.Duration {
	return time.Duration(atomic.LoadUint64(&s.CurrentBandNanos))
}

// GetBandsComplete atomically reads the successful band count
func (s *Stats) GetBandsComplete() uint64 {
	return atomic.LoadUint64(&s.BandsComplete)
}

// GetBandsFailed atomically reads the failed band count
func (s *Stats) GetBandsFailed() uint64 {
	return atomic.LoadUint64(&s.BandsFailed)
}

// SetSilent enables or disables silent mode
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// SetOutput redirects progress lines (default os.Stdout)
func (s *Stats) SetOutput(w io.Writer) {
	s.out = w
}

// StartReporter starts a background goroutine that prints progress
// every 500ms using newline-based output
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return // Already running
	}

	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastPixels = 0
	s.lastBytes = 0

	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus(time.Now())
		}
	}
}

// printStatus prints one progress line; only called from the reporter goroutine
func (s *Stats) printStatus(now time.Time) {
	if s.silent {
		return
	}

	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		// Avoid division by zero on first tick
		return
	}

	currentPixels := s.GetTotalPixels()
	currentBytes := s.GetTotalBytes()

	deltaPixels := currentPixels - s.lastPixels
	deltaBytes := currentBytes - s.lastBytes

	mibPerSec := (float64(deltaBytes) / (1024 * 1024)) / elapsed
	mpx := (float64(deltaPixels) / 1_000_000) / elapsed

	s.mpxWindow[s.mpxIndex] = mpx
	s.mpxIndex = (s.mpxIndex + 1) % s.mpxWindowSize

	var sum float64
	var count int
	for i := 0; i < s.mpxWindowSize; i++ {
		if s.mpxWindow[i] > 0 {
			sum += s.mpxWindow[i]
			count++
		}
	}
	smoothed := 0.0
	if count > 0 {
		smoothed = sum / float64(count)
	}

	bandMs := float64(s.GetBandLatency().Nanoseconds()) / 1_000_000

	fmt.Fprintf(s.out, "[Progress] Read: %.2f MiB/s | Calibrate: %.2f Mpx/s (avg: %.2f) | Last band: %.2f ms | Bands: %d ok, %d failed\n",
		mibPerSec,
		mpx,
		smoothed,
		bandMs,
		s.GetBandsComplete(),
		s.GetBandsFailed(),
	)

	s.lastPixels = currentPixels
	s.lastBytes = currentBytes
	s.lastTime = now
}
