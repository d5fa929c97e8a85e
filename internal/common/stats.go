package common

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// RunStats tracks per-station outcomes for a batch run. Counters are
// atomic so a fetch loop can report progress from a background ticker
// while the main loop keeps counting.
type RunStats struct {
	Processed atomic.Uint64
	Failed    atomic.Uint64
	Skipped   atomic.Uint64
	Bytes     atomic.Uint64

	running atomic.Bool
	stopCh  chan struct{}
	started time.Time
}

// NewRunStats creates a RunStats anchored at the current time.
func NewRunStats() *RunStats {
	return &RunStats{
		stopCh:  make(chan struct{}),
		started: time.Now(),
	}
}

// StartReporter starts a background goroutine that prints a progress line
// every interval until StopReporter is called.
func (s *RunStats) StartReporter(interval time.Duration) {
	if s.running.Load() {
		return
	}
	s.running.Store(true)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				fmt.Printf("[Progress] processed=%d failed=%d skipped=%d transferred=%.1f MiB\n",
					s.Processed.Load(), s.Failed.Load(), s.Skipped.Load(),
					float64(s.Bytes.Load())/(1024*1024))
			}
		}
	}()
}

// StopReporter stops the background reporter goroutine.
func (s *RunStats) StopReporter() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	close(s.stopCh)
}

// Summary prints the final banner for a run.
func (s *RunStats) Summary(title string) {
	elapsed := time.Since(s.started)

	log.Println("=========================================================")
	log.Printf("%s", title)
	log.Println("=========================================================")
	log.Printf("Processed: %d", s.Processed.Load())
	log.Printf("Failed:    %d", s.Failed.Load())
	log.Printf("Skipped:   %d", s.Skipped.Load())
	if b := s.Bytes.Load(); b > 0 {
		log.Printf("Bytes:     %.2f MiB", float64(b)/(1024*1024))
	}
	log.Printf("Elapsed:   %v", elapsed.Round(time.Millisecond))
	log.Println("=========================================================")
}
