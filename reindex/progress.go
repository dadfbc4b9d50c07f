package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single, carriage-return refreshed progress line.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	base           int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	now            func() time.Time
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker that reports to writer every
// reportInterval recipes out of total.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
		now:            time.Now,
	}
}

// Start begins tracking from zero.
func (p *ProgressTracker) Start() {
	p.Resume(0)
}

// Resume begins tracking with done recipes already processed by an earlier
// run. They count toward the total but not toward the rate.
func (p *ProgressTracker) Resume(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done = min(max(done, 0), p.total)
	p.startTime = p.now()
	p.started = true
	p.base = done
	p.current = done
	p.lastReported = done
}

// Update sets the processed count.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(current, p.total)
	p.maybeReport()
}

// Increment adds delta to the processed count.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(p.current+delta, p.total)
	p.maybeReport()
}

// Current returns the processed count.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish reports the final line and terminates it.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return p.now().Sub(p.startTime)
}

// Must be called with lock held.
func (p *ProgressTracker) maybeReport() {
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := p.now().Sub(p.startTime)
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.current-p.base) / secs
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f recipes/s",
		p.current, p.total, percentage, rate)
	if remaining := p.total - p.current; remaining > 0 && rate > 0 {
		eta := time.Duration(float64(remaining) / rate * float64(time.Second))
		fmt.Fprintf(p.writer, " - ETA %v", eta.Round(time.Second))
	}
}
