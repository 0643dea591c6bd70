package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress writes a single updating status line.
type progress struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	done     int
	every    int
	reported int
	started  time.Time
}

func newProgress(w io.Writer, total, every int) *progress {
	if every <= 0 {
		every = 1
	}
	return &progress{w: w, total: total, every: every, started: time.Now()}
}

// add records n more chunks and reports when at least every chunks have
// passed since the last report.
func (p *progress) add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.reported >= p.every {
		p.report()
		p.reported = p.done
	}
}

// finish reports the final count and ends the line.
func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.w)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.started)
}

func (p *progress) report() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	rate := float64(p.done) / max(p.elapsed().Seconds(), 1e-9)
	fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s", p.done, p.total, pct, rate)
}
