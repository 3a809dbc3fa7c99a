package timing

import "time"

// Limiter paces emulation one frame worth of cycles at a time.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// New returns the limiter registered under name: "adaptive", "ticker" or "none".
func New(name string) (Limiter, bool) {
	switch name {
	case "adaptive":
		return NewAdaptiveLimiter(), true
	case "ticker":
		return NewTickerLimiter(), true
	case "none", "":
		return NewNoOpLimiter(), true
	}
	return nil, false
}

// Pacer feeds emulated durations into a Limiter, waiting once for every
// frame of emulated time that has elapsed.
type Pacer struct {
	limiter Limiter
	frame   time.Duration
	elapsed time.Duration
}

// NewPacer wraps a limiter.
func NewPacer(l Limiter) *Pacer {
	return &Pacer{limiter: l, frame: FrameDuration()}
}

// Add records emulated time and blocks when a frame boundary is crossed.
func (p *Pacer) Add(d time.Duration) {
	p.elapsed += d
	for p.elapsed >= p.frame {
		p.elapsed -= p.frame
		p.limiter.WaitForNextFrame()
	}
}

// Reset clears the pending time and resets the limiter.
func (p *Pacer) Reset() {
	p.elapsed = 0
	p.limiter.Reset()
}
