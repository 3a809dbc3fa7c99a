package timing

import "time"

// TickerLimiter paces frames on a time.Ticker. Ticks missed while the
// emulation runs behind are dropped, so it never bursts to catch up.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
}

// NewTickerLimiter ticks once per Game Boy frame.
func NewTickerLimiter() *TickerLimiter {
	return newTickerLimiter(FrameDuration())
}

func newTickerLimiter(period time.Duration) *TickerLimiter {
	return &TickerLimiter{period: period, ticker: time.NewTicker(period)}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

// Reset restarts the period from now and drops a tick that is already due.
func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
	select {
	case <-t.ticker.C:
	default:
	}
}

// Stop releases the ticker; the limiter must not be waited on afterwards.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
