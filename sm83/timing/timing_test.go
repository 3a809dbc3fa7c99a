package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDuration(t *testing.T) {
	testCases := []struct {
		desc      string
		tStates   int
		clockRate int
		want      time.Duration
	}{
		{desc: "zero", tStates: 0, clockRate: MachineCycleRate, want: 0},
		{desc: "one second", tStates: CPUFrequency, clockRate: MachineCycleRate, want: time.Second},
		{desc: "one machine cycle at 1MHz", tStates: 4, clockRate: 1_000_000, want: time.Microsecond},
		{desc: "nop at dmg rate", tStates: 4, clockRate: MachineCycleRate, want: 953 * time.Nanosecond},
		{desc: "invalid rate", tStates: 4, clockRate: 0, want: 0},
		{desc: "one hour", tStates: CPUFrequency * 3600, clockRate: MachineCycleRate, want: time.Hour},
		{
			desc:      "long run does not overflow",
			tStates:   4 * 10_000_000_000,
			clockRate: MachineCycleRate,
			want:      9536*time.Second + 743164062*time.Nanosecond,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, ToDuration(tC.tStates, tC.clockRate))
		})
	}
}

func TestFrameDuration(t *testing.T) {
	assert.InDelta(t, 59.7275, TargetFPS(), 0.001)
	assert.InDelta(t, float64(16742706*time.Nanosecond), float64(FrameDuration()), float64(time.Microsecond))
}

type countingLimiter struct {
	waits, resets int
}

func (c *countingLimiter) WaitForNextFrame() { c.waits++ }
func (c *countingLimiter) Reset()            { c.resets++ }

func TestPacer(t *testing.T) {
	l := &countingLimiter{}
	p := NewPacer(l)

	p.Add(FrameDuration() - 1)
	assert.Equal(t, 0, l.waits)

	p.Add(1)
	assert.Equal(t, 1, l.waits)

	p.Add(3 * FrameDuration())
	assert.Equal(t, 4, l.waits)

	p.Reset()
	assert.Equal(t, 1, l.resets)
}

func TestNew(t *testing.T) {
	for _, name := range []string{"adaptive", "ticker", "none", ""} {
		l, ok := New(name)
		require.Truef(t, ok, "limiter %q", name)
		require.NotNil(t, l)
		if tl, isTicker := l.(*TickerLimiter); isTicker {
			tl.Stop()
		}
	}
	_, ok := New("bogus")
	assert.False(t, ok)
}

func TestAdaptiveLimiter_BehindScheduleDoesNotWait(t *testing.T) {
	a := NewAdaptiveLimiter()
	start := time.Now()
	a.now = func() time.Time { return start.Add(time.Second) }

	a.WaitForNextFrame()

	assert.Equal(t, start.Add(time.Second).Add(a.targetFrameTime), a.nextFrameTime)
	assert.Equal(t, int64(1), a.frameCounter)

	a.Reset()
	assert.Equal(t, int64(0), a.frameCounter)
}

func TestPacer_TickerLimiter(t *testing.T) {
	const period = 2 * time.Millisecond
	l := newTickerLimiter(period)
	defer l.Stop()
	p := NewPacer(l)

	start := time.Now()
	p.Add(FrameDuration() / 2)
	p.Add(FrameDuration() / 2)
	p.Add(FrameDuration())
	assert.GreaterOrEqual(t, time.Since(start), period/2, "one tick per emulated frame")

	p.Reset()
	start = time.Now()
	p.Add(FrameDuration())
	assert.GreaterOrEqual(t, time.Since(start), period/2, "reset waits for a fresh period")
}
