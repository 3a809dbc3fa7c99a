package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler(t *testing.T) {
	testCases := []struct {
		desc        string
		start       IMEState
		transitions []IMETransition
		want        IMEState
	}{
		{desc: "starts unset", start: IMEUnset, want: IMEUnset},
		{desc: "EI schedules", start: IMEUnset, transitions: []IMETransition{IMEEnable}, want: IMEScheduled},
		{desc: "enabled after one more instruction", start: IMEUnset, transitions: []IMETransition{IMEEnable, IMEKeep}, want: IMESet},
		{desc: "EI while set stays set", start: IMESet, transitions: []IMETransition{IMEEnable}, want: IMESet},
		{desc: "EI twice", start: IMEUnset, transitions: []IMETransition{IMEEnable, IMEEnable}, want: IMESet},
		{desc: "DI right after EI wins", start: IMEUnset, transitions: []IMETransition{IMEEnable, IMEDisable}, want: IMEUnset},
		{desc: "DI from set", start: IMESet, transitions: []IMETransition{IMEDisable}, want: IMEUnset},
		{desc: "DI from scheduled", start: IMEScheduled, transitions: []IMETransition{IMEDisable}, want: IMEUnset},
		{desc: "RETI enables immediately", start: IMEUnset, transitions: []IMETransition{IMEEnableNow}, want: IMESet},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			s := Scheduler{state: tC.start}
			for _, tr := range tC.transitions {
				s.Step(tr)
			}
			assert.Equal(t, tC.want, s.State())
			assert.Equal(t, tC.want == IMESet, s.Enabled())
		})
	}
}

func TestScheduler_AdvanceBeforeApply(t *testing.T) {
	s := Scheduler{state: IMEScheduled}
	s.Advance()
	assert.Equal(t, IMESet, s.State())

	s.Apply(IMEDisable)
	assert.Equal(t, IMEUnset, s.State())

	s.Advance()
	assert.Equal(t, IMEUnset, s.State(), "advance only promotes a scheduled enable")
}
