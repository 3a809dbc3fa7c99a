// Package timing converts emulated cycle costs to wall clock durations and
// paces emulation against the host clock.
package timing

import "time"

const (
	// TStatesPerMachineCycle is the number of clock ticks in one machine cycle.
	TStatesPerMachineCycle = 4
	// CPUFrequency is the DMG clock in T-states per second.
	CPUFrequency = 4194304
	// MachineCycleRate is the DMG clock in machine cycles per second.
	MachineCycleRate = CPUFrequency / TStatesPerMachineCycle
	// CyclesPerFrame is the length in T-states of one LCD frame, used as the
	// pacing slice.
	CyclesPerFrame = 70224
)

// ToDuration converts a cost in T-states to emulated time, given a clock rate
// in machine cycles per second.
func ToDuration(tStates int, clockRate int) time.Duration {
	if clockRate <= 0 {
		return 0
	}
	machineCycles := int64(tStates / TStatesPerMachineCycle)
	rate := int64(clockRate)
	// whole seconds first, so long runs do not overflow the nanosecond product
	sec, rem := machineCycles/rate, machineCycles%rate
	return time.Duration(sec)*time.Second + time.Duration(rem*int64(time.Second)/rate)
}

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
