package cpu

// IMEState is the state of the interrupt master enable.
type IMEState uint8

const (
	IMEUnset IMEState = iota
	IMEScheduled
	IMESet
)

func (s IMEState) String() string {
	switch s {
	case IMEScheduled:
		return "scheduled"
	case IMESet:
		return "set"
	}
	return "unset"
}

// Scheduler tracks the interrupt master enable, including the one instruction
// delay of EI.
type Scheduler struct {
	state IMEState
}

// State returns the current state.
func (s Scheduler) State() IMEState {
	return s.state
}

// Enabled is true only once a scheduled enable has taken effect.
func (s Scheduler) Enabled() bool {
	return s.state == IMESet
}

// Advance performs the automatic transition done at the start of applying an
// instruction: a scheduled enable becomes effective.
func (s *Scheduler) Advance() {
	if s.state == IMEScheduled {
		s.state = IMESet
	}
}

// Apply performs an explicit transition requested by an instruction.
func (s *Scheduler) Apply(t IMETransition) {
	switch t {
	case IMEEnable:
		// EI while already enabled has no further delay.
		if s.state == IMEUnset {
			s.state = IMEScheduled
		}
	case IMEEnableNow:
		s.state = IMESet
	case IMEDisable:
		s.state = IMEUnset
	}
}

// Step runs the automatic transition followed by the explicit one, so an
// explicit transition always wins.
func (s *Scheduler) Step(t IMETransition) {
	s.Advance()
	s.Apply(t)
}
