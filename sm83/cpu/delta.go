package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/memory"
)

const (
	spWritten uint16 = 1 << (numRegs + iota)
	pcWritten
)

// RegisterDelta is a set of optional register writes.
// Paired writes are stored as two 8-bit writes.
type RegisterDelta struct {
	mask   uint16
	values [numRegs]uint8
	sp, pc uint16
}

// With returns a copy of the delta that writes an 8-bit register.
func (d RegisterDelta) With(reg Reg, value uint8) RegisterDelta {
	d.mask |= 1 << reg
	d.values[reg] = value
	return d
}

// WithPair returns a copy of the delta that writes a 16-bit register.
func (d RegisterDelta) WithPair(p Pair, value uint16) RegisterDelta {
	high, low, ok := p.halves()
	if !ok {
		return d.WithSP(value)
	}
	return d.With(high, bit.High(value)).With(low, bit.Low(value))
}

// WithSP returns a copy of the delta that writes the stack pointer.
func (d RegisterDelta) WithSP(value uint16) RegisterDelta {
	d.mask |= spWritten
	d.sp = value
	return d
}

// WithPC returns a copy of the delta that moves the program counter,
// overriding the advance by instruction length.
func (d RegisterDelta) WithPC(value uint16) RegisterDelta {
	d.mask |= pcWritten
	d.pc = value
	return d
}

// Get reports the value written for an 8-bit register, if any.
func (d RegisterDelta) Get(reg Reg) (uint8, bool) {
	if reg >= numRegs || d.mask&(1<<reg) == 0 {
		return 0, false
	}
	return d.values[reg], true
}

// SP reports the value written for the stack pointer, if any.
func (d RegisterDelta) SP() (uint16, bool) {
	return d.sp, d.mask&spWritten != 0
}

// PC reports the jump target, if any.
func (d RegisterDelta) PC() (uint16, bool) {
	return d.pc, d.mask&pcWritten != 0
}

// IsEmpty is true when no register is written.
func (d RegisterDelta) IsEmpty() bool {
	return d.mask == 0
}

// IMETransition is the change an instruction requests on the interrupt master enable.
type IMETransition uint8

const (
	// IMEKeep leaves the scheduler alone.
	IMEKeep IMETransition = iota
	// IMEEnable schedules interrupts to be enabled after the next instruction (EI).
	IMEEnable
	// IMEEnableNow enables interrupts immediately (RETI).
	IMEEnableNow
	// IMEDisable disables interrupts immediately (DI, interrupt dispatch).
	IMEDisable
)

func (t IMETransition) String() string {
	switch t {
	case IMEEnable:
		return "enable"
	case IMEEnableNow:
		return "enable-now"
	case IMEDisable:
		return "disable"
	}
	return "keep"
}

// Delta describes the whole effect of one instruction. It is produced by the
// instruction engine and applied once by the CPU.
type Delta struct {
	// Length is the instruction size in bytes, used to advance PC unless the
	// register delta moves PC itself. 0 marks an unrecognized opcode.
	Length uint8
	// Cycles is the cost in T-states, always a multiple of 4.
	Cycles int

	Regs   RegisterDelta
	Flags  FlagDelta
	Memory []memory.Edit
	IME    IMETransition

	// Halt puts the CPU in low power mode until an interrupt is pending.
	Halt bool
}

// IsNoop reports whether the delta is the placeholder for an unrecognized opcode.
func (d Delta) IsNoop() bool {
	return d.Length == 0 && d.Cycles == 0 && d.Regs.IsEmpty() && d.Flags.IsEmpty() &&
		len(d.Memory) == 0 && d.IME == IMEKeep && !d.Halt
}

func (d Delta) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "len=%d cycles=%d", d.Length, d.Cycles)
	for reg := RegA; reg < numRegs; reg++ {
		if v, ok := d.Regs.Get(reg); ok {
			fmt.Fprintf(&s, " %s=0x%02X", reg, v)
		}
	}
	if sp, ok := d.Regs.SP(); ok {
		fmt.Fprintf(&s, " SP=0x%04X", sp)
	}
	if pc, ok := d.Regs.PC(); ok {
		fmt.Fprintf(&s, " PC=0x%04X", pc)
	}
	if !d.Flags.IsEmpty() {
		fmt.Fprintf(&s, " flags=%08b/%08b", d.Flags.value, d.Flags.mask)
	}
	for _, e := range d.Memory {
		fmt.Fprintf(&s, " %s", e)
	}
	if d.IME != IMEKeep {
		fmt.Fprintf(&s, " ime=%s", d.IME)
	}
	if d.Halt {
		s.WriteString(" halt")
	}
	return s.String()
}
