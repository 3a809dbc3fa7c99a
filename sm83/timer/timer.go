// Package timer implements the DIV/TIMA/TMA/TAC timer as a peripheral on
// the shared bus.
package timer

import (
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/irq"
	"github.com/valerio/go-sm83/sm83/memory"
)

// PostBootSeed is the value of the internal counter when the boot ROM hands
// over to the cartridge on DMG.
const PostBootSeed uint16 = 0xABCC

// tacLookup maps TAC input clock select (bits 1-0) to the bit position
// of the 16-bit internal divider (systemCounter) used as the timer's
// clock source. The timer increments on falling edges of this selected
// bit when the timer is enabled (TAC bit 2 = 1).
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// registers covers DIV, TIMA, TMA and TAC, in this order.
var registers = memory.Span(addr.DIV, addr.TAC)

// Bus is the part of the shared bus the timer needs.
type Bus interface {
	memory.Reader
	Slice(r memory.Range) []byte
	Apply(edits []memory.Edit)
	Watch(address uint16)
	Written(address uint16) bool
}

// Timer reads its registers from the bus once per tick and writes DIV, TIMA
// and the interrupt request back.
type Timer struct {
	bus Bus

	systemCounter uint16 // DIV is the upper 8 bits
	lastTimerBit  bool   // previous state of the selected bit, for edge detection
	timaOverflow  int    // T-states left before TIMA is reloaded from TMA
	timaDelayInt  bool   // interrupt is requested one T-state after the reload
}

// New creates a timer whose internal counter starts at seed.
func New(bus Bus, seed uint16) *Timer {
	t := &Timer{bus: bus}
	bus.Watch(addr.DIV)
	t.SetSeed(seed)
	return t
}

// SetSeed sets the internal counter and writes DIV accordingly.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastTimerBit = false
	t.timaOverflow = 0
	t.timaDelayInt = false
	t.writeBack([]memory.Edit{{Address: addr.DIV, Value: byte(seed >> 8)}})
}

// writeBack applies the timer's own edits without them counting as a CPU
// write to DIV.
func (t *Timer) writeBack(edits []memory.Edit) {
	t.bus.Apply(edits)
	t.bus.Written(addr.DIV)
}

// Counter returns the internal 16-bit counter.
func (t *Timer) Counter() uint16 {
	return t.systemCounter
}

// Tick advances the timer by the given number of T-states.
func (t *Timer) Tick(cycles int) {
	if t.bus.Written(addr.DIV) {
		// any value written to DIV resets the counter
		t.systemCounter = 0
	}
	regs := t.bus.Slice(registers)
	tima, tma, tac := regs[1], regs[2], regs[3]
	interrupt := false

	for range cycles {
		if t.timaDelayInt {
			interrupt = true
			t.timaDelayInt = false
		}

		t.systemCounter++

		if t.timaOverflow > 0 {
			// TIMA reads 0 for 4 T-states before the reload
			t.timaOverflow--
			if t.timaOverflow == 0 {
				tima = tma
				t.timaDelayInt = true
			}
			continue
		}

		if !bit.IsSet(2, tac) {
			t.lastTimerBit = false
			continue
		}

		current := bit.IsSet16(tacLookup[tac&0x03], t.systemCounter)
		if t.lastTimerBit && !current {
			if tima == 0xFF {
				t.timaOverflow = 4
			}
			tima++
		}
		t.lastTimerBit = current
	}

	edits := []memory.Edit{
		{Address: addr.DIV, Value: byte(t.systemCounter >> 8)},
		{Address: addr.TIMA, Value: tima},
	}
	if interrupt {
		edits = append(edits, irq.Request(t.bus, addr.TimerInterrupt))
	}
	t.writeBack(edits)
}
