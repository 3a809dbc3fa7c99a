// Package irq encodes the interrupt request and enable registers (IF and IE)
// and is how peripherals on the bus raise interrupts.
package irq

import (
	"strings"

	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/memory"
)

const (
	// sourcesMask covers the 5 interrupt sources.
	sourcesMask uint8 = 0x1F
	// unusedBits of IF are not connected and always read 1.
	unusedBits uint8 = 0xE0
)

// Flags is the decoded form of IF (or IE).
type Flags struct {
	VBlank  bool
	LCDStat bool
	Timer   bool
	Serial  bool
	Joypad  bool
}

// FromByte decodes a register value, ignoring the unused bits.
func FromByte(v uint8) Flags {
	return Flags{
		VBlank:  bit.IsSet(uint8(addr.VBlankInterrupt), v),
		LCDStat: bit.IsSet(uint8(addr.LCDSTATInterrupt), v),
		Timer:   bit.IsSet(uint8(addr.TimerInterrupt), v),
		Serial:  bit.IsSet(uint8(addr.SerialInterrupt), v),
		Joypad:  bit.IsSet(uint8(addr.JoypadInterrupt), v),
	}
}

// Byte encodes the flags as IF reads on hardware: the 3 unused bits are forced to 1.
func (f Flags) Byte() uint8 {
	v := unusedBits
	for i, set := range f.list() {
		if set {
			v = bit.Set(uint8(i), v)
		}
	}
	return v
}

// With returns a copy with the given interrupt flagged.
func (f Flags) With(i addr.Interrupt) Flags {
	return FromByte(bit.Set(uint8(i), f.Byte()))
}

func (f Flags) list() [5]bool {
	return [5]bool{f.VBlank, f.LCDStat, f.Timer, f.Serial, f.Joypad}
}

func (f Flags) String() string {
	names := []string{}
	for i, set := range f.list() {
		if set {
			names = append(names, addr.Interrupt(i).String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Pending returns the sources that are both enabled and requested.
func Pending(ie, iflag uint8) uint8 {
	return ie & iflag & sourcesMask
}

// Highest returns the highest priority interrupt in a pending mask.
func Highest(pending uint8) (addr.Interrupt, bool) {
	for i := addr.VBlankInterrupt; i <= addr.JoypadInterrupt; i++ {
		if bit.IsSet(uint8(i), pending) {
			return i, true
		}
	}
	return 0, false
}

// Request returns the edit that raises an interrupt, based on the current IF value.
func Request(r memory.Reader, i addr.Interrupt) memory.Edit {
	return memory.Edit{Address: addr.IF, Value: FromByte(r.Read(addr.IF)).With(i).Byte()}
}

// Acknowledge returns the edit that clears a serviced interrupt from IF.
func Acknowledge(r memory.Reader, i addr.Interrupt) memory.Edit {
	return memory.Edit{Address: addr.IF, Value: bit.Clear(uint8(i), r.Read(addr.IF)) | unusedBits}
}
