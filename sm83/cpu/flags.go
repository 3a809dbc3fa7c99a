package cpu

import "strings"

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10

	// the low nibble of F does not exist in hardware and always reads 0.
	flagsMask uint8 = 0xF0
)

// Flags holds the four condition flags.
type Flags struct {
	Zero      bool
	Subtract  bool
	HalfCarry bool
	Carry     bool
}

// FlagsFromByte decodes the flag register. The low nibble is ignored.
func FlagsFromByte(v uint8) Flags {
	return Flags{
		Zero:      v&uint8(zeroFlag) != 0,
		Subtract:  v&uint8(subFlag) != 0,
		HalfCarry: v&uint8(halfCarryFlag) != 0,
		Carry:     v&uint8(carryFlag) != 0,
	}
}

// Byte encodes the flags in the F register layout, low nibble always 0.
func (f Flags) Byte() uint8 {
	var v uint8
	if f.Zero {
		v |= uint8(zeroFlag)
	}
	if f.Subtract {
		v |= uint8(subFlag)
	}
	if f.HalfCarry {
		v |= uint8(halfCarryFlag)
	}
	if f.Carry {
		v |= uint8(carryFlag)
	}
	return v
}

// Apply merges the flag writes present in the delta.
func (f *Flags) Apply(d FlagDelta) {
	*f = FlagsFromByte(f.Byte()&^d.mask | d.value&d.mask)
}

// String returns the flags as ZNHC, with a dash for each cleared flag.
func (f Flags) String() string {
	s := strings.Builder{}
	for _, fl := range []struct {
		set  bool
		name rune
	}{{f.Zero, 'Z'}, {f.Subtract, 'N'}, {f.HalfCarry, 'H'}, {f.Carry, 'C'}} {
		if fl.set {
			s.WriteRune(fl.name)
		} else {
			s.WriteRune('-')
		}
	}
	return s.String()
}

// FlagDelta is a set of optional flag writes. A flag that is not written is
// left unchanged when the delta is applied, it is never implicitly cleared.
type FlagDelta struct {
	mask  uint8
	value uint8
}

func (d FlagDelta) with(flag Flag, set bool) FlagDelta {
	d.mask |= uint8(flag)
	if set {
		d.value |= uint8(flag)
	} else {
		d.value &^= uint8(flag)
	}
	return d
}

// Z returns a copy of the delta that writes the zero flag.
func (d FlagDelta) Z(set bool) FlagDelta { return d.with(zeroFlag, set) }

// N returns a copy of the delta that writes the subtract flag.
func (d FlagDelta) N(set bool) FlagDelta { return d.with(subFlag, set) }

// H returns a copy of the delta that writes the half carry flag.
func (d FlagDelta) H(set bool) FlagDelta { return d.with(halfCarryFlag, set) }

// C returns a copy of the delta that writes the carry flag.
func (d FlagDelta) C(set bool) FlagDelta { return d.with(carryFlag, set) }

// Get reports the value written for a flag, and whether it is written at all.
func (d FlagDelta) Get(flag Flag) (set, written bool) {
	return d.value&uint8(flag) != 0, d.mask&uint8(flag) != 0
}

// IsEmpty is true when no flag is written.
func (d FlagDelta) IsEmpty() bool {
	return d.mask == 0
}

// znhc writes all four flags.
func znhc(z, n, h, c bool) FlagDelta {
	return FlagDelta{}.Z(z).N(n).H(h).C(c)
}
