package cpu

import "github.com/valerio/go-sm83/sm83/bit"

// Reg names one of the eight 8-bit registers.
type Reg uint8

const (
	RegA Reg = iota
	RegF
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	numRegs
)

var regNames = [numRegs]string{"A", "F", "B", "C", "D", "E", "H", "L"}

func (r Reg) String() string {
	if r >= numRegs {
		return "?"
	}
	return regNames[r]
}

// Pair names a 16-bit register: one of the paired views or the stack pointer.
type Pair uint8

const (
	PairBC Pair = iota
	PairDE
	PairHL
	PairSP
	PairAF
)

var pairNames = [...]string{"BC", "DE", "HL", "SP", "AF"}

func (p Pair) String() string {
	if int(p) >= len(pairNames) {
		return "?"
	}
	return pairNames[p]
}

// halves returns the registers making up a paired view. SP has none.
func (p Pair) halves() (high, low Reg, ok bool) {
	switch p {
	case PairAF:
		return RegA, RegF, true
	case PairBC:
		return RegB, RegC, true
	case PairDE:
		return RegD, RegE, true
	case PairHL:
		return RegH, RegL, true
	}
	return 0, 0, false
}

// Registers is the SM83 register file.
// Paired views are always computed from the 8-bit registers.
type Registers struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8

	SP uint16
	PC uint16
}

// Read8 returns the value of an 8-bit register.
func (r Registers) Read8(reg Reg) uint8 {
	switch reg {
	case RegA:
		return r.A
	case RegF:
		return r.F
	case RegB:
		return r.B
	case RegC:
		return r.C
	case RegD:
		return r.D
	case RegE:
		return r.E
	case RegH:
		return r.H
	case RegL:
		return r.L
	}
	return 0
}

func (r *Registers) write8(reg Reg, value uint8) {
	switch reg {
	case RegA:
		r.A = value
	case RegF:
		r.F = value
	case RegB:
		r.B = value
	case RegC:
		r.C = value
	case RegD:
		r.D = value
	case RegE:
		r.E = value
	case RegH:
		r.H = value
	case RegL:
		r.L = value
	}
}

// Pair returns the value of a 16-bit register.
func (r Registers) Pair(p Pair) uint16 {
	if p == PairSP {
		return r.SP
	}
	high, low, _ := p.halves()
	return bit.Combine(r.Read8(high), r.Read8(low))
}

func (r Registers) AF() uint16 { return bit.Combine(r.A, r.F) }
func (r Registers) BC() uint16 { return bit.Combine(r.B, r.C) }
func (r Registers) DE() uint16 { return bit.Combine(r.D, r.E) }
func (r Registers) HL() uint16 { return bit.Combine(r.H, r.L) }

// Apply merges the register writes present in the delta, leaving every other
// register untouched.
func (r *Registers) Apply(d RegisterDelta) {
	for reg := RegA; reg < numRegs; reg++ {
		if v, ok := d.Get(reg); ok {
			r.write8(reg, v)
		}
	}
	if sp, ok := d.SP(); ok {
		r.SP = sp
	}
	if pc, ok := d.PC(); ok {
		r.PC = pc
	}
}
