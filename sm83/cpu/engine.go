package cpu

import "fmt"

// prefixCB selects the extended opcode table.
const prefixCB uint8 = 0xCB

// effect computes the delta of an instruction from a read-only state.
type effect func(s State) Delta

// Instruction describes one opcode.
type Instruction struct {
	Mnemonic string
	// Length in bytes, including the prefix for extended opcodes.
	Length uint8
	// Cycles is the base cost in T-states. Conditional instructions report
	// their taken cost in the delta instead.
	Cycles int

	exec effect
}

// Defined is false for opcodes that have no behavior.
func (i Instruction) Defined() bool {
	return i.exec != nil
}

func (i Instruction) String() string {
	if !i.Defined() {
		return "undefined"
	}
	return fmt.Sprintf("%s (%d bytes, %d cycles)", i.Mnemonic, i.Length, i.Cycles)
}

// Lookup returns the descriptor of a base opcode.
func Lookup(opcode uint8) Instruction {
	return opcodes[opcode]
}

// LookupCB returns the descriptor of an extended (0xCB prefixed) opcode.
func LookupCB(opcode uint8) Instruction {
	return opcodesCB[opcode]
}

// Decode computes the effect of the instruction at PC.
func Decode(s State) Delta {
	return DecodeOpcode(s.Mem.Read(s.Regs.PC), s)
}

// DecodeOpcode computes the effect of the given opcode as if it was located
// at PC. Operands are still read from memory after PC.
//
// It never fails: an opcode without behavior yields a zero length, zero cycle
// delta with no effects.
func DecodeOpcode(opcode uint8, s State) Delta {
	return run(opcodes[opcode], s)
}

func run(ins Instruction, s State) Delta {
	if !ins.Defined() {
		return Delta{}
	}

	d := ins.exec(s)
	d.Length = ins.Length
	if d.Cycles == 0 {
		d.Cycles = ins.Cycles
	}
	return d
}

// execCB dispatches the byte after the prefix into the extended table.
func execCB(s State) Delta {
	return run(opcodesCB[s.imm8()], s)
}

// Mnemonic returns the name of the instruction at PC, with its immediate
// operands filled in.
func Mnemonic(s State) string {
	opcode := s.Mem.Read(s.Regs.PC)
	if opcode == prefixCB {
		return opcodesCB[s.imm8()].Mnemonic
	}

	ins := opcodes[opcode]
	if !ins.Defined() {
		return fmt.Sprintf("DB 0x%02X", opcode)
	}
	switch ins.Length {
	case 2:
		return fmt.Sprintf("%s ; n=0x%02X", ins.Mnemonic, s.imm8())
	case 3:
		return fmt.Sprintf("%s ; nn=0x%04X", ins.Mnemonic, s.imm16())
	}
	return ins.Mnemonic
}
