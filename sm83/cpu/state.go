package cpu

import (
	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/memory"
)

// State is the read-only view of the CPU handed to the instruction engine.
// Registers and flags are copies; memory is only reachable through a Reader.
type State struct {
	Regs  Registers
	Flags Flags
	Mem   memory.Reader
}

// imm8 returns the byte following the opcode at PC, known as immediate ('n' in mnemonics).
// Operands are always addressed from the opcode position, never from a moving cursor.
func (s State) imm8() uint8 {
	return s.Mem.Read(s.Regs.PC + 1)
}

// imm16 returns the little endian word following the opcode ('nn' in mnemonics).
func (s State) imm16() uint16 {
	return memory.ReadWord(s.Mem, s.Regs.PC+1)
}

func (s State) carry() uint8 {
	return bit.FromBool(s.Flags.Carry)
}

// operandHL is the register encoding that selects the byte pointed to by HL.
const operandHL uint8 = 6

// r8 maps the 3 bit register encoding used by opcodes to registers.
var r8 = [8]Reg{RegB, RegC, RegD, RegE, RegH, RegL, numRegs, RegA}

var r8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// operand reads an 8-bit operand by its 3 bit encoding.
func (s State) operand(i uint8) uint8 {
	if i == operandHL {
		return s.Mem.Read(s.Regs.HL())
	}
	return s.Regs.Read8(r8[i])
}

// setOperand adds a write of an 8-bit operand by its 3 bit encoding to the delta.
func (s State) setOperand(d *Delta, i uint8, value uint8) {
	if i == operandHL {
		d.Memory = append(d.Memory, memory.Edit{Address: s.Regs.HL(), Value: value})
		return
	}
	d.Regs = d.Regs.With(r8[i], value)
}

// condition is the flag test used by conditional jumps, calls and returns.
type condition uint8

const (
	condNZ condition = iota
	condZ
	condNC
	condC
)

var conditionNames = [4]string{"NZ", "Z", "NC", "C"}

func (s State) check(c condition) bool {
	switch c {
	case condNZ:
		return !s.Flags.Zero
	case condZ:
		return s.Flags.Zero
	case condNC:
		return !s.Flags.Carry
	default:
		return s.Flags.Carry
	}
}

// push returns the edits that store a word below the stack pointer, high byte first.
func push(sp, value uint16) []memory.Edit {
	return []memory.Edit{
		{Address: sp - 1, Value: bit.High(value)},
		{Address: sp - 2, Value: bit.Low(value)},
	}
}

// pop reads the word at the stack pointer.
func (s State) pop() uint16 {
	return memory.ReadWord(s.Mem, s.Regs.SP)
}
