package cpu

import (
	"fmt"

	"github.com/valerio/go-sm83/sm83/bit"
)

// opcodesCB is the extended instruction table, selected by the byte after the
// 0xCB prefix. Every entry is 2 bytes long (prefix included).
//
// The opcode is laid out as xxyyyzzz: xx selects the group (shift/rotate, BIT,
// RES, SET), yyy the shift kind or bit index, zzz the register operand.
var opcodesCB = buildOpcodesCB()

type shiftFunc func(value, carry uint8) (uint8, bool)

var cbShifts = [8]struct {
	name string
	fn   shiftFunc
}{
	{"RLC", func(v, _ uint8) (uint8, bool) { return rlc(v) }},
	{"RRC", func(v, _ uint8) (uint8, bool) { return rrc(v) }},
	{"RL", rl},
	{"RR", rr},
	{"SLA", func(v, _ uint8) (uint8, bool) { return sla(v) }},
	{"SRA", func(v, _ uint8) (uint8, bool) { return sra(v) }},
	{"SWAP", func(v, _ uint8) (uint8, bool) { return swap(v) }},
	{"SRL", func(v, _ uint8) (uint8, bool) { return srl(v) }},
}

func buildOpcodesCB() [256]Instruction {
	var t [256]Instruction

	for op := 0; op < 256; op++ {
		group, y, reg := op>>6, uint8(op>>3)&7, uint8(op)&7

		// (HL) operands pay for the memory read, and for the write back
		// unless the instruction only tests a bit.
		cycles := 8
		if reg == operandHL {
			cycles = 16
			if group == 1 {
				cycles = 12
			}
		}

		var ins Instruction
		switch group {
		case 0:
			ins = Instruction{cbShifts[y].name + " " + r8Names[reg], 2, cycles, shiftOp(cbShifts[y].fn, reg)}
		case 1:
			ins = Instruction{fmt.Sprintf("BIT %d,%s", y, r8Names[reg]), 2, cycles, bitOp(y, reg)}
		case 2:
			ins = Instruction{fmt.Sprintf("RES %d,%s", y, r8Names[reg]), 2, cycles, resOp(y, reg)}
		case 3:
			ins = Instruction{fmt.Sprintf("SET %d,%s", y, r8Names[reg]), 2, cycles, setOp(y, reg)}
		}
		t[op] = ins
	}

	return t
}

func shiftOp(fn shiftFunc, i uint8) effect {
	return func(s State) Delta {
		result, carry := fn(s.operand(i), s.carry())
		d := Delta{Flags: shiftFlags(result, carry)}
		s.setOperand(&d, i, result)
		return d
	}
}

// bitOp only writes flags: the tested operand is never written back.
func bitOp(index, i uint8) effect {
	return func(s State) Delta {
		return Delta{Flags: bitTest(index, s.operand(i))}
	}
}

func resOp(index, i uint8) effect {
	return func(s State) Delta {
		d := Delta{}
		s.setOperand(&d, i, bit.Clear(index, s.operand(i)))
		return d
	}
}

func setOp(index, i uint8) effect {
	return func(s State) Delta {
		d := Delta{}
		s.setOperand(&d, i, bit.Set(index, s.operand(i)))
		return d
	}
}
