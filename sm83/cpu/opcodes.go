package cpu

import (
	"fmt"

	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/memory"
)

// opcodes is the base instruction table. The 11 opcodes that do not exist on
// the SM83 (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD)
// are left undefined.
var opcodes = buildOpcodes()

// register pairs as encoded in bits 5-4 of the 16-bit load/arithmetic opcodes
var rp = [4]Pair{PairBC, PairDE, PairHL, PairSP}

// register pairs as encoded in bits 5-4 of PUSH and POP
var rpStack = [4]Pair{PairBC, PairDE, PairHL, PairAF}

func buildOpcodes() [256]Instruction {
	var t [256]Instruction

	// 0x00 - 0x3F: loads, 16-bit arithmetic, inc/dec, relative jumps
	t[0x00] = Instruction{"NOP", 1, 4, nop}
	t[0x08] = Instruction{"LD (a16),SP", 3, 20, ldAddrSP}
	t[0x10] = Instruction{"STOP", 2, 4, halt}
	t[0x18] = Instruction{"JR e8", 2, 12, jr}
	t[0x76] = Instruction{"HALT", 1, 4, halt}

	t[0x07] = Instruction{"RLCA", 1, 4, rlca}
	t[0x0F] = Instruction{"RRCA", 1, 4, rrca}
	t[0x17] = Instruction{"RLA", 1, 4, rla}
	t[0x1F] = Instruction{"RRA", 1, 4, rra}
	t[0x27] = Instruction{"DAA", 1, 4, opDAA}
	t[0x2F] = Instruction{"CPL", 1, 4, cpl}
	t[0x37] = Instruction{"SCF", 1, 4, scf}
	t[0x3F] = Instruction{"CCF", 1, 4, ccf}

	for i, p := range rp {
		row := uint8(i) << 4
		t[row|0x01] = Instruction{fmt.Sprintf("LD %s,d16", p), 3, 12, ld16(p)}
		t[row|0x03] = Instruction{fmt.Sprintf("INC %s", p), 1, 8, inc16(p)}
		t[row|0x09] = Instruction{fmt.Sprintf("ADD HL,%s", p), 1, 8, addHLPair(p)}
		t[row|0x0B] = Instruction{fmt.Sprintf("DEC %s", p), 1, 8, dec16(p)}
	}

	for i, m := range []indirect{viaBC, viaDE, viaHLI, viaHLD} {
		row := uint8(i) << 4
		t[row|0x02] = Instruction{fmt.Sprintf("LD (%s),A", m), 1, 8, ldIndirectA(m)}
		t[row|0x0A] = Instruction{fmt.Sprintf("LD A,(%s)", m), 1, 8, ldAIndirect(m)}
	}

	for i := uint8(0); i < 8; i++ {
		col := i << 3
		cycles, immCycles := 4, 8
		if i == operandHL {
			cycles, immCycles = 12, 12
		}
		t[col|0x04] = Instruction{"INC " + r8Names[i], 1, cycles, incR(i)}
		t[col|0x05] = Instruction{"DEC " + r8Names[i], 1, cycles, decR(i)}
		t[col|0x06] = Instruction{fmt.Sprintf("LD %s,d8", r8Names[i]), 2, immCycles, ldImm(i)}
	}

	for i, c := range []condition{condNZ, condZ, condNC, condC} {
		row := uint8(i) << 3
		t[0x20|row] = Instruction{fmt.Sprintf("JR %s,e8", conditionNames[c]), 2, 8, jrIf(c)}
		t[0xC0|row] = Instruction{fmt.Sprintf("RET %s", conditionNames[c]), 1, 8, retIf(c)}
		t[0xC2|row] = Instruction{fmt.Sprintf("JP %s,a16", conditionNames[c]), 3, 12, jpIf(c)}
		t[0xC4|row] = Instruction{fmt.Sprintf("CALL %s,a16", conditionNames[c]), 3, 12, callIf(c)}
	}

	// 0x40 - 0x7F: 8-bit register loads, with HALT in place of LD (HL),(HL)
	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue
		}
		dst, src := uint8(op>>3)&7, uint8(op)&7
		cycles := 4
		if dst == operandHL || src == operandHL {
			cycles = 8
		}
		t[op] = Instruction{fmt.Sprintf("LD %s,%s", r8Names[dst], r8Names[src]), 1, cycles, ldRR(dst, src)}
	}

	// 0x80 - 0xBF: 8-bit arithmetic and logic on A, plus the immediate forms
	for i, op := range aluOps {
		for src := uint8(0); src < 8; src++ {
			cycles := 4
			if src == operandHL {
				cycles = 8
			}
			t[0x80|uint8(i)<<3|src] = Instruction{op.name + r8Names[src], 1, cycles, aluOperand(op.fn, src)}
		}
		t[0xC6|uint8(i)<<3] = Instruction{op.name + "d8", 2, 8, aluImm(op.fn)}
	}

	// 0xC0 - 0xFF: stack, calls, jumps and high memory access
	for i, p := range rpStack {
		row := uint8(i) << 4
		t[0xC1|row] = Instruction{fmt.Sprintf("POP %s", p), 1, 12, pop(p)}
		t[0xC5|row] = Instruction{fmt.Sprintf("PUSH %s", p), 1, 16, pushPair(p)}
	}
	for i := uint8(0); i < 8; i++ {
		vector := uint16(i) * 8
		t[0xC7|i<<3] = Instruction{fmt.Sprintf("RST 0x%02X", vector), 1, 16, rst(vector)}
	}

	t[0xC3] = Instruction{"JP a16", 3, 16, jp}
	t[0xC9] = Instruction{"RET", 1, 16, ret}
	t[0xCB] = Instruction{"PREFIX CB", 2, 4, execCB}
	t[0xCD] = Instruction{"CALL a16", 3, 24, call}
	t[0xD9] = Instruction{"RETI", 1, 16, reti}
	t[0xE0] = Instruction{"LDH (a8),A", 2, 12, ldhAddrA}
	t[0xE2] = Instruction{"LD (C),A", 1, 8, ldhCA}
	t[0xE8] = Instruction{"ADD SP,e8", 2, 16, addSPImm}
	t[0xE9] = Instruction{"JP HL", 1, 4, jpHL}
	t[0xEA] = Instruction{"LD (a16),A", 3, 16, ldAddrA}
	t[0xF0] = Instruction{"LDH A,(a8)", 2, 12, ldhAAddr}
	t[0xF2] = Instruction{"LD A,(C)", 1, 8, ldhAC}
	t[0xF3] = Instruction{"DI", 1, 4, di}
	t[0xF8] = Instruction{"LD HL,SP+e8", 2, 12, ldHLSPImm}
	t[0xF9] = Instruction{"LD SP,HL", 1, 8, ldSPHL}
	t[0xFA] = Instruction{"LD A,(a16)", 3, 16, ldAAddr}
	t[0xFB] = Instruction{"EI", 1, 4, ei}

	return t
}

func nop(State) Delta {
	return Delta{}
}

// halt is shared by HALT and STOP; STOP is treated as a HALT that is two bytes long.
func halt(State) Delta {
	return Delta{Halt: true}
}

func di(State) Delta {
	return Delta{IME: IMEDisable}
}

func ei(State) Delta {
	return Delta{IME: IMEEnable}
}

// 16-bit loads and arithmetic

func ld16(p Pair) effect {
	return func(s State) Delta {
		return Delta{Regs: RegisterDelta{}.WithPair(p, s.imm16())}
	}
}

// inc16 and dec16 never touch the flags.
func inc16(p Pair) effect {
	return func(s State) Delta {
		return Delta{Regs: RegisterDelta{}.WithPair(p, s.Regs.Pair(p)+1)}
	}
}

func dec16(p Pair) effect {
	return func(s State) Delta {
		return Delta{Regs: RegisterDelta{}.WithPair(p, s.Regs.Pair(p)-1)}
	}
}

func addHLPair(p Pair) effect {
	return func(s State) Delta {
		result, flags := addHL(s.Regs.HL(), s.Regs.Pair(p))
		return Delta{Regs: RegisterDelta{}.WithPair(PairHL, result), Flags: flags}
	}
}

func ldAddrSP(s State) Delta {
	address := s.imm16()
	return Delta{Memory: []memory.Edit{
		{Address: address, Value: bit.Low(s.Regs.SP)},
		{Address: address + 1, Value: bit.High(s.Regs.SP)},
	}}
}

func addSPImm(s State) Delta {
	result, flags := addSP(s.Regs.SP, s.imm8())
	return Delta{Regs: RegisterDelta{}.WithSP(result), Flags: flags}
}

func ldHLSPImm(s State) Delta {
	result, flags := addSP(s.Regs.SP, s.imm8())
	return Delta{Regs: RegisterDelta{}.WithPair(PairHL, result), Flags: flags}
}

func ldSPHL(s State) Delta {
	return Delta{Regs: RegisterDelta{}.WithSP(s.Regs.HL())}
}

// indirect is the addressing mode of the LD (rr),A and LD A,(rr) family.
type indirect uint8

const (
	viaBC indirect = iota
	viaDE
	viaHLI // HL, incremented afterwards
	viaHLD // HL, decremented afterwards
)

func (m indirect) String() string {
	return [...]string{"BC", "DE", "HL+", "HL-"}[m]
}

// address returns the address selected by the mode and the update of HL it implies.
func (m indirect) address(s State) (uint16, RegisterDelta) {
	switch m {
	case viaBC:
		return s.Regs.BC(), RegisterDelta{}
	case viaDE:
		return s.Regs.DE(), RegisterDelta{}
	case viaHLI:
		return s.Regs.HL(), RegisterDelta{}.WithPair(PairHL, s.Regs.HL()+1)
	default:
		return s.Regs.HL(), RegisterDelta{}.WithPair(PairHL, s.Regs.HL()-1)
	}
}

func ldIndirectA(m indirect) effect {
	return func(s State) Delta {
		address, regs := m.address(s)
		return Delta{Regs: regs, Memory: []memory.Edit{{Address: address, Value: s.Regs.A}}}
	}
}

func ldAIndirect(m indirect) effect {
	return func(s State) Delta {
		address, regs := m.address(s)
		return Delta{Regs: regs.With(RegA, s.Mem.Read(address))}
	}
}

func ldAddrA(s State) Delta {
	return Delta{Memory: []memory.Edit{{Address: s.imm16(), Value: s.Regs.A}}}
}

func ldAAddr(s State) Delta {
	return Delta{Regs: RegisterDelta{}.With(RegA, s.Mem.Read(s.imm16()))}
}

// high memory: 0xFF00 + offset

func ldhAddrA(s State) Delta {
	return Delta{Memory: []memory.Edit{{Address: 0xFF00 | uint16(s.imm8()), Value: s.Regs.A}}}
}

func ldhAAddr(s State) Delta {
	return Delta{Regs: RegisterDelta{}.With(RegA, s.Mem.Read(0xFF00|uint16(s.imm8())))}
}

func ldhCA(s State) Delta {
	return Delta{Memory: []memory.Edit{{Address: 0xFF00 | uint16(s.Regs.C), Value: s.Regs.A}}}
}

func ldhAC(s State) Delta {
	return Delta{Regs: RegisterDelta{}.With(RegA, s.Mem.Read(0xFF00|uint16(s.Regs.C)))}
}

// 8-bit loads, inc and dec. The operand can be (HL), which turns the
// register write into a memory edit.

func ldRR(dst, src uint8) effect {
	return func(s State) Delta {
		d := Delta{}
		s.setOperand(&d, dst, s.operand(src))
		return d
	}
}

func ldImm(dst uint8) effect {
	return func(s State) Delta {
		d := Delta{}
		s.setOperand(&d, dst, s.imm8())
		return d
	}
}

func incR(i uint8) effect {
	return func(s State) Delta {
		result, flags := inc8(s.operand(i))
		d := Delta{Flags: flags}
		s.setOperand(&d, i, result)
		return d
	}
}

func decR(i uint8) effect {
	return func(s State) Delta {
		result, flags := dec8(s.operand(i))
		d := Delta{Flags: flags}
		s.setOperand(&d, i, result)
		return d
	}
}

// 8-bit arithmetic and logic on A

type aluFunc func(s State, value uint8) Delta

var aluOps = [8]struct {
	name string
	fn   aluFunc
}{
	{"ADD A,", func(s State, v uint8) Delta { return toA(add8(s.Regs.A, v, 0)) }},
	{"ADC A,", func(s State, v uint8) Delta { return toA(add8(s.Regs.A, v, s.carry())) }},
	{"SUB ", func(s State, v uint8) Delta { return toA(sub8(s.Regs.A, v, 0)) }},
	{"SBC A,", func(s State, v uint8) Delta { return toA(sub8(s.Regs.A, v, s.carry())) }},
	{"AND ", func(s State, v uint8) Delta { return toA(and8(s.Regs.A, v)) }},
	{"XOR ", func(s State, v uint8) Delta { return toA(xor8(s.Regs.A, v)) }},
	{"OR ", func(s State, v uint8) Delta { return toA(or8(s.Regs.A, v)) }},
	{"CP ", cp},
}

// toA stores an ALU result in A.
func toA(result uint8, flags FlagDelta) Delta {
	return Delta{Regs: RegisterDelta{}.With(RegA, result), Flags: flags}
}

// cp is a subtraction that only keeps the flags.
func cp(s State, value uint8) Delta {
	_, flags := sub8(s.Regs.A, value, 0)
	return Delta{Flags: flags}
}

func aluOperand(fn aluFunc, src uint8) effect {
	return func(s State) Delta {
		return fn(s, s.operand(src))
	}
}

func aluImm(fn aluFunc) effect {
	return func(s State) Delta {
		return fn(s, s.imm8())
	}
}

func opDAA(s State) Delta {
	return toA(daa(s.Regs.A, s.Flags))
}

func cpl(s State) Delta {
	return Delta{Regs: RegisterDelta{}.With(RegA, ^s.Regs.A), Flags: FlagDelta{}.N(true).H(true)}
}

func scf(State) Delta {
	return Delta{Flags: FlagDelta{}.N(false).H(false).C(true)}
}

func ccf(s State) Delta {
	return Delta{Flags: FlagDelta{}.N(false).H(false).C(!s.Flags.Carry)}
}

// accumulator rotations

func rlca(s State) Delta {
	result, carry := rlc(s.Regs.A)
	return Delta{Regs: RegisterDelta{}.With(RegA, result), Flags: accumulatorShiftFlags(carry)}
}

func rrca(s State) Delta {
	result, carry := rrc(s.Regs.A)
	return Delta{Regs: RegisterDelta{}.With(RegA, result), Flags: accumulatorShiftFlags(carry)}
}

func rla(s State) Delta {
	result, carry := rl(s.Regs.A, s.carry())
	return Delta{Regs: RegisterDelta{}.With(RegA, result), Flags: accumulatorShiftFlags(carry)}
}

func rra(s State) Delta {
	result, carry := rr(s.Regs.A, s.carry())
	return Delta{Regs: RegisterDelta{}.With(RegA, result), Flags: accumulatorShiftFlags(carry)}
}

// jumps, calls and returns. Conditional forms return an empty delta when the
// condition fails, so the base (not taken) cost applies.

func jr(s State) Delta {
	return Delta{Regs: RegisterDelta{}.WithPC(s.Regs.PC + 2 + bit.SignExtend(s.imm8()))}
}

func jrIf(c condition) effect {
	return func(s State) Delta {
		if !s.check(c) {
			return Delta{}
		}
		d := jr(s)
		d.Cycles = 12
		return d
	}
}

func jp(s State) Delta {
	return Delta{Regs: RegisterDelta{}.WithPC(s.imm16())}
}

func jpIf(c condition) effect {
	return func(s State) Delta {
		if !s.check(c) {
			return Delta{}
		}
		d := jp(s)
		d.Cycles = 16
		return d
	}
}

func jpHL(s State) Delta {
	return Delta{Regs: RegisterDelta{}.WithPC(s.Regs.HL())}
}

func call(s State) Delta {
	return Delta{
		Regs:   RegisterDelta{}.WithSP(s.Regs.SP - 2).WithPC(s.imm16()),
		Memory: push(s.Regs.SP, s.Regs.PC+3),
	}
}

func callIf(c condition) effect {
	return func(s State) Delta {
		if !s.check(c) {
			return Delta{}
		}
		d := call(s)
		d.Cycles = 24
		return d
	}
}

func ret(s State) Delta {
	return Delta{Regs: RegisterDelta{}.WithSP(s.Regs.SP + 2).WithPC(s.pop())}
}

func retIf(c condition) effect {
	return func(s State) Delta {
		if !s.check(c) {
			return Delta{}
		}
		d := ret(s)
		d.Cycles = 20
		return d
	}
}

func reti(s State) Delta {
	d := ret(s)
	d.IME = IMEEnableNow
	return d
}

func rst(vector uint16) effect {
	return func(s State) Delta {
		return Delta{
			Regs:   RegisterDelta{}.WithSP(s.Regs.SP - 2).WithPC(vector),
			Memory: push(s.Regs.SP, s.Regs.PC+1),
		}
	}
}

// stack

func pushPair(p Pair) effect {
	return func(s State) Delta {
		return Delta{
			Regs:   RegisterDelta{}.WithSP(s.Regs.SP - 2),
			Memory: push(s.Regs.SP, s.Regs.Pair(p)),
		}
	}
}

// pop into AF writes F as read from the stack; the low nibble is dropped when
// the flags are applied.
func pop(p Pair) effect {
	return func(s State) Delta {
		return Delta{Regs: RegisterDelta{}.WithPair(p, s.pop()).WithSP(s.Regs.SP + 2)}
	}
}
