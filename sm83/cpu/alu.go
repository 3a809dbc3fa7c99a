package cpu

import "github.com/valerio/go-sm83/sm83/bit"

// The helpers below are pure: they compute a result and the flags it
// produces, leaving it to the opcode to decide where the result goes.

// add8 adds value and an incoming carry (0 or 1) to a.
func add8(a, value, carry uint8) (uint8, FlagDelta) {
	result := a + value + carry
	return result, znhc(result == 0, false, bit.HalfCarry(a, value, carry), bit.Carry(a, value, carry))
}

// sub8 subtracts value and an incoming carry (0 or 1) from a.
func sub8(a, value, carry uint8) (uint8, FlagDelta) {
	result := a - value - carry
	return result, znhc(result == 0, true, bit.HalfBorrow(a, value, carry), bit.Borrow(a, value, carry))
}

func and8(a, value uint8) (uint8, FlagDelta) {
	result := a & value
	return result, znhc(result == 0, false, true, false)
}

func xor8(a, value uint8) (uint8, FlagDelta) {
	result := a ^ value
	return result, znhc(result == 0, false, false, false)
}

func or8(a, value uint8) (uint8, FlagDelta) {
	result := a | value
	return result, znhc(result == 0, false, false, false)
}

// inc8 leaves the carry flag alone.
func inc8(value uint8) (uint8, FlagDelta) {
	result := value + 1
	return result, FlagDelta{}.Z(result == 0).N(false).H(bit.HalfCarry(value, 1, 0))
}

// dec8 leaves the carry flag alone.
func dec8(value uint8) (uint8, FlagDelta) {
	result := value - 1
	return result, FlagDelta{}.Z(result == 0).N(true).H(bit.HalfBorrow(value, 1, 0))
}

// addHL adds a 16 bit value to HL. The half carry comes out of bit 11 and the
// carry out of bit 15, as the hardware does the sum in two 8 bit steps.
// The zero flag is left alone.
func addHL(hl, value uint16) (uint16, FlagDelta) {
	return hl + value, FlagDelta{}.N(false).H(bit.HalfCarry16(hl, value)).C(bit.Carry16(hl, value))
}

// addSP adds a signed offset to SP. The flags come from the unsigned sum of
// the low byte of SP and the offset byte; zero and subtract are cleared.
func addSP(sp uint16, offset uint8) (uint16, FlagDelta) {
	low := bit.Low(sp)
	_, carry := bit.CheckedAdd(low, offset)
	return sp + bit.SignExtend(offset), znhc(false, false, bit.HalfCarry(low, offset, 0), carry)
}

// rotation and shift results: the new value and the bit shifted out.

func rlc(value uint8) (uint8, bool) {
	return value<<1 | bit.Value(7, value), bit.IsSet(7, value)
}

func rrc(value uint8) (uint8, bool) {
	return value>>1 | bit.Value(0, value)<<7, bit.IsSet(0, value)
}

func rl(value, carry uint8) (uint8, bool) {
	return value<<1 | carry, value&0x80 != 0
}

func rr(value, carry uint8) (uint8, bool) {
	return value>>1 | carry<<7, value&0x01 != 0
}

func sla(value uint8) (uint8, bool) {
	return value << 1, value&0x80 != 0
}

// sra keeps bit 7 in place.
func sra(value uint8) (uint8, bool) {
	return value>>1 | value&0x80, value&0x01 != 0
}

func srl(value uint8) (uint8, bool) {
	return value >> 1, value&0x01 != 0
}

func swap(value uint8) (uint8, bool) {
	return value<<4 | value>>4, false
}

// shiftFlags are the flags of the CB prefixed rotations and shifts.
func shiftFlags(result uint8, carry bool) FlagDelta {
	return znhc(result == 0, false, false, carry)
}

// accumulatorShiftFlags are the flags of RLCA, RRCA, RLA and RRA: unlike the
// CB prefixed forms the zero flag is always cleared.
func accumulatorShiftFlags(carry bool) FlagDelta {
	return znhc(false, false, false, carry)
}

// bitTest checks a single bit: zero is set if it is 0. Carry is untouched.
func bitTest(index, value uint8) FlagDelta {
	return FlagDelta{}.Z(!bit.IsSet(index, value)).N(false).H(true)
}

// daa adjusts A to a valid BCD value after an addition or subtraction,
// using the flags left by that operation.
func daa(a uint8, f Flags) (uint8, FlagDelta) {
	var adjust uint8
	carry := f.Carry

	if f.Subtract {
		if f.HalfCarry {
			adjust |= 0x06
		}
		if f.Carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if f.HalfCarry || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if f.Carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	return a, FlagDelta{}.Z(a == 0).H(false).C(carry)
}
