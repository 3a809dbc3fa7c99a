package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// IsSet16 is IsSet for 16 bit values.
func IsSet16(index, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Clear will return the passed byte with the bit at the specified index set to 0.
func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// Value returns 1 if the bit at the specified index is set, 0 otherwise.
func Value(index, value uint8) uint8 {
	return (value >> index) & 1
}

// FromBool converts a condition to 1 or 0, handy for carry inputs.
func FromBool(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// HalfCarry reports a carry out of bit 3 when adding a, b and an incoming carry (0 or 1).
func HalfCarry(a, b, carry uint8) bool {
	return ((a&0x0F)+(b&0x0F)+carry)&0x10 != 0
}

// Carry reports a carry out of bit 7 when adding a, b and an incoming carry (0 or 1).
func Carry(a, b, carry uint8) bool {
	return (uint16(a)+uint16(b)+uint16(carry))&0x100 != 0
}

// HalfBorrow reports a borrow into bit 3 when computing a - b - carry.
// The nibble difference wraps, so any negative result has bit 4 set.
func HalfBorrow(a, b, carry uint8) bool {
	return ((a&0x0F)-(b&0x0F)-carry)&0x10 != 0
}

// Borrow reports a borrow into bit 7 when computing a - b - carry.
func Borrow(a, b, carry uint8) bool {
	return (uint16(a)-uint16(b)-uint16(carry))&0x100 != 0
}

// HalfCarry16 reports a carry out of bit 11 when adding two 16 bit values.
func HalfCarry16(a, b uint16) bool {
	return ((a&0x0FFF)+(b&0x0FFF))&0x1000 != 0
}

// Carry16 reports a carry out of bit 15 when adding two 16 bit values.
func Carry16(a, b uint16) bool {
	return (uint32(a)+uint32(b))&0x10000 != 0
}

// HalfBorrow16 reports a borrow into bit 11 when computing a - b.
// The 12 bit difference wraps in uint16, so any negative result has bit 12 set.
func HalfBorrow16(a, b uint16) bool {
	return ((a&0x0FFF)-(b&0x0FFF))&0x1000 != 0
}

// CheckedAdd adds two 8 bit unsigned values and detects if an overflow happened.
func CheckedAdd(a, b uint8) (result uint8, overflow bool) {
	return a + b, Carry(a, b, 0)
}

// SignExtend widens a relative offset byte (two's complement) to 16 bits,
// so that it can be added to an address with wrapping arithmetic.
func SignExtend(value uint8) uint16 {
	return uint16(int16(int8(value)))
}
