package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/go-sm83/sm83/bit"
)

// Size is the number of addressable bytes, the full 16 bit address space.
const Size = 0x10000

// ErrRangeOutOfBounds is returned when a range handed to the bus from the
// outside does not fit in the address space.
var ErrRangeOutOfBounds = errors.New("range out of bounds")

// Reader is the read-only view of the bus used while decoding instructions.
type Reader interface {
	Read(address uint16) byte
}

// ReadWord reads a little endian 16 bit value, wrapping at the end of the address space.
func ReadWord(r Reader, address uint16) uint16 {
	return bit.Combine(r.Read(address+1), r.Read(address))
}

// Edit is a single pending write to the bus.
type Edit struct {
	Address uint16
	Value   byte
}

func (e Edit) String() string {
	return fmt.Sprintf("[0x%04X]=0x%02X", e.Address, e.Value)
}

// Range is a contiguous region of the address space.
type Range struct {
	Start uint16
	Len   int
}

// Span returns the range covering start to end, both inclusive.
func Span(start, end uint16) Range {
	return Range{Start: start, Len: int(end) - int(start) + 1}
}

// Validate checks that the range fits in the address space without wrapping.
func (r Range) Validate() error {
	if r.Len < 0 || int(r.Start)+r.Len > Size {
		return fmt.Errorf("0x%04X+%d: %w", r.Start, r.Len, ErrRangeOutOfBounds)
	}
	return nil
}

// Bus is the flat byte addressable memory shared by the CPU and peripherals.
// There is no region model: ROM, RAM and I/O are conventions of the callers.
// It is not safe for concurrent use.
type Bus struct {
	memory [Size]byte

	// one bit per address
	watched [Size / 64]uint64
	written [Size / 64]uint64
}

// New creates a zeroed bus.
func New() *Bus {
	return &Bus{}
}

func (b *Bus) Read(address uint16) byte {
	return b.memory[address]
}

func (b *Bus) Write(address uint16, value byte) {
	b.store(address, value)
}

func (b *Bus) store(address uint16, value byte) {
	b.memory[address] = value
	word, mask := address>>6, uint64(1)<<(address&63)
	if b.watched[word]&mask != 0 {
		b.written[word] |= mask
	}
}

// Watch latches writes to address, including writes of the value it already
// holds. The latch is read and cleared by Written.
func (b *Bus) Watch(address uint16) {
	b.watched[address>>6] |= uint64(1) << (address & 63)
}

// Written reports whether a watched address was written through Write or
// Apply since the last call, and clears the latch.
func (b *Bus) Written(address uint16) bool {
	word, mask := address>>6, uint64(1)<<(address&63)
	hit := b.written[word]&mask != 0
	b.written[word] &^= mask
	return hit
}

// Apply writes the edits in order, so later edits to the same address win.
func (b *Bus) Apply(edits []Edit) {
	for _, e := range edits {
		b.store(e.Address, e.Value)
	}
}

// LoadBulk copies data into the bus starting at r.Start. At most r.Len bytes
// are copied; a shorter data slice leaves the rest of the range untouched.
func (b *Bus) LoadBulk(r Range, data []byte) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("load bulk: %w", err)
	}

	n := min(r.Len, len(data))
	copy(b.memory[int(r.Start):int(r.Start)+n], data[:n])
	return nil
}

// Slice returns a copy of the bytes covered by the range. Addresses wrap at
// the end of the address space.
func (b *Bus) Slice(r Range) []byte {
	if r.Len <= 0 {
		return nil
	}
	out := make([]byte, r.Len)
	for i := range out {
		out[i] = b.memory[r.Start+uint16(i)]
	}
	return out
}
