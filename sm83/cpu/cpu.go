package cpu

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/irq"
	"github.com/valerio/go-sm83/sm83/memory"
	"github.com/valerio/go-sm83/sm83/timing"
)

const (
	// haltCycles is the cost of a step spent in low power mode.
	haltCycles = 4
	// dispatchCycles is the cost of jumping to an interrupt handler.
	dispatchCycles = 20
	// entryCycles is the extra cost of the first instruction run from the entry point.
	entryCycles = 4
)

// Bus is the memory the CPU is wired to. Peripherals share it.
type Bus interface {
	memory.Reader
	Write(address uint16, value byte)
	Apply(edits []memory.Edit)
}

// CPU owns the register file, flags and interrupt enable of an SM83 and
// drives the instruction engine over a bus.
type CPU struct {
	regs  Registers
	flags Flags
	ime   Scheduler

	halted  bool
	stalled bool
	cycles  uint64
	steps   uint64

	entryPoint uint16
	clockRate  int
	logger     *slog.Logger
	trace      bool
	// unknown records the addresses of unrecognized opcodes already reported.
	unknown map[uint16]struct{}

	bus Bus
}

// Option configures a CPU.
type Option func(*CPU)

// WithClockRate sets the clock rate, in machine cycles per second, used to
// convert cycles to durations.
func WithClockRate(rate int) Option {
	return func(c *CPU) {
		c.clockRate = rate
	}
}

// WithEntryPoint sets the address execution starts from after reset.
func WithEntryPoint(address uint16) Option {
	return func(c *CPU) {
		c.entryPoint = address
	}
}

// WithLogger sets the logger used for warnings and traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *CPU) {
		c.logger = l
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(c *CPU) {
		c.trace = enabled
	}
}

func initializeMemory(bus Bus) {
	bus.Apply([]memory.Edit{
		{Address: addr.P1, Value: 0xCF},
		{Address: addr.TIMA, Value: 0x00},
		{Address: addr.TMA, Value: 0x00},
		{Address: addr.TAC, Value: 0x00},
		{Address: addr.NR10, Value: 0x80},
		{Address: addr.NR11, Value: 0xBF},
		{Address: addr.NR12, Value: 0xF3},
		{Address: addr.NR14, Value: 0xBF},
		{Address: addr.NR21, Value: 0x3F},
		{Address: addr.NR22, Value: 0x00},
		{Address: addr.NR24, Value: 0xBF},
		{Address: addr.NR30, Value: 0x7F},
		{Address: addr.NR31, Value: 0xFF},
		{Address: addr.NR32, Value: 0x9F},
		{Address: addr.NR33, Value: 0xBF},
		{Address: addr.NR41, Value: 0xFF},
		{Address: addr.NR42, Value: 0x00},
		{Address: addr.NR43, Value: 0x00},
		{Address: addr.NR44, Value: 0xBF},
		{Address: addr.NR50, Value: 0x77},
		{Address: addr.NR51, Value: 0xF3},
		{Address: addr.NR52, Value: 0xF1},
		{Address: addr.LCDC, Value: 0x91},
		{Address: addr.SCY, Value: 0x00},
		{Address: addr.SCX, Value: 0x00},
		{Address: addr.LYC, Value: 0x00},
		{Address: addr.BGP, Value: 0xFC},
		{Address: addr.OBP0, Value: 0xFF},
		{Address: addr.OBP1, Value: 0xFF},
		{Address: addr.WY, Value: 0x00},
		{Address: addr.WX, Value: 0x00},
		{Address: addr.IF, Value: 0xE1},
		{Address: addr.IE, Value: 0x00},
	})
}

// New returns a CPU in the state the boot ROM leaves it in, and writes the
// post-boot I/O register values to the bus.
func New(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		bus:        bus,
		entryPoint: addr.EntryPoint,
		clockRate:  timing.MachineCycleRate,
		logger:     slog.Default(),
		unknown:    map[uint16]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}

	initializeMemory(bus)

	c.regs = Registers{
		A: 0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE,
		PC: c.entryPoint,
	}
	c.flags = FlagsFromByte(c.regs.F)

	return c
}

// Step runs one instruction, services a pending interrupt or idles while
// halted. Returns the emulated time it took.
func (c *CPU) Step() time.Duration {
	return c.run(c.next())
}

// Execute runs the given opcode as if it was located at PC.
func (c *CPU) Execute(opcode uint8) time.Duration {
	return c.ExecuteWithArgs(opcode)
}

// ExecuteWithArgs runs the given opcode as if it was located at PC, with
// the operand given as written in assembly, most significant byte first:
// ExecuteWithArgs(0x01, 0xA0, 0x01) is LD BC,0xA001. The operand is stored
// little endian after PC, so memory at PC+1 holds the last argument (0x01
// above) and PC+2 the first. Extended opcodes take the byte after the prefix
// as their only argument.
func (c *CPU) ExecuteWithArgs(opcode uint8, args ...uint8) time.Duration {
	for i, arg := range args {
		c.bus.Write(c.regs.PC+uint16(len(args)-i), arg)
	}
	return c.run(c.decode(opcode))
}

// next picks what the current step does: idle, wake up, dispatch or decode.
func (c *CPU) next() Delta {
	pending := irq.Pending(c.bus.Read(addr.IE), c.bus.Read(addr.IF))

	if c.halted && pending == 0 {
		return Delta{Cycles: haltCycles, Halt: true}
	}
	if pending != 0 && c.ime.Enabled() {
		return c.dispatch(pending)
	}
	return c.decode(c.bus.Read(c.regs.PC))
}

func (c *CPU) decode(opcode uint8) Delta {
	s := c.state()
	d := DecodeOpcode(opcode, s)

	if d.IsNoop() {
		if _, seen := c.unknown[c.regs.PC]; !seen {
			c.unknown[c.regs.PC] = struct{}{}
			c.logger.Warn("unrecognized opcode", "opcode", fmt.Sprintf("0x%02X", opcode), "pc", fmt.Sprintf("0x%04X", c.regs.PC))
		}
	} else if c.trace {
		c.logger.Debug("exec", "pc", fmt.Sprintf("0x%04X", c.regs.PC), "instr", mnemonicOf(opcode, s), "delta", d.String())
	}
	return d
}

// dispatch pushes PC and jumps to the handler of the highest priority
// pending interrupt, acknowledging it.
func (c *CPU) dispatch(pending uint8) Delta {
	i, _ := irq.Highest(pending)
	if c.trace {
		c.logger.Debug("interrupt", "source", i.String(), "pc", fmt.Sprintf("0x%04X", c.regs.PC))
	}
	return Delta{
		Cycles: dispatchCycles,
		Regs:   RegisterDelta{}.WithSP(c.regs.SP - 2).WithPC(i.Vector()),
		Memory: append(push(c.regs.SP, c.regs.PC), irq.Acknowledge(c.bus, i)),
		IME:    IMEDisable,
	}
}

// run applies a delta and converts its cost to emulated time.
func (c *CPU) run(d Delta) time.Duration {
	cycles := c.apply(d)
	return timing.ToDuration(cycles, c.clockRate)
}

// apply commits a delta: interrupt enable first, then registers, flags,
// memory and finally PC. Returns the cycles charged.
func (c *CPU) apply(d Delta) int {
	if c.steps == 0 && c.regs.PC == c.entryPoint && !d.IsNoop() {
		d.Cycles += entryCycles
	}

	c.ime.Step(d.IME)

	c.regs.Apply(d.Regs)
	if _, ok := d.Regs.Get(RegF); ok {
		c.flags = FlagsFromByte(c.regs.F)
	}
	c.flags.Apply(d.Flags)
	c.regs.F = c.flags.Byte()

	c.bus.Apply(d.Memory)

	if _, jumped := d.Regs.PC(); !jumped {
		c.regs.PC += uint16(d.Length)
	}

	c.halted = d.Halt
	c.stalled = d.IsNoop()
	c.cycles += uint64(d.Cycles)
	c.steps++

	return d.Cycles
}

func (c *CPU) state() State {
	return State{Regs: c.regs, Flags: c.flags, Mem: c.bus}
}

func mnemonicOf(opcode uint8, s State) string {
	if opcode == prefixCB {
		return opcodesCB[s.imm8()].Mnemonic
	}
	return opcodes[opcode].Mnemonic
}

// Registers returns a copy of the register file.
func (c *CPU) Registers() Registers {
	return c.regs
}

// Flags returns a copy of the flags.
func (c *CPU) Flags() Flags {
	return c.flags
}

// IME returns the interrupt master enable state.
func (c *CPU) IME() IMEState {
	return c.ime.State()
}

// Halted is true while the CPU waits for an interrupt.
func (c *CPU) Halted() bool {
	return c.halted
}

// Stalled is true when the last step hit an unrecognized opcode and made no progress.
func (c *CPU) Stalled() bool {
	return c.stalled
}

// Cycles returns the total T-states elapsed since reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// ClockRate returns the clock rate in machine cycles per second.
func (c *CPU) ClockRate() int {
	return c.clockRate
}

// Status is a snapshot of the observable CPU state.
type Status struct {
	Registers
	Flags  Flags
	IME    IMEState
	Halted bool
	Cycles uint64
	IE, IF uint8
}

// Status returns a snapshot of the CPU state.
func (c *CPU) Status() Status {
	return Status{
		Registers: c.regs,
		Flags:     c.flags,
		IME:       c.ime.State(),
		Halted:    c.halted,
		Cycles:    c.cycles,
		IE:        c.bus.Read(addr.IE),
		IF:        c.bus.Read(addr.IF),
	}
}

func (s Status) String() string {
	return fmt.Sprintf(
		"AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X flags=%s ime=%s halted=%t cycles=%d IE=%02X IF=%02X",
		s.AF(), s.BC(), s.DE(), s.HL(), s.SP, s.PC, s.Flags, s.IME, s.Halted, s.Cycles, s.IE, s.IF,
	)
}
