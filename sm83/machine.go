// Package sm83 wires the CPU, the shared bus and the bus peripherals into a
// machine that runs program images.
package sm83

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/cpu"
	"github.com/valerio/go-sm83/sm83/memory"
	"github.com/valerio/go-sm83/sm83/serial"
	"github.com/valerio/go-sm83/sm83/timer"
	"github.com/valerio/go-sm83/sm83/timing"
)

var (
	// ErrStalled is returned when the CPU hits an unrecognized opcode and can
	// make no further progress.
	ErrStalled = errors.New("cpu stalled on unrecognized opcode")
	// ErrCycleLimit is returned when a run ends on its cycle budget before
	// its stop condition is met.
	ErrCycleLimit = errors.New("cycle limit reached")
)

// ROM is the area program images are loaded into. There is no bank
// switching: larger images are truncated.
var ROM = memory.Span(addr.ROMStart, addr.ROMEnd)

// Machine is an SM83 with a flat bus, a serial port and a timer.
type Machine struct {
	bus    *memory.Bus
	cpu    *cpu.CPU
	serial *serial.Sink
	timer  *timer.Timer
	logger *slog.Logger
}

type config struct {
	cpuOpts    []cpu.Option
	serialOpts []serial.Option
	logger     *slog.Logger
}

// Option configures a Machine.
type Option func(*config)

// WithCPUOptions passes options to the CPU.
func WithCPUOptions(opts ...cpu.Option) Option {
	return func(c *config) {
		c.cpuOpts = append(c.cpuOpts, opts...)
	}
}

// WithSerialOptions passes options to the serial sink.
func WithSerialOptions(opts ...serial.Option) Option {
	return func(c *config) {
		c.serialOpts = append(c.serialOpts, opts...)
	}
}

// WithLogger sets the logger of the machine and all its components.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New creates a machine with an empty bus.
func New(opts ...Option) *Machine {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	bus := memory.New()
	return &Machine{
		bus:    bus,
		cpu:    cpu.New(bus, append([]cpu.Option{cpu.WithLogger(cfg.logger)}, cfg.cpuOpts...)...),
		serial: serial.New(bus, append([]serial.Option{serial.WithLogger(cfg.logger)}, cfg.serialOpts...)...),
		timer:  timer.New(bus, timer.PostBootSeed),
		logger: cfg.logger,
	}
}

// NewWithROM creates a machine with the program image loaded at 0x0000.
func NewWithROM(data []byte, opts ...Option) (*Machine, error) {
	m := New(opts...)
	if err := m.bus.LoadBulk(ROM, data); err != nil {
		return nil, fmt.Errorf("loading rom: %w", err)
	}
	if len(data) > ROM.Len {
		m.logger.Warn("rom larger than the flat rom area, truncated", "size", len(data), "loaded", ROM.Len)
	}
	m.logger.Debug("loaded rom", "bytes", min(len(data), ROM.Len))
	return m, nil
}

// NewWithFile creates a machine and loads the file specified into it.
func NewWithFile(path string, opts ...Option) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}
	return NewWithROM(data, opts...)
}

// Step runs one CPU step and ticks the peripherals by the cycles it took.
func (m *Machine) Step() (time.Duration, error) {
	before := m.cpu.Cycles()
	d := m.cpu.Step()
	if m.cpu.Stalled() {
		return d, fmt.Errorf("pc 0x%04X: %w", m.cpu.Registers().PC, ErrStalled)
	}

	cycles := int(m.cpu.Cycles() - before)
	m.timer.Tick(cycles)
	m.serial.Tick(cycles)
	return d, nil
}

// RunCycles steps until at least n T-states have elapsed. With n = 0 it
// runs until the CPU stalls.
func (m *Machine) RunCycles(n uint64) (time.Duration, error) {
	return m.run(nil, n)
}

// RunUntil steps until done returns true, giving up after maxCycles T-states
// with ErrCycleLimit. A maxCycles of 0 means no limit.
func (m *Machine) RunUntil(done func(*Machine) bool, maxCycles uint64) (time.Duration, error) {
	return m.run(done, maxCycles)
}

func (m *Machine) run(done func(*Machine) bool, maxCycles uint64) (time.Duration, error) {
	start := m.cpu.Cycles()
	var elapsed time.Duration

	for {
		if done != nil && done(m) {
			return elapsed, nil
		}
		if maxCycles > 0 && m.cpu.Cycles()-start >= maxCycles {
			if done == nil {
				return elapsed, nil
			}
			return elapsed, fmt.Errorf("after %d cycles: %w", maxCycles, ErrCycleLimit)
		}

		d, err := m.Step()
		elapsed += d
		if err != nil {
			return elapsed, err
		}
	}
}

// Elapsed returns the emulated time since reset.
func (m *Machine) Elapsed() time.Duration {
	return timing.ToDuration(int(m.cpu.Cycles()), m.cpu.ClockRate())
}

func (m *Machine) CPU() *cpu.CPU {
	return m.cpu
}

func (m *Machine) Bus() *memory.Bus {
	return m.bus
}

func (m *Machine) Serial() *serial.Sink {
	return m.serial
}

func (m *Machine) Timer() *timer.Timer {
	return m.timer
}
