// Package serial implements a serial port peer that captures outgoing bytes.
// Test ROMs print their results through it.
package serial

import (
	"io"
	"log/slog"

	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/irq"
	"github.com/valerio/go-sm83/sm83/memory"
)

// transferCycles is the duration of a byte transfer on the internal clock
// (8192 Hz), in T-states.
const transferCycles = 4096

// registers covers SB and SC.
var registers = memory.Span(addr.SB, addr.SC)

// Bus is the part of the shared bus the sink needs.
type Bus interface {
	memory.Reader
	Slice(r memory.Range) []byte
	Apply(edits []memory.Edit)
}

// Sink is a serial device with nothing connected on the other end. It polls
// SB/SC on every tick; when a transfer is started with the internal clock it
// records the outgoing byte, shifts in 0xFF and raises the serial interrupt.
type Sink struct {
	bus    Bus
	logger *slog.Logger
	mirror io.Writer

	immediate      bool
	transferActive bool
	countdown      int
	defaultRX      byte

	out  []byte
	line []byte
}

type Option func(*Sink)

// WithFixedTiming completes transfers after 4096 T-states, as the hardware
// does on the internal clock, instead of immediately.
func WithFixedTiming() Option { return func(s *Sink) { s.immediate = false } }

// WithLogger sets the logger complete lines are written to.
func WithLogger(l *slog.Logger) Option { return func(s *Sink) { s.logger = l } }

// WithMirror copies every received byte to w.
func WithMirror(w io.Writer) Option { return func(s *Sink) { s.mirror = w } }

// New creates a sink polling the given bus.
func New(bus Bus, opts ...Option) *Sink {
	s := &Sink{
		bus:       bus,
		immediate: true,
		defaultRX: 0xFF,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick advances the sink by the given number of T-states.
func (s *Sink) Tick(cycles int) {
	if s.transferActive {
		s.countdown -= cycles
		if s.countdown <= 0 {
			s.completeTransfer()
		}
		return
	}

	regs := s.bus.Slice(registers)
	sb, sc := regs[0], regs[1]

	// a transfer starts when bit 7 (start) and bit 0 (internal clock) of SC are set.
	if !bit.IsSet(7, sc) || !bit.IsSet(0, sc) {
		return
	}

	s.record(sb)

	if s.immediate {
		s.completeTransfer()
		return
	}
	s.transferActive = true
	s.countdown = transferCycles
}

func (s *Sink) record(b byte) {
	s.out = append(s.out, b)
	if s.mirror != nil {
		_, _ = s.mirror.Write([]byte{b})
	}

	// buffer until newline for readability
	if b == 0 || b == '\n' || b == '\r' {
		s.Flush()
		return
	}
	s.line = append(s.line, b)
}

func (s *Sink) completeTransfer() {
	s.transferActive = false
	s.countdown = 0
	s.bus.Apply([]memory.Edit{
		{Address: addr.SB, Value: s.defaultRX},
		{Address: addr.SC, Value: bit.Clear(7, s.bus.Read(addr.SC))},
		irq.Request(s.bus, addr.SerialInterrupt),
	})
}

// Flush logs the pending partial line, if any.
func (s *Sink) Flush() {
	if len(s.line) == 0 {
		return
	}
	s.logger.Info("serial", "line", string(s.line))
	s.line = s.line[:0]
}

// Output returns everything sent so far.
func (s *Sink) Output() string {
	return string(s.out)
}

// Busy is true while a timed transfer is in progress.
func (s *Sink) Busy() bool {
	return s.transferActive
}

// Reset drops the captured output and any transfer in progress.
func (s *Sink) Reset() {
	s.transferActive = false
	s.countdown = 0
	s.out = s.out[:0]
	s.line = s.line[:0]
}
