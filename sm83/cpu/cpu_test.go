package cpu

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/memory"
	"github.com/valerio/go-sm83/sm83/timing"
)

// newTestCPU returns a CPU running the program from 0xC000, away from the
// entry point so that no entry cost is charged.
func newTestCPU(t *testing.T, program ...uint8) (*CPU, *memory.Bus) {
	t.Helper()
	bus := memory.New()
	c := New(bus)
	c.regs.PC = 0xC000
	require.NoError(t, bus.LoadBulk(memory.Range{Start: 0xC000, Len: len(program)}, program))
	return c, bus
}

func setFlags(c *CPU, f Flags) {
	c.flags = f
	c.regs.F = f.Byte()
}

func cycles(n int) time.Duration {
	return timing.ToDuration(n, timing.MachineCycleRate)
}

func TestNew_PostBootState(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	r := c.Registers()
	assert.Equal(t, uint16(0x01B0), r.AF())
	assert.Equal(t, uint16(0x0013), r.BC())
	assert.Equal(t, uint16(0x00D8), r.DE())
	assert.Equal(t, uint16(0x014D), r.HL())
	assert.Equal(t, uint16(0xFFFE), r.SP)
	assert.Equal(t, uint16(0x0100), r.PC)
	assert.Equal(t, Flags{Zero: true, HalfCarry: true, Carry: true}, c.Flags())
	assert.Equal(t, IMEUnset, c.IME())
	assert.False(t, c.Halted())

	assert.Equal(t, uint8(0xE1), bus.Read(addr.IF))
	assert.Equal(t, uint8(0x00), bus.Read(addr.IE))
	assert.Equal(t, uint8(0x91), bus.Read(addr.LCDC))
	assert.Equal(t, uint8(0xF1), bus.Read(addr.NR52))

	assert.Equal(t,
		"AF=01B0 BC=0013 DE=00D8 HL=014D SP=FFFE PC=0100 flags=Z-HC ime=unset halted=false cycles=0 IE=00 IF=E1",
		c.Status().String())
}

func TestNew_Options(t *testing.T) {
	c := New(memory.New(), WithEntryPoint(0x0000), WithClockRate(1_000_000))
	assert.Equal(t, uint16(0x0000), c.Registers().PC)
	assert.Equal(t, 1_000_000, c.ClockRate())

	c.regs.PC = 0xC000
	assert.Equal(t, time.Microsecond, c.Execute(0x00))
}

func TestCPU_EndToEnd(t *testing.T) {
	bus := memory.New()
	c := New(bus)

	// first instruction from the entry point pays one extra machine cycle
	assert.Equal(t, cycles(16), c.ExecuteWithArgs(0x01, 0xA0, 0x01))
	assert.Equal(t, uint16(0xA001), c.Registers().BC())
	assert.Equal(t, uint16(0x0103), c.Registers().PC)
	assert.Equal(t, uint8(0x01), bus.Read(0x0101), "last argument right after the opcode")
	assert.Equal(t, uint8(0xA0), bus.Read(0x0102))

	assert.Equal(t, cycles(8), c.ExecuteWithArgs(0x3E, 0x64))
	assert.Equal(t, uint8(0x64), c.Registers().A)

	assert.Equal(t, cycles(8), c.Execute(0x02))
	assert.Equal(t, uint8(0x64), bus.Read(0xA001))
	assert.Equal(t, uint16(0x0106), c.Registers().PC)
	assert.Equal(t, uint64(32), c.Cycles())
}

func TestCPU_IncB(t *testing.T) {
	for _, carry := range []bool{false, true} {
		c, _ := newTestCPU(t)
		c.regs.B = 0xFF
		setFlags(c, Flags{Subtract: true, Carry: carry})

		c.Execute(0x04)

		assert.Equal(t, uint8(0x00), c.Registers().B)
		assert.Equal(t, Flags{Zero: true, HalfCarry: true, Carry: carry}, c.Flags())
		assert.Equal(t, c.Flags().Byte(), c.Registers().F)
		assert.Equal(t, uint16(0xC001), c.Registers().PC)
	}
}

func TestCPU_Inc16Wraps(t *testing.T) {
	for i, p := range rp {
		t.Run(p.String(), func(t *testing.T) {
			c, _ := newTestCPU(t)
			c.regs.Apply(RegisterDelta{}.WithPair(p, 0xFFFF))
			setFlags(c, Flags{Subtract: true, HalfCarry: true})

			assert.Equal(t, cycles(8), c.Execute(uint8(i)<<4|0x03))
			assert.Equal(t, uint16(0x0000), c.Registers().Pair(p))
			assert.Equal(t, Flags{Subtract: true, HalfCarry: true}, c.Flags())
		})
	}
}

func TestCPU_RotateThroughCarry(t *testing.T) {
	c, _ := newTestCPU(t)
	c.regs.B = 0x80
	setFlags(c, Flags{})

	c.ExecuteWithArgs(0xCB, 0x10)
	assert.Equal(t, uint8(0x00), c.Registers().B)
	assert.Equal(t, Flags{Zero: true, Carry: true}, c.Flags())

	c.ExecuteWithArgs(0xCB, 0x10)
	assert.Equal(t, uint8(0x01), c.Registers().B)
	assert.Equal(t, Flags{}, c.Flags())
	assert.Equal(t, uint16(0xC004), c.Registers().PC)
}

func TestCPU_PushPopAF(t *testing.T) {
	c, bus := newTestCPU(t)
	c.regs.B, c.regs.C = 0x12, 0xFF

	c.Execute(0xC5) // PUSH BC
	assert.Equal(t, uint16(0xFFFC), c.Registers().SP)
	assert.Equal(t, uint8(0x12), bus.Read(0xFFFD))
	assert.Equal(t, uint8(0xFF), bus.Read(0xFFFC))

	c.Execute(0xF1) // POP AF
	assert.Equal(t, uint8(0x12), c.Registers().A)
	assert.Equal(t, uint8(0xF0), c.Registers().F, "low nibble of F always reads 0")
	assert.Equal(t, Flags{Zero: true, Subtract: true, HalfCarry: true, Carry: true}, c.Flags())
	assert.Equal(t, uint16(0xFFFE), c.Registers().SP)
}

func TestCPU_StepFetchesFromMemory(t *testing.T) {
	c, bus := newTestCPU(t,
		0x3E, 0x42,       // LD A,0x42
		0xEA, 0x00, 0xD0, // LD (0xD000),A
		0x18, 0xFE,       // JR -2
	)

	assert.Equal(t, cycles(8), c.Step())
	assert.Equal(t, cycles(16), c.Step())
	assert.Equal(t, uint8(0x42), bus.Read(0xD000))

	assert.Equal(t, cycles(12), c.Step())
	assert.Equal(t, uint16(0xC005), c.Registers().PC)
	c.Step()
	assert.Equal(t, uint16(0xC005), c.Registers().PC, "jump to self")
}

func TestCPU_EntryCost(t *testing.T) {
	c := New(memory.New())

	assert.Equal(t, cycles(8), c.Step())
	assert.Equal(t, cycles(4), c.Step())
	assert.Equal(t, uint64(12), c.Cycles())
}

func TestCPU_UnrecognizedOpcode(t *testing.T) {
	buf := &bytes.Buffer{}
	bus := memory.New()
	c := New(bus, WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	c.regs.PC = 0xC000
	bus.Write(0xC000, 0xD3)

	for range 3 {
		assert.Equal(t, time.Duration(0), c.Step())
		assert.Equal(t, uint16(0xC000), c.Registers().PC)
		assert.True(t, c.Stalled())
	}
	assert.Equal(t, uint64(0), c.Cycles())
	assert.Equal(t, 1, strings.Count(buf.String(), "unrecognized opcode"), "reported once per address")
	assert.Contains(t, buf.String(), "opcode=0xD3")

	c.regs.PC = 0xC001
	c.Step()
	assert.False(t, c.Stalled())
}

func TestCPU_Trace(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(memory.New(), WithLogger(logger), WithTrace(true))

	c.Step()

	assert.Contains(t, buf.String(), "msg=exec")
	assert.Contains(t, buf.String(), "instr=NOP")
	assert.Contains(t, buf.String(), "pc=0x0100")
}

func TestCPU_InterruptEnableDelay(t *testing.T) {
	c, bus := newTestCPU(t, 0xFB, 0x00, 0x00) // EI; NOP; NOP
	bus.Write(addr.IE, 0x01)                  // VBlank is already requested after boot

	c.Step()
	assert.Equal(t, IMEScheduled, c.IME())
	assert.Equal(t, uint16(0xC001), c.Registers().PC)

	c.Step()
	assert.Equal(t, IMESet, c.IME())
	assert.Equal(t, uint16(0xC002), c.Registers().PC, "the instruction after EI runs before any interrupt")

	assert.Equal(t, cycles(20), c.Step())
	assert.Equal(t, uint16(0x0040), c.Registers().PC)
	assert.Equal(t, IMEUnset, c.IME())
}

func TestCPU_InterruptDispatch(t *testing.T) {
	testCases := []struct {
		desc      string
		ie, iflag uint8
		vector    uint16
		wantIF    uint8
	}{
		{desc: "vblank", ie: 0x01, iflag: 0xE1, vector: 0x40, wantIF: 0xE0},
		{desc: "lcd stat before timer", ie: 0x1F, iflag: 0xE6, vector: 0x48, wantIF: 0xE4},
		{desc: "timer", ie: 0x04, iflag: 0xE4, vector: 0x50, wantIF: 0xE0},
		{desc: "disabled sources are skipped", ie: 0x08, iflag: 0xE9, vector: 0x58, wantIF: 0xE1},
		{desc: "joypad", ie: 0xFF, iflag: 0xF0, vector: 0x60, wantIF: 0xE0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, bus := newTestCPU(t)
			c.ime.Apply(IMEEnableNow)
			bus.Write(addr.IE, tC.ie)
			bus.Write(addr.IF, tC.iflag)

			assert.Equal(t, cycles(20), c.Step())

			r := c.Registers()
			assert.Equal(t, tC.vector, r.PC)
			assert.Equal(t, uint16(0xFFFC), r.SP)
			assert.Equal(t, uint8(0xC0), bus.Read(0xFFFD))
			assert.Equal(t, uint8(0x00), bus.Read(0xFFFC))
			assert.Equal(t, tC.wantIF, bus.Read(addr.IF))
			assert.Equal(t, IMEUnset, c.IME())
		})
	}
}

func TestCPU_InterruptsDisabled(t *testing.T) {
	c, bus := newTestCPU(t, 0x00)
	bus.Write(addr.IE, 0x01)

	c.Step()

	assert.Equal(t, uint16(0xC001), c.Registers().PC)
	assert.Equal(t, uint8(0xE1), bus.Read(addr.IF), "request stays pending")
}

func TestCPU_RETIReturnsWithInterruptsEnabled(t *testing.T) {
	c, bus := newTestCPU(t)
	c.ime.Apply(IMEEnableNow)
	bus.Write(addr.IE, 0x01)
	bus.Write(0x0040, 0xD9) // RETI

	c.Step() // dispatch
	assert.Equal(t, IMEUnset, c.IME())

	c.Step() // RETI
	assert.Equal(t, uint16(0xC000), c.Registers().PC)
	assert.Equal(t, uint16(0xFFFE), c.Registers().SP)
	assert.Equal(t, IMESet, c.IME())
}

func TestCPU_Halt(t *testing.T) {
	t.Run("idles until an interrupt is pending", func(t *testing.T) {
		c, bus := newTestCPU(t, 0x76, 0x00) // HALT; NOP

		c.Step()
		assert.True(t, c.Halted())
		assert.Equal(t, uint16(0xC001), c.Registers().PC)

		before := c.Registers()
		assert.Equal(t, cycles(4), c.Step())
		assert.True(t, c.Halted())
		assert.Equal(t, before, c.Registers())

		// IME is off: the CPU wakes up and carries on without dispatching
		bus.Write(addr.IE, 0x04)
		bus.Write(addr.IF, 0xE4)
		c.Step()
		assert.False(t, c.Halted())
		assert.Equal(t, uint16(0xC002), c.Registers().PC)
		assert.Equal(t, uint8(0xE4), bus.Read(addr.IF))
	})

	t.Run("wakes into the handler when enabled", func(t *testing.T) {
		c, bus := newTestCPU(t, 0xFB, 0x76, 0x00) // EI; HALT; NOP

		c.Step()
		c.Step()
		assert.True(t, c.Halted())
		assert.Equal(t, IMESet, c.IME())

		bus.Write(addr.IE, 0x01)
		assert.Equal(t, cycles(20), c.Step())
		assert.False(t, c.Halted())
		assert.Equal(t, uint16(0x0040), c.Registers().PC)
		assert.Equal(t, uint8(0xC0), bus.Read(0xFFFD))
		assert.Equal(t, uint8(0x02), bus.Read(0xFFFC))
	})

	t.Run("STOP is a two byte halt", func(t *testing.T) {
		c, _ := newTestCPU(t, 0x10, 0x00)

		c.Step()
		assert.True(t, c.Halted())
		assert.Equal(t, uint16(0xC002), c.Registers().PC)
	})
}

func TestCPU_DIDisablesImmediately(t *testing.T) {
	c, bus := newTestCPU(t, 0xF3, 0x00) // DI; NOP
	c.ime.Apply(IMEEnableNow)
	bus.Write(addr.IE, 0x01)
	bus.Write(addr.IF, 0xE0)

	c.Step()
	assert.Equal(t, IMEUnset, c.IME())

	bus.Write(addr.IF, 0xE1)
	c.Step()
	assert.Equal(t, uint16(0xC002), c.Registers().PC)
}

func BenchmarkCPU_Step(b *testing.B) {
	bus := memory.New()
	program := []uint8{
		0x3C,       // INC A
		0x80,       // ADD A,B
		0xCB, 0x11, // RL C
		0x18, 0xFA, // JR -6
	}
	_ = bus.LoadBulk(memory.Range{Start: 0xC000, Len: len(program)}, program)
	c := New(bus)
	c.regs.PC = 0xC000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Step()
	}
}
