package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-sm83/sm83"
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/timing"
)

// sendO prints 'O' on the serial port once, then loops forever.
var sendO = []byte{
	0x3E, 'O',  // LD A,'O'
	0xE0, 0x01, // LDH (SB),A
	0x3E, 0x81, // LD A,0x81
	0xE0, 0x02, // LDH (SC),A
	0x18, 0xFE, // JR -2
}

func newMachine(t *testing.T) *sm83.Machine {
	t.Helper()
	data := make([]byte, sm83.ROM.Len)
	copy(data[addr.EntryPoint:], sendO)
	m, err := sm83.NewWithROM(data)
	require.NoError(t, err)
	return m
}

func TestLoop(t *testing.T) {
	testCases := []struct {
		desc    string
		cycles  uint64
		until   string
		wantErr error
	}{
		{desc: "until text seen", cycles: 10_000, until: "O"},
		{desc: "until without limit", until: "O"},
		{desc: "cycles only", cycles: 1_000},
		{desc: "text never seen", cycles: 1_000, until: "X", wantErr: sm83.ErrCycleLimit},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			m := newMachine(t)
			err := loop(m, timing.NewPacer(timing.NewNoOpLimiter()), nil, tC.cycles, tC.until)
			if tC.wantErr != nil {
				assert.True(t, errors.Is(err, tC.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			if tC.until != "" {
				assert.Contains(t, m.Serial().Output(), tC.until)
			}
			if tC.cycles > 0 && tC.until == "" {
				assert.GreaterOrEqual(t, m.CPU().Cycles(), tC.cycles)
			}
		})
	}
}

func TestLoop_Stalled(t *testing.T) {
	data := make([]byte, sm83.ROM.Len)
	data[addr.EntryPoint] = 0xD3
	m, err := sm83.NewWithROM(data)
	require.NoError(t, err)

	err = loop(m, timing.NewPacer(timing.NewNoOpLimiter()), nil, 0, "")
	assert.True(t, errors.Is(err, sm83.ErrStalled), "got %v", err)
}
