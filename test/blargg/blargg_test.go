package blargg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-sm83/sm83"
	"github.com/valerio/go-sm83/sm83/timing"
)

type BlarggTestCase struct {
	ROMPath   string
	MaxFrames uint64
	Name      string
}

func GetBlarggTests() []BlarggTestCase {
	baseDir := "../../test-roms"

	names := []struct {
		name   string
		frames uint64
	}{
		{"01-special", 500},
		{"02-interrupts", 500},
		{"03-op sp,hl", 500},
		{"04-op r,imm", 500},
		{"05-op rp", 500},
		{"06-ld r,r", 500},
		{"07-jr,jp,call,ret,rst", 500},
		{"08-misc instrs", 500},
		{"09-op r,r", 1000},
		{"10-bit ops", 1000},
		{"11-op a,(hl)", 1500},
	}

	tests := make([]BlarggTestCase, 0, len(names))
	for _, n := range names {
		tests = append(tests, BlarggTestCase{
			ROMPath:   filepath.Join(baseDir, n.name+".gb"),
			MaxFrames: n.frames,
			Name:      n.name,
		})
	}
	return tests
}

// finished reports whether the ROM has printed its verdict on the serial port.
func finished(m *sm83.Machine) bool {
	out := m.Serial().Output()
	return strings.Contains(out, "Passed") || strings.Contains(out, "Failed")
}

func runBlarggTest(t *testing.T, testCase BlarggTestCase) {
	if _, err := os.Stat(testCase.ROMPath); os.IsNotExist(err) {
		t.Skipf("ROM file not found: %s", testCase.ROMPath)
		return
	}

	t.Logf("Running Blargg test: %s (%s)", testCase.Name, testCase.ROMPath)
	m, err := sm83.NewWithFile(testCase.ROMPath)
	require.NoError(t, err, "Failed to create machine")

	_, err = m.RunUntil(finished, testCase.MaxFrames*timing.CyclesPerFrame)
	out := m.Serial().Output()
	if errors.Is(err, sm83.ErrCycleLimit) {
		t.Fatalf("no verdict after %d frames, serial output:\n%s", testCase.MaxFrames, out)
	}
	require.NoError(t, err, "serial output:\n%s", out)

	assert.Contains(t, out, "Passed", "serial output:\n%s", out)
	assert.NotContains(t, out, "Failed")
}

func TestBlarggSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ROM suite in short mode")
	}

	for _, testCase := range GetBlarggTests() {
		t.Run(testCase.Name, func(t *testing.T) {
			runBlarggTest(t, testCase)
		})
	}
}
