// Package monitor renders the CPU status on a terminal while a program runs.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-sm83/sm83/cpu"
	"github.com/valerio/go-sm83/sm83/irq"
)

const (
	statusRows = 9
	serialRows = 8
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleTitle   = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleLabel   = styleDefault.Foreground(tcell.ColorGray)
	styleSerial  = styleDefault.Foreground(tcell.ColorGreen)
)

// Snapshot is what the monitor shows on each refresh.
type Snapshot struct {
	Status  cpu.Status
	Elapsed time.Duration
	Serial  string
}

// Monitor draws snapshots onto a tcell screen and watches for quit keys.
type Monitor struct {
	screen  tcell.Screen
	logs    *LogBuffer
	running bool
}

// New creates a monitor on an initialized screen. logs may be nil.
func New(screen tcell.Screen, logs *LogBuffer) *Monitor {
	screen.SetStyle(styleDefault)
	screen.Clear()
	return &Monitor{screen: screen, logs: logs, running: true}
}

// NewTerminal initializes the terminal and creates a monitor on it.
func NewTerminal(logs *LogBuffer) (*Monitor, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	return New(screen, logs), nil
}

// Update processes pending input and redraws. Returns false once the user
// asked to quit.
func (m *Monitor) Update(s Snapshot) bool {
	for m.screen.HasPendingEvent() {
		switch ev := m.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if isQuit(ev) {
				m.running = false
			}
		case *tcell.EventResize:
			m.screen.Sync()
		}
	}
	if !m.running {
		return false
	}

	m.screen.Clear()
	m.draw(s)
	m.screen.Show()
	return true
}

// Close restores the terminal.
func (m *Monitor) Close() {
	m.screen.Fini()
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

func (m *Monitor) draw(s Snapshot) {
	st := s.Status
	width, height := m.screen.Size()

	lines := []struct {
		style tcell.Style
		text  string
	}{
		{styleTitle, "SM83 monitor (q/Esc to quit)"},
		{styleDefault, fmt.Sprintf("PC %04X  SP %04X", st.PC, st.SP)},
		{styleDefault, fmt.Sprintf("A  %02X  F  %02X   AF %04X", st.A, st.F, st.AF())},
		{styleDefault, fmt.Sprintf("B  %02X  C  %02X   BC %04X", st.B, st.C, st.BC())},
		{styleDefault, fmt.Sprintf("D  %02X  E  %02X   DE %04X", st.D, st.E, st.DE())},
		{styleDefault, fmt.Sprintf("H  %02X  L  %02X   HL %04X", st.H, st.L, st.HL())},
		{styleDefault, fmt.Sprintf("Flags %s  IME %s  Halted %t", st.Flags, st.IME, st.Halted)},
		{styleDefault, fmt.Sprintf("IE %02X  IF %02X  pending %s", st.IE, st.IF, irq.FromByte(irq.Pending(st.IE, st.IF)))},
		{styleDefault, fmt.Sprintf("Cycles %d  Emulated %s", st.Cycles, s.Elapsed.Round(time.Millisecond))},
	}
	for y, l := range lines {
		drawText(m.screen, 0, y, width, l.style, l.text)
	}

	y := statusRows + 1
	drawText(m.screen, 0, y, width, styleLabel, "Serial")
	y++
	for _, line := range tail(s.Serial, serialRows) {
		drawText(m.screen, 2, y, width, styleSerial, line)
		y++
	}

	if m.logs == nil || y+2 >= height {
		return
	}
	y++
	drawText(m.screen, 0, y, width, styleLabel, "Log")
	y++
	for _, entry := range m.logs.Recent(height - y) {
		drawText(m.screen, 2, y, width, styleDefault, FormatLogEntry(entry))
		y++
	}
}

// tail returns the last n lines of the text, skipping control bytes.
func tail(text string, n int) []string {
	text = strings.Map(func(r rune) rune {
		if r == '\n' || (r >= 0x20 && r < 0x7F) {
			return r
		}
		return -1
	}, text)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func drawText(screen tcell.Screen, x, y, width int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
