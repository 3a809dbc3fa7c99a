package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"github.com/valerio/go-sm83/sm83"
	"github.com/valerio/go-sm83/sm83/cpu"
	"github.com/valerio/go-sm83/sm83/monitor"
	"github.com/valerio/go-sm83/sm83/serial"
	"github.com/valerio/go-sm83/sm83/timing"
)

// refreshCycles is how often the monitor is redrawn, in T-states.
const refreshCycles = timing.CyclesPerFrame

func main() {
	app := cli.NewApp()
	app.Name = "sm83"
	app.Description = "Runs Game Boy program images on an SM83 CPU core"
	app.Usage = "sm83 [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.Uint64Flag{
			Name:  "cycles",
			Usage: "Number of T-states to run (0 = until the CPU stalls or --until is seen)",
		},
		cli.StringFlag{
			Name:  "until",
			Usage: "Stop once this text has been sent on the serial port",
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Pace emulation to the speed of the real hardware",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Pacing strategy for --realtime: adaptive, ticker or none",
			Value: "adaptive",
		},
		cli.BoolFlag{
			Name:  "monitor",
			Usage: "Show the CPU status in the terminal while running",
		},
		cli.BoolFlag{
			Name:  "serial",
			Usage: "Copy serial output to stdout",
		},
		cli.StringFlag{
			Name:  "entry",
			Usage: "Address execution starts from",
			Value: "0x0100",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction (implies --debug)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running program", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	entry, err := strconv.ParseUint(c.String("entry"), 0, 16)
	if err != nil {
		return fmt.Errorf("invalid entry point %q: %w", c.String("entry"), err)
	}

	level := slog.LevelInfo
	if c.Bool("debug") || c.Bool("trace") {
		level = slog.LevelDebug
	}

	// the monitor owns the terminal, logs are shown inside it
	var logs *monitor.LogBuffer
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if c.Bool("monitor") {
		logs = monitor.NewLogBuffer(100)
		handler = monitor.NewLogHandler(logs, level)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	opts := []sm83.Option{
		sm83.WithLogger(logger),
		sm83.WithCPUOptions(cpu.WithEntryPoint(uint16(entry)), cpu.WithTrace(c.Bool("trace"))),
	}
	if c.Bool("serial") {
		opts = append(opts, sm83.WithSerialOptions(serial.WithMirror(os.Stdout)))
	}

	m, err := sm83.NewWithFile(romPath, opts...)
	if err != nil {
		return err
	}

	limiter := timing.NewNoOpLimiter()
	if c.Bool("realtime") {
		l, ok := timing.New(c.String("limiter"))
		if !ok {
			return fmt.Errorf("unknown limiter %q", c.String("limiter"))
		}
		limiter = l
	}
	if t, ok := limiter.(*timing.TickerLimiter); ok {
		defer t.Stop()
	}

	var mon *monitor.Monitor
	if c.Bool("monitor") {
		mon, err = monitor.NewTerminal(logs)
		if err != nil {
			return err
		}
	}

	slog.Info("Running", "rom", romPath, "entry", fmt.Sprintf("0x%04X", entry), "cycles", c.Uint64("cycles"), "realtime", c.Bool("realtime"))
	err = loop(m, timing.NewPacer(limiter), mon, c.Uint64("cycles"), c.String("until"))

	if mon != nil {
		mon.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
	m.Serial().Flush()
	fmt.Println(m.CPU().Status())

	if err != nil {
		return err
	}
	slog.Info("Execution completed", "cycles", m.CPU().Cycles(), "emulated", m.Elapsed())
	return nil
}

func loop(m *sm83.Machine, pacer *timing.Pacer, mon *monitor.Monitor, cycles uint64, until string) error {
	start := m.CPU().Cycles()
	lastRefresh := start

	for {
		if until != "" && strings.Contains(m.Serial().Output(), until) {
			return nil
		}
		if cycles > 0 && m.CPU().Cycles()-start >= cycles {
			if until != "" {
				return fmt.Errorf("%q not seen on serial after %d cycles: %w", until, cycles, sm83.ErrCycleLimit)
			}
			return nil
		}

		d, err := m.Step()
		if err != nil {
			return err
		}
		pacer.Add(d)

		if mon == nil || m.CPU().Cycles()-lastRefresh < refreshCycles {
			continue
		}
		lastRefresh = m.CPU().Cycles()
		snapshot := monitor.Snapshot{Status: m.CPU().Status(), Elapsed: m.Elapsed(), Serial: m.Serial().Output()}
		if !mon.Update(snapshot) {
			slog.Info("Stopped by user")
			return nil
		}
	}
}
