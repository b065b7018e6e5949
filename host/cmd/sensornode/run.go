package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sensornode/app"
	"sensornode/core"
	"sensornode/host/serial"
	"sensornode/host/tracefile"
	"sensornode/protocol"
	"sensornode/targets/sim"
)

var (
	runReports int
	runPort    string
	runTrace   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the firmware on the simulated board",
	Long: `Boot the firmware on the simulated board and let it report temperatures.

Every line the device transmits is printed. The run stops after --reports
temperature reports (0 runs until interrupted) and prints how long the
processor spent in each energy mode.`,
	RunE: runDevice,
}

func init() {
	runCmd.Flags().IntVarP(&runReports, "reports", "n", 3, "Stop after this many temperature reports (0 = until interrupted)")
	runCmd.Flags().StringVarP(&runPort, "port", "p", "", "Bridge the simulated UART to this serial device")
	runCmd.Flags().StringVar(&runTrace, "trace", "", "Write the trace ring to this file (CBOR)")
	rootCmd.AddCommand(runCmd)
}

func runDevice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sc := simConfig(cfg)
	if runPort != "" {
		sc.RealTime = true
	}
	dev, board, err := newSimDevice(cfg, sc)
	if err != nil {
		return err
	}
	defer board.Close()

	if runPort != "" {
		pcfg := serial.DefaultConfig(runPort)
		pcfg.Baud = cfg.Serial.Baud
		port, err := serial.Open(pcfg)
		if err != nil {
			return err
		}
		defer port.Close()
		board.AttachLink(port)
		log.Printf("bridging UART to %s at %d baud", runPort, pcfg.Baud)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := &linePrinter{w: cmd.OutOrStdout()}
	flush := func() { lines.flush(board.UART.Transmitted(), false) }

	dev.OnReport(func(r app.Report) {
		if runReports > 0 && dev.Reports() >= uint32(runReports) {
			cancel()
		}
	})

	log.Printf("%s: period %d ms, ring %d bytes", cfg.Device.Name, cfg.Device.PeriodMs, cfg.Device.RingCapacity)
	haltErr := guard(func() {
		for ctx.Err() == nil && !board.Stalled() {
			dev.Loop.RunOnce()
			flush()
		}
		// Let queued lines reach the wire.
		for !board.Stalled() && (dev.UART.Busy() || !dev.Ring.IsEmpty()) {
			dev.Loop.RunOnce()
		}
	})
	lines.flush(board.UART.Transmitted(), true)
	if haltErr != nil {
		log.Print(haltErr)
		printTrace(log.Writer(), dev.Trace.Events())
	}
	if board.Stalled() {
		log.Printf("device went to sleep with no wake source")
	}

	printResidency(board)

	if runTrace != "" {
		reason := ""
		if haltErr != nil {
			reason = haltErr.Error()
		}
		res := board.Residency()
		if err := tracefile.WriteFile(runTrace, tracefile.New(dev.Trace.Events(), res[:], reason)); err != nil {
			return err
		}
		log.Printf("trace written to %s", runTrace)
	}
	if err := board.UART.LinkError(); err != nil {
		return fmt.Errorf("serial link: %w", err)
	}
	return haltErr
}

// linePrinter prints transmitted text one complete line at a time. sent is
// the byte offset already printed; it always sits on a line boundary until
// the final flush.
type linePrinter struct {
	w    io.Writer
	sent int
}

// flush prints the lines text completed since the last call. final also
// prints a trailing partial line.
func (p *linePrinter) flush(text string, final bool) {
	end := strings.LastIndexByte(text, '\n') + 1
	if final {
		end = len(text)
	}
	if end <= p.sent {
		return
	}
	for _, l := range protocol.SplitLines(text[p.sent:end]) {
		fmt.Fprintln(p.w, l)
	}
	p.sent = end
}

func printResidency(board *sim.Board) {
	res := board.Residency()
	var total time.Duration
	for _, d := range res {
		total += d
	}
	if total == 0 {
		return
	}
	log.Printf("simulated %v", total)
	for m, d := range res {
		if d == 0 {
			continue
		}
		mode := core.EnergyMode(m)
		log.Printf("  %s %12v %5.1f%% (%d sleeps)", mode, d, 100*float64(d)/float64(total), board.SleepCount(mode))
	}
}
