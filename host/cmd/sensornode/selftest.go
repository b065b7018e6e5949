package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sensornode/app"
	"sensornode/protocol"
	"sensornode/targets/sim"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the ring, loopback and sensor self tests on the simulated board",
	RunE:  runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if err := protocol.SelfTest(); err != nil {
		return err
	}
	fmt.Fprintln(out, "ring buffer: ok")

	sc := simConfig(cfg)
	sc.Loopback = true
	board := sim.NewBoard(sc)
	lb := app.NewLoopback(hardware(board))
	board.Connect(sim.Handlers{UART: lb.UART.HandleInterrupt})
	var frame string
	var loopErr error
	if err := guard(func() { frame, loopErr = lb.Run() }); err != nil {
		return err
	}
	if loopErr != nil {
		return fmt.Errorf("uart loopback: got %q: %w", frame, loopErr)
	}
	fmt.Fprintf(out, "uart loopback: %q -> %q ok (%d bytes dropped while blocked)\n",
		app.LoopbackText, frame, board.UART.Dropped())

	dev, board, err := newSimDevice(cfg, simConfig(cfg))
	if err != nil {
		return err
	}
	var milli int32
	var probeErr error
	if err := guard(func() { milli, probeErr = dev.ProbeSensor() }); err != nil {
		return err
	}
	if probeErr != nil {
		return fmt.Errorf("sensor probe: %w", probeErr)
	}
	fmt.Fprintf(out, "si7021 @0x%02X: %.2f C (%d nacks while converting)\n",
		cfg.Sensor.Address, float32(milli)/1000, board.I2C.Nacks())
	return nil
}
