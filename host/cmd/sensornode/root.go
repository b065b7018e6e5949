package main

import (
	"log"

	"github.com/spf13/cobra"

	"sensornode/config"
	"sensornode/core"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "sensornode",
	Short: "Sensor node firmware host",
	Long: `sensornode runs the temperature sensor node firmware on a simulated board
and talks to real transceivers over a serial port.

The simulated board models the I2C sensor, the low-energy UART with its frame
detectors, the periodic wake timer and the energy management unit. Optionally
the simulated UART is bridged to a real serial device with --port.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			core.SetDebugWriter(func(msg string) { log.Print(msg) })
			core.SetDebugEnabled(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Device configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print firmware debug messages")
}

// loadConfig returns the configuration named by --config, or the defaults
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
