package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"sensornode/host/serial"
)

var (
	hm10Port string
	hm10Baud int
	hm10Name string
)

var hm10Cmd = &cobra.Command{
	Use:   "hm10",
	Short: "Check and name an HM-10 transceiver",
	Long: `Talk to an HM-10 BLE module directly over a serial adapter: drop any
connection (AT), program its name (AT+NAME) and reset it (AT+RESET),
checking every reply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serial.DefaultConfig(hm10Port)
		cfg.Baud = hm10Baud
		cfg.ReadTimeout = time.Second
		port, err := serial.Open(cfg)
		if err != nil {
			return err
		}
		defer port.Close()

		if err := serial.HM10Setup(port, hm10Name); err != nil {
			return err
		}
		log.Printf("HM-10 on %s named %s", hm10Port, hm10Name)
		return nil
	},
}

func init() {
	hm10Cmd.Flags().StringVarP(&hm10Port, "port", "p", "", "Serial device the module is wired to")
	hm10Cmd.Flags().IntVarP(&hm10Baud, "baud", "b", 9600, "Baud rate")
	hm10Cmd.Flags().StringVar(&hm10Name, "name", "sensornode", "Name to program")
	hm10Cmd.MarkFlagRequired("port")
	rootCmd.AddCommand(hm10Cmd)
}
