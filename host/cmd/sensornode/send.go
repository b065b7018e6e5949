package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"sensornode/host/serial"
)

var (
	sendPort   string
	sendBaud   int
	sendText   string
	sendListen time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a framed command to a device",
	Long: `Send one framed command, such as "TEMP C", to a device on a serial port
and optionally print the lines it reports back.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendPort, "port", "p", "", "Serial device")
	sendCmd.Flags().IntVarP(&sendBaud, "baud", "b", 9600, "Baud rate")
	sendCmd.Flags().StringVarP(&sendText, "text", "t", "", "Command body, sent as #body!")
	sendCmd.Flags().DurationVar(&sendListen, "listen", 0, "Print received lines for this long after sending")
	sendCmd.MarkFlagRequired("port")
	sendCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := serial.DefaultConfig(sendPort)
	cfg.Baud = sendBaud
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := serial.SendCommand(port, sendText); err != nil {
		return err
	}
	log.Printf("sent %q to %s", sendText, sendPort)

	if sendListen <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), sendListen)
	defer cancel()
	return serial.ReadLines(ctx, port, func(line string) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	})
}
