// Package serial links host tools to a sensor node over its transceiver
// UART: opening and listing ports, and framing commands and report lines.
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config describes the link. The HM-10 transceiver talks 8N1.
type Config struct {
	Device      string // e.g. "/dev/ttyUSB0", "COM3"
	Baud        int
	ReadTimeout time.Duration // 0 blocks until data arrives
}

// DefaultConfig returns the transceiver's factory link settings on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   9600,
	}
}

// ErrNoDevice is returned by Open when no device path is configured
var ErrNoDevice = errors.New("no serial device given")

// Open opens the link described by cfg
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("serial %s: invalid baud rate %d", cfg.Device, cfg.Baud)
	}

	// *serial.Port already reads, writes, flushes and closes.
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
