package config

import (
	"fmt"

	"sensornode/core"
)

// Validate checks values the firmware would otherwise fault on
func Validate(cfg *Config) error {
	d := cfg.Device

	if d.PeriodMs == 0 {
		return fmt.Errorf("%w: device.period_ms must be > 0", ErrInvalid)
	}
	if d.ActivePeriodMs >= d.PeriodMs {
		return fmt.Errorf("%w: device.active_period_ms (%d) must be less than period_ms (%d)",
			ErrInvalid, d.ActivePeriodMs, d.PeriodMs)
	}
	// Period is counted in microseconds by a 32-bit timer.
	if d.PeriodMs > 4_000_000 {
		return fmt.Errorf("%w: device.period_ms %d too long", ErrInvalid, d.PeriodMs)
	}

	if d.BlockMode != nil && *d.BlockMode > 4 {
		return fmt.Errorf("%w: device.block_mode %d is not an energy mode (0-4)", ErrInvalid, *d.BlockMode)
	}

	c := d.RingCapacity
	if c < 2 || c > 256 || c&(c-1) != 0 {
		return fmt.Errorf("%w: device.ring_capacity %d must be a power of two in [2, 256]", ErrInvalid, c)
	}
	for i, m := range d.BootMessages {
		if len(m)+1 > c-1 {
			return fmt.Errorf("%w: device.boot_messages[%d] (%d bytes) does not fit ring of %d",
				ErrInvalid, i, len(m), c)
		}
		// Each message goes out as one UART transmission.
		if len(m) > core.UARTBufferSize {
			return fmt.Errorf("%w: device.boot_messages[%d] (%d bytes) exceeds the %d-byte transmit buffer",
				ErrInvalid, i, len(m), core.UARTBufferSize)
		}
	}

	if cfg.Sensor.Address > 0x7F {
		return fmt.Errorf("%w: sensor.address 0x%02X is not a 7-bit address", ErrInvalid, cfg.Sensor.Address)
	}

	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("%w: serial.baud must be > 0", ErrInvalid)
	}
	return nil
}
