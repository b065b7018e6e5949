// Package si7021 provides the Si7021 temperature/humidity sensor constants,
// raw-code conversions, and a polled driver over a tinygo drivers.I2C bus.
//
// The interrupt-driven firmware path issues CmdMeasureTempNoHold through the
// bus transaction engine and converts the resulting word with Celsius or
// Fahrenheit. Device.ReadTemperature performs the same exchange as a single
// blocking Tx for bring-up and self tests.
package si7021

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x40

// Commands (datasheet table 11).
const (
	CmdMeasureHumidityHold   = 0xE5
	CmdMeasureHumidityNoHold = 0xF5
	CmdMeasureTempHold       = 0xE3
	CmdMeasureTempNoHold     = 0xF3
	CmdReadTempFromHumidity  = 0xE0
	CmdReset                 = 0xFE
)

// ErrNoData is returned when the sensor answers with an all-zero word, which
// a powered sensor never produces.
var ErrNoData = errors.New("si7021: no data")

// Celsius converts a raw temperature code to degrees Celsius
func Celsius(raw uint16) float32 {
	return 175.72*float32(raw)/65536 - 46.85
}

// Fahrenheit converts a raw temperature code to degrees Fahrenheit
func Fahrenheit(raw uint16) float32 {
	return 32 + 9.0/5.0*Celsius(raw)
}

// RawFromCelsius is the inverse of Celsius, rounded to the nearest code.
// Simulated sensors use it to produce readings.
func RawFromCelsius(c float32) uint16 {
	v := (c + 46.85) * 65536 / 175.72
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	}
	return uint16(v + 0.5)
}

// Device wraps an I2C connection to an Si7021.
type Device struct {
	bus     drivers.I2C
	Address uint16
	buf     [2]byte
}

// New creates a new Si7021 connection. The I2C bus must already be configured.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// ReadTemperatureRaw runs a no-hold temperature measurement and returns the
// raw code.
func (d *Device) ReadTemperatureRaw() (uint16, error) {
	if err := d.bus.Tx(d.Address, []byte{CmdMeasureTempNoHold}, d.buf[:]); err != nil {
		return 0, err
	}
	raw := uint16(d.buf[0])<<8 | uint16(d.buf[1])
	if raw == 0 {
		return 0, ErrNoData
	}
	return raw, nil
}

// ReadTemperature returns the temperature in milli-degrees Celsius
func (d *Device) ReadTemperature() (int32, error) {
	raw, err := d.ReadTemperatureRaw()
	if err != nil {
		return 0, err
	}
	// 175.72 * raw / 65536 - 46.85, in fixed point.
	return int32(int64(raw)*175720/65536) - 46850, nil
}
