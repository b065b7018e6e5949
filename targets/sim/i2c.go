//go:build !tinygo

package sim

import (
	"sensornode/core"
	"sensornode/drivers/si7021"
)

// I2C is the bus master peripheral with an Si7021 attached. It implements
// core.I2CPort.
type I2C struct {
	b      *Board
	byteUS uint64

	ien core.I2CFlags
	ifl core.I2CFlags

	addressNext bool // next data write is an address byte
	writing     bool // device selected for write
	reading     bool // device selected for read
	rxdata      byte
	rxValid     bool
	outgoing    []byte

	sensor sensorModel

	starts uint32
	nacks  uint32
}

// sensorModel is the slave side of an Si7021 taking temperature readings
type sensorModel struct {
	address      core.I2CAddress
	tempC        float32
	conversionUS uint64
	measuring    bool
	readyAt      uint64
}

func newI2C(b *Board) *I2C {
	us := uint64(9_000_000 / b.cfg.I2CHz)
	if us == 0 {
		us = 1
	}
	return &I2C{
		b:      b,
		byteUS: us,
		sensor: sensorModel{
			address:      b.cfg.SensorAddress,
			tempC:        b.cfg.TemperatureC,
			conversionUS: uint64(b.cfg.ConversionUS),
		},
	}
}

// SetTemperature changes the temperature the sensor measures
func (i *I2C) SetTemperature(c float32) {
	i.sensor.tempC = c
}

// Starts returns the number of start conditions issued
func (i *I2C) Starts() uint32 {
	return i.starts
}

// Nacks returns the number of bytes the slave refused
func (i *I2C) Nacks() uint32 {
	return i.nacks
}

// Raise latches flags immediately, as if the bus had produced them
func (i *I2C) Raise(flags core.I2CFlags) {
	i.ifl |= flags
	i.b.deliver()
}

func (i *I2C) Start() {
	i.starts++
	i.addressNext = true
	i.writing = false
	i.reading = false
	i.outgoing = nil
}

func (i *I2C) Stop() {
	i.writing = false
	i.reading = false
	i.outgoing = nil
	i.b.schedule(i.byteUS/9+1, func() { i.ifl |= core.I2CIntStop })
}

func (i *I2C) WriteData(v byte) {
	if i.addressNext {
		i.addressNext = false
		i.b.schedule(i.byteUS, func() { i.selectDevice(v) })
		return
	}
	i.b.schedule(i.byteUS, func() { i.command(v) })
}

func (i *I2C) ReadData() byte {
	i.rxValid = false
	return i.rxdata
}

func (i *I2C) Ack() {
	if i.reading && len(i.outgoing) > 0 {
		i.sendNext()
	}
}

func (i *I2C) Nack() {
	i.reading = false
	i.outgoing = nil
}

func (i *I2C) EnableInterrupts(flags core.I2CFlags) {
	i.ien = flags
}

func (i *I2C) ack() {
	i.ifl |= core.I2CIntAck
}

func (i *I2C) nack() {
	i.nacks++
	i.ifl |= core.I2CIntNack
}

// selectDevice answers an address byte
func (i *I2C) selectDevice(v byte) {
	s := &i.sensor
	if core.I2CAddress(v>>1) != s.address {
		i.nack()
		return
	}
	if v&1 == 0 {
		i.writing = true
		i.ack()
		return
	}

	// The sensor refuses a read select until its conversion completes.
	if !s.measuring || i.b.now < s.readyAt {
		i.nack()
		return
	}
	s.measuring = false
	raw := si7021.RawFromCelsius(s.tempC)
	i.reading = true
	i.outgoing = []byte{byte(raw >> 8), byte(raw)}
	i.ack()
	i.sendNext()
}

// command answers a data byte written to a selected device
func (i *I2C) command(v byte) {
	if !i.writing {
		i.nack()
		return
	}
	switch v {
	case si7021.CmdMeasureTempNoHold:
		i.sensor.measuring = true
		i.sensor.readyAt = i.b.now + i.sensor.conversionUS
		i.ack()
	default:
		i.nack()
	}
}

// sendNext clocks the next byte in from the slave
func (i *I2C) sendNext() {
	v := i.outgoing[0]
	i.outgoing = i.outgoing[1:]
	i.b.schedule(i.byteUS, func() {
		i.rxdata = v
		i.rxValid = true
	})
}

// pending returns the enabled conditions without clearing them
func (i *I2C) pending() core.I2CFlags {
	level := i.ifl
	if i.rxValid {
		level |= core.I2CIntDataValid
	}
	return level & i.ien
}

// take returns the enabled conditions and clears the edge flags
func (i *I2C) take() core.I2CFlags {
	flags := i.pending()
	i.ifl &^= flags
	return flags
}
