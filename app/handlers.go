package app

import (
	"strconv"

	"sensornode/core"
	"sensornode/drivers/si7021"
	"sensornode/protocol"
)

// Frames the transceiver sends to pick the reporting unit
const (
	CommandCelsius    = "#TEMP C!"
	CommandFahrenheit = "#TEMP F!"
)

// SelfTestPassed is written after the ring self test at boot
const SelfTestPassed = "\nPassed Circular Buffer Test\n"

func (d *Device) registerHandlers() {
	d.Loop.Register(EventComp0, "timer_comp0", d.handleComp0)
	d.Loop.Register(EventComp1, "timer_comp1", d.handleComp1)
	d.Loop.Register(EventUnderflow, "timer_underflow", d.handleUnderflow)
	d.Loop.Register(EventSensorRead, "sensor_read", d.handleSensorRead)
	d.Loop.Register(EventBoot, "boot", d.handleBoot)
	d.Loop.Register(EventTxDone, "tx_done", d.handleTxDone)
	d.Loop.Register(EventRxDone, "rx_done", d.handleRxDone)
}

// The compare interrupts are never enabled; seeing one means the timer
// was misconfigured.
func (d *Device) handleComp0() {
	d.Sched.Clear(EventComp0)
	core.Halt(&core.Fault{Kind: core.FaultProtocol, Op: "app.comp0", Msg: "compare 0 interrupt is not enabled"})
}

func (d *Device) handleComp1() {
	d.Sched.Clear(EventComp1)
	core.Halt(&core.Fault{Kind: core.FaultProtocol, Op: "app.comp1", Msg: "compare 1 interrupt is not enabled"})
}

// handleUnderflow starts a temperature conversion once per period
func (d *Device) handleUnderflow() {
	d.Sched.Clear(EventUnderflow)
	d.I2C.Start(core.I2CAddress(d.cfg.Sensor.Address), *d.cfg.Sensor.Command, &d.raw, EventSensorRead)
}

// handleSensorRead formats the reading, drives the LED and sends the line
func (d *Device) handleSensorRead() {
	d.Sched.Clear(EventSensorRead)

	r := NewReport(d.raw, d.celsius, *d.cfg.Device.ThresholdC, *d.cfg.Device.ThresholdF)
	if err := d.LED.Set(r.LED); err != nil {
		core.DebugPrintln("[APP] LED: " + err.Error())
	}
	d.Write(r.Line)

	d.reports++
	d.last = r
	if d.onReport != nil {
		d.onReport(r)
	}
}

// handleBoot runs once after reset
func (d *Device) handleBoot() {
	d.Sched.Clear(EventBoot)

	if d.cfg.Device.SelfTestEnabled() {
		if err := protocol.SelfTest(); err != nil {
			core.Halt(&core.Fault{Kind: core.FaultProtocol, Op: "app.boot", Msg: err.Error()})
			return
		}
		d.Write(SelfTestPassed)
	}
	for _, line := range d.cfg.Device.BootMessages {
		d.Write(line)
	}
	d.Timer.Start(true)
}

// handleTxDone sends the next queued message, if any
func (d *Device) handleTxDone() {
	d.Sched.Clear(EventTxDone)
	d.Ring.Pop(protocol.PopTransmit)
}

// handleRxDone applies a unit command from the transceiver
func (d *Device) handleRxDone() {
	d.Sched.Clear(EventRxDone)
	d.frames++

	switch text := d.UART.ReceivedText(); text {
	case CommandCelsius:
		d.celsius = true
	case CommandFahrenheit:
		d.celsius = false
	default:
		core.DebugPrintln("[APP] ignoring frame " + text)
	}
}

// Report is one formatted temperature reading
type Report struct {
	Raw     uint16
	Celsius bool
	Temp    float32 // in the reporting unit
	LED     bool
	Line    string
}

// NewReport converts a raw reading in the requested unit. The LED turns on
// above the threshold for that unit.
func NewReport(raw uint16, celsius bool, thresholdC, thresholdF float32) Report {
	r := Report{Raw: raw, Celsius: celsius}
	unit := " F\n"
	if celsius {
		r.Temp = si7021.Celsius(raw)
		r.LED = r.Temp > thresholdC
		unit = " C\n"
	} else {
		r.Temp = si7021.Fahrenheit(raw)
		r.LED = r.Temp > thresholdF
	}
	r.Line = "temp = " + strconv.FormatFloat(float64(r.Temp), 'f', 1, 32) + unit
	return r
}
