// Package app is the sensor node application. It wires the core engines to
// a board and implements the event handlers the dispatch loop runs.
package app

import (
	"context"
	"fmt"

	"sensornode/config"
	"sensornode/core"
	"sensornode/drivers/si7021"
	"sensornode/protocol"
)

// Application events, one bit each
const (
	EventComp0 core.Event = 1 << iota
	EventComp1
	EventUnderflow
	EventSensorRead
	EventBoot
	EventTxDone
	EventRxDone
)

// Hardware is the set of peripherals a board provides
type Hardware struct {
	I2C     core.I2CPort
	UART    core.UARTPort
	Timer   core.TimerPort
	GPIO    core.GPIODriver
	Sleeper core.Sleeper

	// Wait runs while firmware spins on a busy peripheral
	Wait func()

	// TimerClock makes the periodic timer the trace timestamp source.
	// Boards that set the clock themselves leave it false.
	TimerClock bool
}

// Device is one sensor node: the core engines plus application state
type Device struct {
	Trace  *core.Trace
	Sched  *core.Scheduler
	Power  *core.PowerArbiter
	Loop   *core.Dispatcher
	I2C    *core.I2CEngine
	UART   *core.UARTEngine
	Timer  *core.PeriodicTimer
	Ring   *protocol.PacketRing
	LED    *core.DigitalOut
	Sensor si7021.Device

	cfg       config.Config
	blockMode core.EnergyMode
	celsius   bool
	raw       uint16

	reports  uint32
	last     Report
	onReport func(Report)
	frames   uint32
}

// New builds a device on hw. The boot event is posted; nothing runs until
// the dispatch loop does.
func New(cfg *config.Config, hw Hardware) (*Device, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	trace := core.NewTrace()
	sched := core.NewScheduler(trace)
	power := core.NewPowerArbiter(hw.Sleeper, trace)

	d := &Device{
		Trace:     trace,
		Sched:     sched,
		Power:     power,
		Loop:      core.NewDispatcher(sched, power, trace),
		cfg:       *cfg,
		blockMode: core.EnergyMode(*cfg.Device.BlockMode),
		celsius:   cfg.Device.Celsius,
	}

	led, err := core.NewDigitalOut(hw.GPIO, core.GPIOPin(*cfg.Device.LEDPin), false)
	if err != nil {
		return nil, fmt.Errorf("configure LED pin %d: %w", *cfg.Device.LEDPin, err)
	}
	d.LED = led

	d.Timer = core.NewPeriodicTimer(hw.Timer, sched, power, core.TimerConfig{
		PeriodUS:   cfg.Device.PeriodMs * 1000,
		ActiveUS:   cfg.Device.ActivePeriodMs * 1000,
		Interrupts: core.TimerIntUnderflow,
		Comp0:      EventComp0,
		Comp1:      EventComp1,
		Underflow:  EventUnderflow,
		DriveClock: hw.TimerClock,
	})

	d.I2C = core.NewI2CEngine(hw.I2C, sched, power, trace)
	d.I2C.SetWaitHook(hw.Wait)
	d.Sensor = si7021.New(d.I2C)
	d.Sensor.Address = uint16(cfg.Sensor.Address)

	d.UART = core.NewUARTEngine(hw.UART, sched, power, trace, EventTxDone, EventRxDone)
	d.UART.SetWaitHook(hw.Wait)

	d.Ring = protocol.NewPacketRing(cfg.Device.RingCapacity, d.UART)
	d.Ring.SetOverflowHandler(func(err error) {
		core.Halt(&core.Fault{Kind: core.FaultCapacity, Op: "ring.push", Msg: err.Error()})
	})

	d.registerHandlers()

	sched.Reset()
	power.Block(d.blockMode)
	sched.Post(EventBoot)
	return d, nil
}

// Run runs the dispatch loop until ctx is cancelled
func (d *Device) Run(ctx context.Context) error {
	return d.Loop.Run(ctx)
}

// Write queues s for transmission and starts sending if the link is idle
func (d *Device) Write(s string) {
	d.Ring.Push(s)
	d.Ring.Pop(protocol.PopTransmit)
}

// Celsius reports the current reporting unit
func (d *Device) Celsius() bool {
	return d.celsius
}

// Reports returns the number of temperature reports written
func (d *Device) Reports() uint32 {
	return d.reports
}

// LastReport returns the most recent temperature report
func (d *Device) LastReport() Report {
	return d.last
}

// Frames returns the number of frames received from the transceiver
func (d *Device) Frames() uint32 {
	return d.frames
}

// OnReport sets a hook run after every temperature report
func (d *Device) OnReport(fn func(Report)) {
	d.onReport = fn
}

// ProbeSensor takes one polled reading through the bus engine. It spins
// the wait hook and must only run while the engine is idle.
func (d *Device) ProbeSensor() (int32, error) {
	return d.Sensor.ReadTemperature()
}
