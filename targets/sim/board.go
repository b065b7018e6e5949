//go:build !tinygo

// Package sim is a host model of the sensor board. It keeps simulated time,
// fires peripheral state changes from a time-ordered event list and enters
// interrupt handlers through core.RunISR, so firmware written against the
// core ports runs unchanged on a development machine.
package sim

import (
	"io"
	"time"

	"sensornode/core"
)

// Config describes the simulated board
type Config struct {
	SensorAddress core.I2CAddress
	TemperatureC  float32
	ConversionUS  uint32 // temperature conversion time
	I2CHz         uint32
	Baud          uint32
	Loopback      bool // LEUART TX wired to RX

	// RealTime paces simulated time against the wall clock. Needed when a
	// real serial link is attached.
	RealTime bool
}

// DefaultConfig returns a board with the sensor at its stock address
func DefaultConfig() Config {
	return Config{
		SensorAddress: 0x40,
		TemperatureC:  22.5,
		ConversionUS:  7000,
		I2CHz:         400000,
		Baud:          9600,
	}
}

// Handlers are the interrupt service routines wired to each peripheral
type Handlers struct {
	Timer func(core.TimerFlags)
	I2C   func(core.I2CFlags)
	UART  func(core.UARTFlags)
}

// maxISRBurst bounds back-to-back interrupts without simulated time moving
const maxISRBurst = 4096

// Board is the simulated microcontroller and its peripherals
type Board struct {
	cfg      Config
	now      uint64
	events   eventList
	handlers Handlers

	I2C   *I2C
	UART  *UART
	Timer *Timer
	GPIO  *GPIO

	residency [core.NumEnergyModes]uint64
	sleeps    [core.NumEnergyModes]uint32
	stalled   bool

	delivering bool

	incoming chan []byte
	done     chan struct{}
	epoch    time.Time
}

// NewBoard builds a board at time zero and installs it as the source of
// pending interrupts. Only one board is live at a time.
func NewBoard(cfg Config) *Board {
	def := DefaultConfig()
	if cfg.SensorAddress == 0 {
		cfg.SensorAddress = def.SensorAddress
	}
	if cfg.ConversionUS == 0 {
		cfg.ConversionUS = def.ConversionUS
	}
	if cfg.I2CHz == 0 {
		cfg.I2CHz = def.I2CHz
	}
	if cfg.Baud == 0 {
		cfg.Baud = def.Baud
	}

	b := &Board{
		cfg:   cfg,
		done:  make(chan struct{}),
		epoch: time.Now(),
	}
	b.I2C = newI2C(b)
	b.UART = newUART(b)
	b.Timer = newTimer(b)
	b.GPIO = NewGPIO()

	core.SetTime(0)
	core.SetPendingInterruptHook(b.deliver)
	return b
}

// Connect wires the interrupt handlers
func (b *Board) Connect(h Handlers) {
	b.handlers = h
}

// Now returns simulated microseconds since reset
func (b *Board) Now() uint64 {
	return b.now
}

// schedule arranges for fire to run delayUS microseconds from now
func (b *Board) schedule(delayUS uint64, fire func()) *hwEvent {
	ev := &hwEvent{at: b.now + delayUS, fire: fire}
	b.events.insert(ev)
	return ev
}

// advance moves time to at, charging the interval to mode
func (b *Board) advance(at uint64, mode core.EnergyMode) {
	if at > b.now {
		b.residency[mode] += at - b.now
		b.now = at
	}
	core.SetTime(uint32(b.now))
}

// fireNext runs the next hardware event, or waits for link input when
// nothing is scheduled. It returns false when the board has nothing left
// to do.
func (b *Board) fireNext(mode core.EnergyMode) bool {
	b.drainLink()

	ev := b.events.peek()
	if ev == nil {
		if b.incoming == nil {
			return false
		}
		select {
		case data := <-b.incoming:
			b.advance(b.wallNow(), mode)
			b.UART.Inject(data)
			return true
		case <-b.done:
			return false
		}
	}

	if b.cfg.RealTime && b.waitWall(ev.at, mode) {
		// Link input arrived first; it is now scheduled ahead of ev.
		return true
	}

	b.events.pop()
	b.advance(ev.at, mode)
	ev.fire()
	return true
}

// Sleep implements core.Sleeper. It is called with interrupts masked, so
// hardware events only latch flags; handlers run once the mask drops.
// The core stays asleep through hardware events that raise no enabled
// interrupt, such as a timer match nobody listens for.
func (b *Board) Sleep(mode core.EnergyMode) {
	b.sleeps[mode]++
	for {
		if !b.fireNext(mode) {
			b.stalled = true
			return
		}
		if b.wakePending() {
			return
		}
	}
}

// wakePending reports whether any peripheral holds an enabled interrupt
func (b *Board) wakePending() bool {
	return b.Timer.pending() != 0 || b.I2C.pending() != 0 || b.UART.pending() != 0
}

// Step runs the next hardware event at full power and services any
// interrupt it raises. Firmware busy-waits call it.
func (b *Board) Step() {
	if !b.fireNext(core.EM0) {
		core.Halt(&core.Fault{Kind: core.FaultProtocol, Op: "sim.wait",
			Msg: "busy wait with no hardware activity"})
		return
	}
	b.deliver()
}

// RunFor steps hardware for d of simulated time
func (b *Board) RunFor(d time.Duration) {
	end := b.now + uint64(d/time.Microsecond)
	for {
		ev := b.events.peek()
		if ev == nil || ev.at > end {
			break
		}
		b.Step()
	}
	b.advance(end, core.EM0)
}

// Stalled reports that the firmware went to sleep with nothing scheduled
// that could ever wake it
func (b *Board) Stalled() bool {
	return b.stalled
}

// Residency returns the simulated time spent in each energy mode
func (b *Board) Residency() [core.NumEnergyModes]time.Duration {
	var out [core.NumEnergyModes]time.Duration
	for i, us := range b.residency {
		out[i] = time.Duration(us) * time.Microsecond
	}
	return out
}

// SleepCount returns how many times the firmware slept in mode
func (b *Board) SleepCount(mode core.EnergyMode) uint32 {
	return b.sleeps[mode]
}

// deliver services latched interrupts while the core is unmasked. Lower
// peripheral numbers win, as on the interrupt controller.
func (b *Board) deliver() {
	if core.InterruptsMasked() || b.delivering {
		return
	}
	b.delivering = true
	defer func() { b.delivering = false }()

	for n := 0; ; n++ {
		if n == maxISRBurst {
			core.Halt(&core.Fault{Kind: core.FaultProtocol, Op: "sim.deliver",
				Msg: "interrupt storm"})
			return
		}
		if flags := b.Timer.take(); flags != 0 {
			if h := b.handlers.Timer; h != nil {
				core.RunISR(func() { h(flags) })
			}
			continue
		}
		if flags := b.I2C.take(); flags != 0 {
			if h := b.handlers.I2C; h != nil {
				core.RunISR(func() { h(flags) })
			}
			continue
		}
		if flags := b.UART.take(); flags != 0 {
			if h := b.handlers.UART; h != nil {
				core.RunISR(func() { h(flags) })
			}
			continue
		}
		return
	}
}

// AttachLink connects the LEUART to a byte stream such as a serial port.
// Transmitted bytes are written to rw and bytes read from it arrive on the
// receiver. The reader goroutine stops when rw returns an error or Close
// is called.
func (b *Board) AttachLink(rw io.ReadWriter) {
	b.UART.link = rw
	b.incoming = make(chan []byte, 16)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := rw.Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				select {
				case b.incoming <- data:
				case <-b.done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
}

// Close stops link processing
func (b *Board) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// drainLink schedules link input that is already waiting
func (b *Board) drainLink() {
	if b.incoming == nil {
		return
	}
	for {
		select {
		case data := <-b.incoming:
			b.UART.Inject(data)
		default:
			return
		}
	}
}

// wallNow maps the wall clock onto simulated time
func (b *Board) wallNow() uint64 {
	us := uint64(time.Since(b.epoch) / time.Microsecond)
	if us < b.now {
		return b.now
	}
	return us
}

// waitWall blocks until the wall clock reaches at. It returns true if link
// input arrived first.
func (b *Board) waitWall(at uint64, mode core.EnergyMode) bool {
	wall := b.wallNow()
	if wall >= at {
		return false
	}
	timer := time.NewTimer(time.Duration(at-wall) * time.Microsecond)
	defer timer.Stop()

	if b.incoming == nil {
		<-timer.C
		return false
	}
	select {
	case data := <-b.incoming:
		b.advance(min(b.wallNow(), at), mode)
		b.UART.Inject(data)
		return true
	case <-timer.C:
		return false
	case <-b.done:
		return false
	}
}
