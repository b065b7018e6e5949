package app

import (
	"errors"

	"sensornode/core"
)

// The loopback test sends LoopbackText; the receiver keeps only the frame
const (
	LoopbackText  = "abc#Hello!def"
	LoopbackFrame = "#Hello!"
)

// ErrLoopback is returned when the received frame does not match
var ErrLoopback = errors.New("loopback frame mismatch")

// Loopback is a serial engine on its own scheduler for testing a port whose
// transmitter is wired to its receiver
type Loopback struct {
	UART  *core.UARTEngine
	sched *core.Scheduler
	wait  func()
}

// NewLoopback builds the test engine on hw. The caller routes the port
// interrupt to UART.HandleInterrupt; hw.Wait must advance the hardware.
func NewLoopback(hw Hardware) *Loopback {
	trace := core.NewTrace()
	sched := core.NewScheduler(trace)
	power := core.NewPowerArbiter(hw.Sleeper, trace)
	uart := core.NewUARTEngine(hw.UART, sched, power, trace, EventTxDone, EventRxDone)
	uart.SetWaitHook(hw.Wait)
	return &Loopback{UART: uart, sched: sched, wait: hw.Wait}
}

// Run sends LoopbackText and returns the frame the receiver decoded
func (l *Loopback) Run() (string, error) {
	l.sched.Reset()
	l.UART.Start(LoopbackText)
	for l.sched.Pending()&EventTxDone == 0 {
		l.wait()
	}
	if l.sched.Pending()&EventRxDone == 0 {
		return "", errors.New("loopback: no frame received")
	}
	got := l.UART.ReceivedText()
	if got != LoopbackFrame {
		return got, ErrLoopback
	}
	return got, nil
}
