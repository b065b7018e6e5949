// I2C master transaction engine
// Drives one register read (select, command, re-select for read, two data
// bytes, stop) entirely from bus interrupts.
package core

import "errors"

// I2CState is the position of the engine within a read transaction
type I2CState uint8

const (
	I2CIdle          I2CState = iota
	I2CSelectDevice           // address+W sent, waiting for ack
	I2CSendCommand            // command byte sent
	I2CConfirmSelect          // repeated start, address+R sent
	I2CReceiveHigh            // waiting for the most significant byte
	I2CReceiveLow             // waiting for the least significant byte
	I2CDone                   // nack+stop issued, waiting for stop
)

func (s I2CState) String() string {
	switch s {
	case I2CIdle:
		return "idle"
	case I2CSelectDevice:
		return "select-device"
	case I2CSendCommand:
		return "send-command"
	case I2CConfirmSelect:
		return "confirm-select"
	case I2CReceiveHigh:
		return "receive-high-byte"
	case I2CReceiveLow:
		return "receive-low-byte"
	case I2CDone:
		return "done"
	default:
		return "invalid"
	}
}

// I2CBlockMode is the energy mode the bus needs its clocks for
const I2CBlockMode = EM2

const (
	i2cWrite = 0
	i2cRead  = 1
)

// ErrI2CUnsupported is returned by Tx for transfers other than a one-byte
// command followed by a two-byte read.
var ErrI2CUnsupported = errors.New("i2c: only 1-byte write + 2-byte read transfers are supported")

// I2CEngine is the bus transaction state machine. At most one transaction
// is in flight; it is started from the dispatch loop and advanced only by
// the bus interrupt.
type I2CEngine struct {
	port  I2CPort
	sched *Scheduler
	power *PowerArbiter
	trace *Trace

	state   I2CState
	address I2CAddress
	command uint8
	high    uint8
	dest    *uint16
	event   Event

	wait func()
}

// NewI2CEngine binds the engine to its peripheral and enables the four
// interrupt sources it services.
func NewI2CEngine(port I2CPort, sched *Scheduler, power *PowerArbiter, trace *Trace) *I2CEngine {
	port.EnableInterrupts(I2CIntAll)
	return &I2CEngine{
		port:  port,
		sched: sched,
		power: power,
		trace: trace,
		wait:  func() {},
	}
}

// SetWaitHook sets what Tx runs while spinning for completion. On hardware
// this is a no-op since the interrupt preempts the loop; simulated targets
// service their next hardware event.
func (e *I2CEngine) SetWaitHook(wait func()) {
	if wait == nil {
		wait = func() {}
	}
	e.wait = wait
}

// State returns the current transaction state
func (e *I2CEngine) State() I2CState {
	return e.state
}

// Busy reports whether a transaction is in flight
func (e *I2CEngine) Busy() bool {
	return e.state != I2CIdle
}

// Start begins a read of command from the device at address. The combined
// result lands in dest and done is posted once the stop completes.
// Starting while another transaction is in flight halts the firmware.
func (e *I2CEngine) Start(address I2CAddress, command uint8, dest *uint16, done Event) {
	state := disableInterrupts()
	if e.state != I2CIdle {
		restoreInterrupts(state)
		haltWith(e.trace, &Fault{Kind: FaultProtocol, Op: "i2c.start",
			Msg: "bus busy in " + e.state.String()})
		return
	}

	e.power.Block(I2CBlockMode)
	e.address = address & 0x7F
	e.command = command
	e.dest = dest
	e.event = done
	e.high = 0
	e.setState(I2CSelectDevice)

	e.port.Start()
	e.port.WriteData(e.addressByte(i2cWrite))
	restoreInterrupts(state)
}

func (e *I2CEngine) addressByte(rw uint8) byte {
	return byte(e.address)<<1 | rw
}

func (e *I2CEngine) setState(s I2CState) {
	e.state = s
	e.trace.Record(TraceI2C, uint8(s), uint32(e.address))
}

func (e *I2CEngine) violation(cond string) *Fault {
	return protocolFault("i2c."+cond, "unexpected in "+e.state.String()+
		" (device "+hex8(uint8(e.address))+")")
}

// Advance performs the transition for one interrupt condition. An
// unexpected condition returns a protocol fault and leaves the state as is.
func (e *I2CEngine) Advance(cond I2CFlags) error {
	switch cond {
	case I2CIntAck:
		return e.ack()
	case I2CIntNack:
		return e.nack()
	case I2CIntDataValid:
		return e.dataValid()
	case I2CIntStop:
		return e.stop()
	default:
		return protocolFault("i2c.advance", "unknown condition "+utoa(uint32(cond)))
	}
}

func (e *I2CEngine) ack() error {
	switch e.state {
	case I2CSelectDevice:
		e.setState(I2CSendCommand)
		e.port.WriteData(e.command)
	case I2CSendCommand:
		e.setState(I2CConfirmSelect)
		e.port.Start()
		e.port.WriteData(e.addressByte(i2cRead))
	case I2CConfirmSelect:
		e.setState(I2CReceiveHigh)
	default:
		return e.violation("ack")
	}
	return nil
}

func (e *I2CEngine) nack() error {
	switch e.state {
	case I2CSelectDevice:
		// Device not answering yet; select it again.
		e.port.Start()
		e.port.WriteData(e.addressByte(i2cWrite))
	case I2CConfirmSelect:
		// Conversion still running; retry the read select.
		e.port.Start()
		e.port.WriteData(e.addressByte(i2cRead))
	default:
		return e.violation("nack")
	}
	return nil
}

func (e *I2CEngine) dataValid() error {
	switch e.state {
	case I2CReceiveHigh:
		e.high = e.port.ReadData()
		e.port.Ack()
		e.setState(I2CReceiveLow)
	case I2CReceiveLow:
		low := e.port.ReadData()
		if e.dest != nil {
			*e.dest = uint16(e.high)<<8 | uint16(low)
		}
		e.port.Nack()
		e.port.Stop()
		e.setState(I2CDone)
	default:
		return e.violation("rxdatav")
	}
	return nil
}

func (e *I2CEngine) stop() error {
	if e.state != I2CDone {
		return e.violation("mstop")
	}
	e.power.Unblock(I2CBlockMode)
	e.sched.Post(e.event)
	e.setState(I2CIdle)
	return nil
}

// HandleInterrupt is the bus ISR body. flags are the enabled conditions
// latched for this interrupt, already cleared at the peripheral.
func (e *I2CEngine) HandleInterrupt(flags I2CFlags) {
	for _, cond := range [...]I2CFlags{I2CIntAck, I2CIntNack, I2CIntDataValid, I2CIntStop} {
		if flags&cond == 0 {
			continue
		}
		if err := e.Advance(cond); err != nil {
			haltWith(e.trace, err.(*Fault))
			return
		}
	}
}

// Tx runs a blocking command/read through the state machine so the engine
// can stand in for a drivers.I2C bus. It must not be called from an
// interrupt handler.
func (e *I2CEngine) Tx(addr uint16, w, r []byte) error {
	if len(w) != 1 || len(r) != 2 {
		return ErrI2CUnsupported
	}
	var word uint16
	e.Start(I2CAddress(addr), w[0], &word, 0)
	for e.Busy() {
		e.wait()
	}
	r[0] = byte(word >> 8)
	r[1] = byte(word)
	return nil
}

// ReadRegister reads len(buf) bytes of register reg (two-byte reads only)
func (e *I2CEngine) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return e.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister is not supported by the read-only transaction engine
func (e *I2CEngine) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return ErrI2CUnsupported
}
