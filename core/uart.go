// LEUART framing engine
// Transmit side sends one buffered string a byte per interrupt; receive side
// collects bytes between the start and signal frame markers.
package core

// TxState is the transmit state machine position
type TxState uint8

const (
	TxIdle TxState = iota
	TxSending
	TxCompleting
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxSending:
		return "sending"
	case TxCompleting:
		return "completing"
	default:
		return "invalid"
	}
}

// RxState is the receive state machine position
type RxState uint8

const (
	RxIdle RxState = iota
	RxCollecting
	RxDecoding
)

func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxCollecting:
		return "collecting"
	case RxDecoding:
		return "decoding"
	default:
		return "invalid"
	}
}

const (
	// UARTBufferSize bounds one transmission and one received frame
	UARTBufferSize = 64

	// UARTTxBlockMode keeps the low-frequency clock tree alive while sending
	UARTTxBlockMode = EM3

	// Default frame markers of the transceiver command protocol
	StartFrameMarker = '#'
	EndFrameMarker   = '!'
)

type txContext struct {
	state TxState
	busy  bool
	buf   [UARTBufferSize]byte
	n     int
	sent  int
}

type rxContext struct {
	state RxState
	buf   [UARTBufferSize]byte
	n     int
}

// UARTEngine owns the transmit and receive state machines of one port
type UARTEngine struct {
	port  UARTPort
	sched *Scheduler
	power *PowerArbiter
	trace *Trace

	tx     txContext
	rx     rxContext
	txDone Event
	rxDone Event

	wait func()
}

// NewUARTEngine programs the frame markers and arms the start frame
// detector. txDone is posted after each transmission, rxDone after each
// received frame.
func NewUARTEngine(port UARTPort, sched *Scheduler, power *PowerArbiter, trace *Trace, txDone, rxDone Event) *UARTEngine {
	u := &UARTEngine{
		port:   port,
		sched:  sched,
		power:  power,
		trace:  trace,
		txDone: txDone,
		rxDone: rxDone,
		wait:   func() {},
	}
	port.SetFrameMarkers(StartFrameMarker, EndFrameMarker)
	port.BlockRX(true)
	port.EnableInterrupts(UARTIntStartFrame)
	return u
}

// SetWaitHook sets what Start runs while spinning on a busy transmitter
func (u *UARTEngine) SetWaitHook(wait func()) {
	if wait == nil {
		wait = func() {}
	}
	u.wait = wait
}

// Busy reports whether a transmission is in flight
func (u *UARTEngine) Busy() bool {
	return u.tx.busy
}

// TxState returns the transmit state
func (u *UARTEngine) TxState() TxState {
	return u.tx.state
}

// RxState returns the receive state
func (u *UARTEngine) RxState() RxState {
	return u.rx.state
}

// Start transmits text. If a transmission is in flight it spins until that
// one completes; only one string is ever on the wire.
func (u *UARTEngine) Start(text string) {
	if len(text) > UARTBufferSize {
		haltWith(u.trace, &Fault{Kind: FaultCapacity, Op: "uart.start",
			Msg: Itoa(len(text)) + " bytes exceeds " + Itoa(UARTBufferSize)})
		return
	}
	for u.Busy() {
		u.wait()
	}

	state := disableInterrupts()
	u.tx.n = copy(u.tx.buf[:], text)
	u.tx.sent = 0
	u.tx.busy = true
	u.power.Block(UARTTxBlockMode)
	if u.tx.n == 0 {
		u.setTx(TxCompleting)
		u.port.EnableInterrupts(UARTIntTxComplete)
	} else {
		u.setTx(TxSending)
		u.port.EnableInterrupts(UARTIntTxReady)
	}
	restoreInterrupts(state)
}

// ReceivedText returns the last decoded frame, markers included
func (u *UARTEngine) ReceivedText() string {
	state := disableInterrupts()
	s := string(u.rx.buf[:u.rx.n])
	restoreInterrupts(state)
	return s
}

func (u *UARTEngine) setTx(s TxState) {
	u.tx.state = s
	u.trace.Record(TraceTx, uint8(s), uint32(u.tx.sent))
}

func (u *UARTEngine) setRx(s RxState) {
	u.rx.state = s
	u.trace.Record(TraceRx, uint8(s), uint32(u.rx.n))
}

// AdvanceTx performs the transmit transition for one condition
func (u *UARTEngine) AdvanceTx(cond UARTFlags) error {
	switch cond {
	case UARTIntTxReady:
		if u.tx.state != TxSending {
			return protocolFault("uart.txbl", "unexpected in "+u.tx.state.String())
		}
		u.port.WriteData(u.tx.buf[u.tx.sent])
		u.tx.sent++
		if u.tx.sent == u.tx.n {
			u.port.DisableInterrupts(UARTIntTxReady)
			u.port.EnableInterrupts(UARTIntTxComplete)
			u.setTx(TxCompleting)
		}
	case UARTIntTxComplete:
		if u.tx.state != TxCompleting {
			return protocolFault("uart.txc", "unexpected in "+u.tx.state.String())
		}
		u.port.DisableInterrupts(UARTIntTxComplete)
		u.tx.busy = false
		u.setTx(TxIdle)
		u.sched.Post(u.txDone)
		u.power.Unblock(UARTTxBlockMode)
	default:
		return protocolFault("uart.tx", "not a transmit condition "+utoa(uint32(cond)))
	}
	return nil
}

// AdvanceRx performs the receive transition for one condition
func (u *UARTEngine) AdvanceRx(cond UARTFlags) error {
	switch cond {
	case UARTIntStartFrame:
		switch u.rx.state {
		case RxIdle:
			u.rx.n = 0
			u.rx.buf[u.rx.n] = u.port.ReadData()
			u.rx.n++
			u.setRx(RxCollecting)
			u.port.EnableInterrupts(UARTIntSignalFrame)
			u.port.BlockRX(false)
			u.port.EnableInterrupts(UARTIntRxData)
		case RxCollecting:
			// Duplicate start marker: resynchronise on the new frame.
			u.rx.n = 0
		default:
			return protocolFault("uart.startf", "unexpected in "+u.rx.state.String())
		}
	case UARTIntRxData:
		if u.rx.state != RxCollecting {
			return protocolFault("uart.rxdatav", "unexpected in "+u.rx.state.String())
		}
		if u.rx.n == UARTBufferSize {
			return &Fault{Kind: FaultCapacity, Op: "uart.rxdatav",
				Msg: "frame longer than " + Itoa(UARTBufferSize) + " bytes"}
		}
		u.rx.buf[u.rx.n] = u.port.ReadData()
		u.rx.n++
	case UARTIntSignalFrame:
		if u.rx.state != RxCollecting {
			return protocolFault("uart.sigf", "unexpected in "+u.rx.state.String())
		}
		u.setRx(RxDecoding)
		u.port.DisableInterrupts(UARTIntSignalFrame | UARTIntRxData)
		u.port.BlockRX(true)
		u.setRx(RxIdle)
		u.sched.Post(u.rxDone)
	default:
		return protocolFault("uart.rx", "not a receive condition "+utoa(uint32(cond)))
	}
	return nil
}

// HandleInterrupt is the LEUART ISR body. flags are the enabled conditions
// latched for this interrupt, already cleared at the peripheral.
func (u *UARTEngine) HandleInterrupt(flags UARTFlags) {
	for _, cond := range [...]UARTFlags{UARTIntTxReady, UARTIntTxComplete} {
		if flags&cond != 0 {
			if err := u.AdvanceTx(cond); err != nil {
				haltWith(u.trace, err.(*Fault))
				return
			}
		}
	}
	for _, cond := range [...]UARTFlags{UARTIntStartFrame, UARTIntRxData, UARTIntSignalFrame} {
		if flags&cond != 0 {
			if err := u.AdvanceRx(cond); err != nil {
				haltWith(u.trace, err.(*Fault))
				return
			}
		}
	}
}
