//go:build !tinygo

package sim

import (
	"io"

	"sensornode/core"
)

// edgeFlags latch until the interrupt is taken; the rest follow buffer state
const edgeFlags = core.UARTIntTxComplete | core.UARTIntStartFrame | core.UARTIntSignalFrame

// UART is the low-energy UART with its frame detectors. It implements
// core.UARTPort.
type UART struct {
	b      *Board
	byteUS uint64

	ien core.UARTFlags
	ifl core.UARTFlags

	startMarker  byte
	signalMarker byte
	blocked      bool

	txbuf    byte
	txFull   bool
	shifting bool

	rxdata  byte
	rxValid bool
	rxAt    uint64 // arrival time of the last injected byte

	sent     []byte
	link     io.Writer
	linkErr  error
	overruns uint32
	dropped  uint32
}

func newUART(b *Board) *UART {
	us := uint64(10_000_000 / b.cfg.Baud)
	if us == 0 {
		us = 1
	}
	return &UART{b: b, byteUS: us}
}

// Transmitted returns every byte put on the wire since the last reset
func (u *UART) Transmitted() string {
	return string(u.sent)
}

// ResetTransmitted forgets transmitted bytes
func (u *UART) ResetTransmitted() {
	u.sent = u.sent[:0]
}

// Dropped returns bytes discarded while the receiver was blocked
func (u *UART) Dropped() uint32 {
	return u.dropped
}

// Overruns returns bytes lost because the receive register was still full
func (u *UART) Overruns() uint32 {
	return u.overruns
}

// LinkError returns the first error writing to the attached link
func (u *UART) LinkError() error {
	return u.linkErr
}

// Inject queues bytes arriving on RX, one byte time apart
func (u *UART) Inject(data []byte) {
	at := max(u.b.now, u.rxAt)
	for _, v := range data {
		at += u.byteUS
		v := v
		u.b.events.insert(&hwEvent{at: at, fire: func() { u.arrive(v) }})
	}
	u.rxAt = at
}

func (u *UART) WriteData(v byte) {
	if u.txFull {
		u.overruns++
	}
	u.txbuf = v
	u.txFull = true
	u.ifl &^= core.UARTIntTxComplete
	if !u.shifting {
		u.load()
	}
}

func (u *UART) ReadData() byte {
	u.rxValid = false
	return u.rxdata
}

func (u *UART) EnableInterrupts(flags core.UARTFlags) {
	u.ien |= flags
	// An idle transmitter reports complete as soon as anyone listens.
	if flags&core.UARTIntTxComplete != 0 && !u.shifting && !u.txFull {
		u.ifl |= core.UARTIntTxComplete
	}
}

func (u *UART) DisableInterrupts(flags core.UARTFlags) {
	u.ien &^= flags
}

func (u *UART) BlockRX(block bool) {
	u.blocked = block
}

func (u *UART) SetFrameMarkers(start, signal byte) {
	u.startMarker = start
	u.signalMarker = signal
}

// load moves the buffered byte into the shift register
func (u *UART) load() {
	v := u.txbuf
	u.txFull = false
	u.shifting = true
	u.b.schedule(u.byteUS, func() { u.shifted(v) })
}

// shifted finishes putting v on the wire
func (u *UART) shifted(v byte) {
	u.shifting = false
	u.sent = append(u.sent, v)
	if u.link != nil && u.linkErr == nil {
		if _, err := u.link.Write([]byte{v}); err != nil {
			u.linkErr = err
		}
	}
	if u.b.cfg.Loopback {
		u.arrive(v)
	}

	if u.txFull {
		u.load()
	} else {
		u.ifl |= core.UARTIntTxComplete
	}
}

// arrive is a byte reaching the receiver
func (u *UART) arrive(v byte) {
	if u.blocked && v != u.startMarker {
		u.dropped++
		return
	}
	if u.rxValid {
		u.overruns++
	}
	u.rxdata = v
	u.rxValid = true
	if v == u.startMarker {
		u.ifl |= core.UARTIntStartFrame
	}
	if v == u.signalMarker {
		u.ifl |= core.UARTIntSignalFrame
	}
}

// pending returns the enabled conditions without clearing them
func (u *UART) pending() core.UARTFlags {
	level := u.ifl
	if !u.txFull {
		level |= core.UARTIntTxReady
	}
	if u.rxValid {
		level |= core.UARTIntRxData
	}
	return level & u.ien
}

// take returns the enabled conditions and clears the edge flags
func (u *UART) take() core.UARTFlags {
	flags := u.pending()
	u.ifl &^= flags & edgeFlags
	return flags
}
