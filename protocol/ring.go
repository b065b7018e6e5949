package protocol

import (
	"errors"

	"sensornode/core"
)

// PacketHeader is the size of the length byte in front of every message
const PacketHeader = 1

// ErrEmpty is returned by Pop when there is nothing to send right now: the
// ring holds no message, or the transmitter is still busy with the last one.
var ErrEmpty = errors.New("protocol: packet ring empty")

// ErrNoTransmitter is returned by Pop(PopTransmit) on a ring built without one
var ErrNoTransmitter = errors.New("protocol: packet ring has no transmitter")

// Transmitter is the serial engine the ring feeds
type Transmitter interface {
	Busy() bool
	Start(text string)
}

// CapacityError is the fault raised when a push would overflow the ring
type CapacityError struct {
	Need  int
	Space int
}

func (e *CapacityError) Error() string {
	return "protocol: packet needs " + core.Itoa(e.Need) + " bytes, ring has " + core.Itoa(e.Space)
}

// PopMode selects where a popped message goes
type PopMode uint8

const (
	// PopTransmit hands the message to the transmitter
	PopTransmit PopMode = iota
	// PopTest hands the message to the test sink
	PopTest
)

// PacketRing is a power-of-two circular byte buffer holding length-prefixed
// messages. The header byte stores message length + 1.
type PacketRing struct {
	buf   []byte
	read  uint32
	write uint32
	mask  uint32

	tx       Transmitter
	testSink func(msg string)
	overflow func(err error)
}

// NewPacketRing creates a ring of capacity bytes (a power of two between 2
// and 256, so a header byte can describe any message that fits). tx may be
// nil for a ring that is only popped with PopTest.
func NewPacketRing(capacity int, tx Transmitter) *PacketRing {
	if capacity < 2 || capacity > 256 || capacity&(capacity-1) != 0 {
		panic("protocol: ring capacity must be a power of two in [2, 256]")
	}
	return &PacketRing{
		buf:      make([]byte, capacity),
		mask:     uint32(capacity - 1),
		tx:       tx,
		testSink: func(string) {},
		overflow: func(err error) { panic(err) },
	}
}

// SetTestSink sets where PopTest delivers messages
func (r *PacketRing) SetTestSink(sink func(msg string)) {
	if sink == nil {
		sink = func(string) {}
	}
	r.testSink = sink
}

// SetOverflowHandler sets what happens when a push does not fit. It must not
// return; firmware routes this to its halt path.
func (r *PacketRing) SetOverflowHandler(h func(err error)) {
	if h == nil {
		h = func(err error) { panic(err) }
	}
	r.overflow = h
}

// Capacity returns the ring size in bytes
func (r *PacketRing) Capacity() int {
	return len(r.buf)
}

// Occupied returns the number of bytes in use, headers included
func (r *PacketRing) Occupied() int {
	return int((r.write - r.read) & r.mask)
}

// AvailableSpace returns capacity minus occupied bytes
func (r *PacketRing) AvailableSpace() int {
	return len(r.buf) - r.Occupied()
}

// IsEmpty returns true if no message is stored
func (r *PacketRing) IsEmpty() bool {
	return r.read == r.write
}

// Reset discards every stored message
func (r *PacketRing) Reset() {
	r.read = 0
	r.write = 0
}

// Push stores msg behind a length header. One slot always stays free so a
// full ring never looks empty; a message that does not fit is fatal.
func (r *PacketRing) Push(msg string) {
	need := len(msg) + PacketHeader
	if space := r.AvailableSpace() - 1; need > space {
		r.overflow(&CapacityError{Need: need, Space: space})
		return
	}

	r.buf[r.write] = byte(need)
	r.write = (r.write + PacketHeader) & r.mask
	for i := 0; i < len(msg); i++ {
		r.buf[r.write] = msg[i]
		r.write = (r.write + 1) & r.mask
	}
}

// Pop removes the oldest message and delivers it according to mode. It
// returns ErrEmpty without touching the ring while the transmitter is busy.
func (r *PacketRing) Pop(mode PopMode) error {
	if mode == PopTransmit && r.tx == nil {
		return ErrNoTransmitter
	}
	if (r.tx != nil && r.tx.Busy()) || r.IsEmpty() {
		return ErrEmpty
	}

	header := uint32(r.buf[r.read])
	r.read = (r.read + PacketHeader) & r.mask

	n := header - PacketHeader
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = r.buf[r.read]
		r.read = (r.read + 1) & r.mask
	}

	if mode == PopTest {
		r.testSink(string(out))
	} else {
		r.tx.Start(string(out))
	}
	return nil
}
