//go:build !tinygo

package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeUARTPort models the LEUART registers the engine touches
type fakeUARTPort struct {
	written       []byte
	rx            []byte
	enabled       UARTFlags
	blocked       bool
	start, signal byte
	dropped       int
}

func (p *fakeUARTPort) WriteData(b byte) { p.written = append(p.written, b) }
func (p *fakeUARTPort) ReadData() byte {
	if len(p.rx) == 0 {
		return 0
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b
}
func (p *fakeUARTPort) EnableInterrupts(f UARTFlags)  { p.enabled |= f }
func (p *fakeUARTPort) DisableInterrupts(f UARTFlags) { p.enabled &^= f }
func (p *fakeUARTPort) BlockRX(block bool)            { p.blocked = block }
func (p *fakeUARTPort) SetFrameMarkers(start, signal byte) {
	p.start, p.signal = start, signal
}

// receive delivers bytes the way the receiver and its frame detectors do
func (p *fakeUARTPort) receive(u *UARTEngine, data string) {
	for i := 0; i < len(data); i++ {
		b := data[i]
		if p.blocked && b != p.start {
			p.dropped++
			continue
		}
		p.rx = append(p.rx[:0], b)
		flags := UARTIntRxData
		if b == p.start {
			flags |= UARTIntStartFrame
		}
		if b == p.signal {
			flags |= UARTIntSignalFrame
		}
		if flags &= p.enabled; flags != 0 {
			RunISR(func() { u.HandleInterrupt(flags) })
		}
	}
}

// stepTx services one pending transmit interrupt and returns it
func (p *fakeUARTPort) stepTx(u *UARTEngine) UARTFlags {
	var cond UARTFlags
	switch {
	case p.enabled&UARTIntTxReady != 0:
		cond = UARTIntTxReady
	case p.enabled&UARTIntTxComplete != 0:
		cond = UARTIntTxComplete
	default:
		return 0
	}
	RunISR(func() { u.HandleInterrupt(cond) })
	return cond
}

const (
	testTxDone Event = 0x20
	testRxDone Event = 0x40
)

func newTestUART() (*UARTEngine, *fakeUARTPort, *Scheduler, *PowerArbiter, *Trace) {
	resetInterrupts()
	port := &fakeUARTPort{}
	tr := NewTrace()
	sched := NewScheduler(tr)
	power := NewPowerArbiter(&fakeSleeper{}, tr)
	u := NewUARTEngine(port, sched, power, tr, testTxDone, testRxDone)
	return u, port, sched, power, tr
}

func TestUARTSetup(t *testing.T) {
	_, port, _, _, _ := newTestUART()
	if port.start != '#' || port.signal != '!' {
		t.Errorf("Expected markers '#' and '!', got %q and %q", port.start, port.signal)
	}
	if !port.blocked {
		t.Error("Expected receiver blocked at setup")
	}
	if port.enabled != UARTIntStartFrame {
		t.Errorf("Expected only start frame enabled, got 0x%X", port.enabled)
	}
}

func TestUARTTransmit(t *testing.T) {
	u, port, sched, power, _ := newTestUART()

	u.Start("AAA")
	if !u.Busy() || u.TxState() != TxSending {
		t.Fatalf("Expected busy and sending, got %s", u.TxState())
	}
	if power.Count(UARTTxBlockMode) != 1 {
		t.Errorf("Expected %s blocked, count %d", UARTTxBlockMode, power.Count(UARTTxBlockMode))
	}

	var seen []UARTFlags
	for u.Busy() {
		seen = append(seen, port.stepTx(u))
	}
	want := []UARTFlags{UARTIntTxReady, UARTIntTxReady, UARTIntTxReady, UARTIntTxComplete}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("interrupt sequence mismatch (-want +got):\n%s", diff)
	}
	if string(port.written) != "AAA" {
		t.Errorf("Expected AAA written, got %q", port.written)
	}
	if u.TxState() != TxIdle {
		t.Errorf("Expected idle, got %s", u.TxState())
	}
	if sched.Pending() != testTxDone {
		t.Errorf("Expected tx done posted, got 0x%X", sched.Pending())
	}
	if power.Count(UARTTxBlockMode) != 0 {
		t.Errorf("Expected block released, count %d", power.Count(UARTTxBlockMode))
	}
	if port.enabled&(UARTIntTxReady|UARTIntTxComplete) != 0 {
		t.Errorf("Expected transmit interrupts disabled, got 0x%X", port.enabled)
	}
}

func TestUARTTransmitSerializes(t *testing.T) {
	u, port, _, _, tr := newTestUART()
	u.SetWaitHook(func() { port.stepTx(u) })

	u.Start("AAA")
	u.Start("BBB") // spins until AAA is done
	if got := string(port.written); got != "AAA" {
		t.Errorf("Expected AAA complete before BBB starts, got %q", got)
	}
	for u.Busy() {
		port.stepTx(u)
	}
	if got := string(port.written); got != "AAABBB" {
		t.Errorf("Expected AAABBB, got %q", got)
	}
	if n := countPosts(tr, testTxDone); n != 2 {
		t.Errorf("Expected 2 tx done posts, got %d", n)
	}
}

func TestUARTTransmitEmpty(t *testing.T) {
	u, port, sched, _, _ := newTestUART()
	u.Start("")
	if u.TxState() != TxCompleting {
		t.Fatalf("Expected completing, got %s", u.TxState())
	}
	if got := port.stepTx(u); got != UARTIntTxComplete {
		t.Errorf("Expected tx complete, got 0x%X", got)
	}
	if u.Busy() || sched.Pending() != testTxDone {
		t.Errorf("Expected idle with tx done posted, busy=%v pending=0x%X", u.Busy(), sched.Pending())
	}
	if len(port.written) != 0 {
		t.Errorf("Expected nothing written, got %q", port.written)
	}
}

func TestUARTTransmitTooLong(t *testing.T) {
	u, _, _, power, _ := newTestUART()
	f := expectHalt(t, func() { u.Start(strings.Repeat("x", UARTBufferSize+1)) })
	if f.Kind != FaultCapacity {
		t.Errorf("Expected capacity fault, got %s", f.Kind)
	}
	if u.Busy() || power.Count(UARTTxBlockMode) != 0 {
		t.Error("Expected nothing started")
	}

	u.Start(strings.Repeat("x", UARTBufferSize))
	if !u.Busy() {
		t.Error("Expected a full buffer to be accepted")
	}
}

func TestUARTReceiveFrame(t *testing.T) {
	u, port, sched, _, tr := newTestUART()
	port.receive(u, "a#Hello!def")

	if got := u.ReceivedText(); got != "#Hello!" {
		t.Errorf("Expected #Hello!, got %q", got)
	}
	if sched.Pending() != testRxDone {
		t.Errorf("Expected rx done posted, got 0x%X", sched.Pending())
	}
	if n := countPosts(tr, testRxDone); n != 1 {
		t.Errorf("Expected exactly 1 rx done post, got %d", n)
	}
	if port.dropped != 4 {
		t.Errorf("Expected 4 bytes dropped outside the frame, got %d", port.dropped)
	}
	if u.RxState() != RxIdle || !port.blocked {
		t.Errorf("Expected idle and blocked, got %s blocked=%v", u.RxState(), port.blocked)
	}
	if port.enabled != UARTIntStartFrame {
		t.Errorf("Expected only start frame enabled, got 0x%X", port.enabled)
	}
}

func TestUARTReceiveResync(t *testing.T) {
	u, port, _, _, _ := newTestUART()
	port.receive(u, "#ab#cd!")
	if got := u.ReceivedText(); got != "#cd!" {
		t.Errorf("Expected #cd! after resync, got %q", got)
	}
}

func TestUARTReceiveOverflow(t *testing.T) {
	u, port, _, _, _ := newTestUART()
	port.receive(u, "#"+strings.Repeat("x", UARTBufferSize-1))
	if u.RxState() != RxCollecting {
		t.Fatalf("Expected collecting, got %s", u.RxState())
	}
	port.rx = []byte{'y'}
	err := u.AdvanceRx(UARTIntRxData)
	if f, ok := err.(*Fault); !ok || f.Kind != FaultCapacity {
		t.Errorf("Expected capacity fault, got %v", err)
	}
}

func TestUARTIllegalConditionsFault(t *testing.T) {
	tests := []struct {
		name string
		tx   bool
		cond UARTFlags
	}{
		{"txbl in idle", true, UARTIntTxReady},
		{"txc in idle", true, UARTIntTxComplete},
		{"rxdatav in idle", false, UARTIntRxData},
		{"sigf in idle", false, UARTIntSignalFrame},
		{"not a tx condition", true, UARTIntRxData},
		{"not an rx condition", false, UARTIntTxReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _, _, _, _ := newTestUART()
			var err error
			if tt.tx {
				err = u.AdvanceTx(tt.cond)
			} else {
				err = u.AdvanceRx(tt.cond)
			}
			if f, ok := err.(*Fault); !ok || f.Kind != FaultProtocol {
				t.Errorf("Expected protocol fault, got %v", err)
			}
		})
	}

	// txc while still sending
	u, _, _, _, _ := newTestUART()
	u.Start("AB")
	if err := u.AdvanceTx(UARTIntTxComplete); err == nil {
		t.Error("Expected fault for tx complete while sending")
	}
	f := expectHalt(t, func() { RunISR(func() { u.HandleInterrupt(UARTIntTxComplete) }) })
	if f.Op != "uart.txc" {
		t.Errorf("Expected fault in uart.txc, got %q", f.Op)
	}
}
