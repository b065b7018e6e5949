//go:build !tinygo

package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPowerBlockUnblock(t *testing.T) {
	resetInterrupts()
	p := NewPowerArbiter(&fakeSleeper{}, nil)

	if p.DeepestAllowed() != EM4 {
		t.Errorf("Expected EM4 with no blocks, got %s", p.DeepestAllowed())
	}

	p.Block(EM3)
	p.Block(EM2)
	if p.DeepestAllowed() != EM2 {
		t.Errorf("Expected EM2, got %s", p.DeepestAllowed())
	}
	if p.Count(EM2) != 1 || p.Count(EM3) != 1 {
		t.Errorf("Expected counts 1/1, got %d/%d", p.Count(EM2), p.Count(EM3))
	}

	p.Unblock(EM2)
	if p.DeepestAllowed() != EM3 {
		t.Errorf("Expected EM3 after unblocking EM2, got %s", p.DeepestAllowed())
	}
	p.Unblock(EM3)
	if p.DeepestAllowed() != EM4 {
		t.Errorf("Expected EM4 after unblocking everything, got %s", p.DeepestAllowed())
	}
}

func TestPowerNestedBlocks(t *testing.T) {
	resetInterrupts()
	p := NewPowerArbiter(&fakeSleeper{}, nil)
	p.Block(EM2)
	p.Block(EM2)
	p.Unblock(EM2)
	if p.DeepestAllowed() != EM2 {
		t.Errorf("Expected EM2 still blocked once, got %s", p.DeepestAllowed())
	}
	p.Unblock(EM2)
	if p.Count(EM2) != 0 {
		t.Errorf("Expected count 0, got %d", p.Count(EM2))
	}
}

func TestPowerBlockNeverDeepens(t *testing.T) {
	resetInterrupts()
	p := NewPowerArbiter(&fakeSleeper{}, nil)
	seq := []EnergyMode{EM4, EM3, EM4, EM1, EM2, EM0}
	prev := p.DeepestAllowed()
	for _, m := range seq {
		p.Block(m)
		got := p.DeepestAllowed()
		if got > prev {
			t.Errorf("Blocking %s deepened allowed mode from %s to %s", m, prev, got)
		}
		if got > m {
			t.Errorf("Blocking %s allowed %s", m, got)
		}
		prev = got
	}
}

func TestPowerUnblockAtZero(t *testing.T) {
	resetInterrupts()
	p := NewPowerArbiter(&fakeSleeper{}, nil)
	p.Unblock(EM1)
	if p.Count(EM1) != 0 {
		t.Errorf("Expected count to stay 0, got %d", p.Count(EM1))
	}
	if p.DeepestAllowed() != EM4 {
		t.Errorf("Expected EM4, got %s", p.DeepestAllowed())
	}
}

func TestPowerImbalanceHalts(t *testing.T) {
	resetInterrupts()
	tr := NewTrace()
	p := NewPowerArbiter(&fakeSleeper{}, tr)
	for i := 0; i < MaxBlockCount-1; i++ {
		p.Block(EM3)
	}
	f := expectHalt(t, func() { p.Block(EM3) })
	if f.Kind != FaultImbalance {
		t.Errorf("Expected imbalance fault, got %s", f.Kind)
	}
	evts := tr.Events()
	if last := evts[len(evts)-1]; last.Kind != TraceFault {
		t.Errorf("Expected fault as last trace event, got %s", last.Kind)
	}
}

func TestPowerBadModeHalts(t *testing.T) {
	resetInterrupts()
	p := NewPowerArbiter(&fakeSleeper{}, nil)
	f := expectHalt(t, func() { p.Block(EnergyMode(7)) })
	if f.Kind != FaultImbalance {
		t.Errorf("Expected imbalance fault, got %s", f.Kind)
	}
}

func TestEnterSleepMode(t *testing.T) {
	tests := []struct {
		blocked EnergyMode
		block   bool
		want    []EnergyMode
	}{
		{block: false, want: []EnergyMode{EM3}},
		{blocked: EM0, block: true, want: nil},
		{blocked: EM1, block: true, want: nil},
		{blocked: EM2, block: true, want: []EnergyMode{EM1}},
		{blocked: EM3, block: true, want: []EnergyMode{EM2}},
		{blocked: EM4, block: true, want: []EnergyMode{EM3}},
	}
	for _, tt := range tests {
		resetInterrupts()
		s := &fakeSleeper{}
		p := NewPowerArbiter(s, nil)
		if tt.block {
			p.Block(tt.blocked)
		}
		p.EnterSleep()
		if diff := cmp.Diff(tt.want, s.modes); diff != "" {
			t.Errorf("blocked %s (block=%v): sleep modes mismatch (-want +got):\n%s", tt.blocked, tt.block, diff)
		}
	}
}

func TestSleepIfIdle(t *testing.T) {
	resetInterrupts()
	s := &fakeSleeper{}
	p := NewPowerArbiter(s, nil)
	sched := NewScheduler(nil)

	sched.Post(0x01)
	if p.SleepIfIdle(sched) {
		t.Error("Expected no sleep with an event pending")
	}
	if len(s.modes) != 0 {
		t.Errorf("Expected no sleep calls, got %d", len(s.modes))
	}

	sched.Clear(0x01)
	if !p.SleepIfIdle(sched) {
		t.Error("Expected sleep with nothing pending")
	}
	if len(s.modes) != 1 {
		t.Errorf("Expected 1 sleep call, got %d", len(s.modes))
	}
}

// An interrupt that fires while the core is going to sleep must not be lost:
// it is latched, and its handler runs as soon as the mask drops.
func TestSleepIfIdleAtomic(t *testing.T) {
	resetInterrupts()
	defer resetInterrupts()

	sched := NewScheduler(nil)
	latched := false
	SetPendingInterruptHook(func() {
		if latched {
			latched = false
			RunISR(func() { sched.Post(0x04) })
		}
	})

	s := &fakeSleeper{}
	s.onSleep = func() {
		if !InterruptsMasked() {
			t.Error("Expected sleep entered with interrupts masked")
		}
		latched = true
		if sched.Pending() != 0 {
			t.Error("Expected the ISR not to run while masked")
		}
	}
	p := NewPowerArbiter(s, nil)

	if !p.SleepIfIdle(sched) {
		t.Fatal("Expected to sleep")
	}
	if sched.Pending() != 0x04 {
		t.Errorf("Expected the latched interrupt serviced on wake, pending 0x%X", sched.Pending())
	}
	if p.SleepIfIdle(sched) {
		t.Error("Expected no second sleep with the event pending")
	}
}
