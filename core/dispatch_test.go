//go:build !tinygo

package core

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestDispatcher() (*Dispatcher, *Scheduler, *fakeSleeper) {
	resetInterrupts()
	s := &fakeSleeper{}
	sched := NewScheduler(nil)
	power := NewPowerArbiter(s, nil)
	return NewDispatcher(sched, power, nil), sched, s
}

func TestDispatcherOneEventPerPass(t *testing.T) {
	d, sched, sleeper := newTestDispatcher()

	var ran []string
	d.Register(0x01, "first", func() { sched.Clear(0x01); ran = append(ran, "first") })
	d.Register(0x04, "third", func() { sched.Clear(0x04); ran = append(ran, "third") })
	d.Register(0x02, "second", func() { sched.Clear(0x02); ran = append(ran, "second") })

	sched.Post(0x07)
	for i := 0; i < 3; i++ {
		d.RunOnce()
	}
	// Registration order, not bit order
	if diff := cmp.Diff([]string{"first", "third", "second"}, ran); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	if len(sleeper.modes) != 0 {
		t.Errorf("Expected no sleep while events pending, got %d", len(sleeper.modes))
	}

	if got := d.RunOnce(); got != 0 {
		t.Errorf("Expected idle pass, dispatched 0x%X", got)
	}
	if len(sleeper.modes) != 1 {
		t.Errorf("Expected 1 sleep when idle, got %d", len(sleeper.modes))
	}
}

func TestDispatcherReturnsEvent(t *testing.T) {
	d, sched, _ := newTestDispatcher()
	d.Register(0x10, "boot", func() { sched.Clear(0x10) })
	sched.Post(0x10)
	if got := d.RunOnce(); got != 0x10 {
		t.Errorf("Expected 0x10 dispatched, got 0x%X", got)
	}
	h, ok := d.Lookup(0x10)
	if !ok || h.Name != "boot" {
		t.Errorf("Expected boot handler, got %+v", h)
	}
}

func TestDispatcherReplaceKeepsOrder(t *testing.T) {
	d, sched, _ := newTestDispatcher()
	var ran []string
	d.Register(0x01, "a", func() {})
	d.Register(0x02, "b", func() { sched.Clear(0x02); ran = append(ran, "b") })
	d.Register(0x01, "a2", func() { sched.Clear(0x01); ran = append(ran, "a2") })

	if d.Count() != 2 {
		t.Errorf("Expected 2 handlers, got %d", d.Count())
	}
	sched.Post(0x03)
	d.RunOnce()
	d.RunOnce()
	if diff := cmp.Diff([]string{"a2", "b"}, ran); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherRegisterRejectsMasks(t *testing.T) {
	d, _, _ := newTestDispatcher()
	for _, e := range []Event{0, 0x03} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic registering 0x%X", e)
				}
			}()
			d.Register(e, "bad", func() {})
		}()
	}
}

func TestDispatcherUnhandledHalts(t *testing.T) {
	d, sched, _ := newTestDispatcher()
	sched.Post(0x80)
	f := expectHalt(t, func() { d.RunOnce() })
	if f.Op != "dispatch" {
		t.Errorf("Expected dispatch fault, got %q", f.Op)
	}
}

func TestDispatcherRunStops(t *testing.T) {
	d, sched, _ := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	d.Register(0x01, "tick", func() {
		sched.Clear(0x01)
		n++
		if n < 3 {
			sched.Post(0x01)
		} else {
			cancel()
		}
	})
	sched.Post(0x01)
	if err := d.Run(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 runs, got %d", n)
	}
}
