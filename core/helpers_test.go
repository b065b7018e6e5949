//go:build !tinygo

package core

import "testing"

// expectHalt runs fn and returns the fault it halted with
func expectHalt(t *testing.T, fn func()) *Fault {
	t.Helper()
	var f *Fault
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			var ok bool
			if f, ok = r.(*Fault); !ok {
				panic(r)
			}
		}()
		fn()
	}()
	if f == nil {
		t.Fatal("Expected halt, got none")
	}
	return f
}

// resetInterrupts clears mask state left over from a halted test
func resetInterrupts() {
	maskDepth = 0
	pendingHook = nil
}

// fakeSleeper records the modes it was asked to enter
type fakeSleeper struct {
	modes   []EnergyMode
	onSleep func()
}

func (s *fakeSleeper) Sleep(mode EnergyMode) {
	s.modes = append(s.modes, mode)
	if s.onSleep != nil {
		s.onSleep()
	}
}

// countPosts returns how many times e was posted according to the trace
func countPosts(tr *Trace, e Event) int {
	n := 0
	for _, evt := range tr.Events() {
		if evt.Kind == TracePost && Event(evt.Value)&e != 0 {
			n++
		}
	}
	return n
}
