//go:build tinygo

package core

import "runtime/interrupt"

// On the device critical sections mask interrupts at the core. Handlers
// are entered by the interrupt controller, so nothing is replayed on
// restore.

func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// InterruptsMasked reports whether code is running in an interrupt handler
func InterruptsMasked() bool {
	return interrupt.In()
}

func init() {
	// Park the core with interrupts off so a debugger sees the faulting state.
	haltHandler = func(f *Fault) {
		interrupt.Disable()
		for {
		}
	}
}
