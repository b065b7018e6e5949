//go:build !tinygo

package core

// State is the saved interrupt mask depth on regular Go.
//
// The host build has no interrupt controller. It keeps a mask depth so the
// simulated board can tell whether an interrupt may be taken right now, and it
// services interrupts that were latched while masked as soon as the outermost
// critical section ends.
type State uintptr

var (
	maskDepth   uintptr
	pendingHook func()
)

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() State {
	prev := State(maskDepth)
	maskDepth++
	return prev
}

// restoreInterrupts restores the interrupt state. Leaving the outermost
// critical section takes any pending interrupts.
func restoreInterrupts(state State) {
	maskDepth = uintptr(state)
	if maskDepth == 0 && pendingHook != nil {
		pendingHook()
	}
}

// InterruptsMasked reports whether code is currently inside a critical section
// or an interrupt handler.
func InterruptsMasked() bool {
	return maskDepth != 0
}

// SetPendingInterruptHook registers the function that services latched
// interrupts when the mask is released. Used by simulated targets.
func SetPendingInterruptHook(hook func()) {
	pendingHook = hook
}

// RunISR runs an interrupt handler with interrupts masked, the way the core
// enters an exception. Handlers never nest.
func RunISR(handler func()) {
	maskDepth++
	defer func() { maskDepth-- }()
	handler()
}
