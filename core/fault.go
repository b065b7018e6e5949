package core

// FaultKind classifies an unrecoverable firmware fault
type FaultKind uint8

const (
	// FaultProtocol is an interrupt condition arriving in a state that does
	// not expect it.
	FaultProtocol FaultKind = iota + 1
	// FaultImbalance is a power-mode block count out of bounds.
	FaultImbalance
	// FaultCapacity is a buffer write past its fixed capacity.
	FaultCapacity
)

func (k FaultKind) String() string {
	switch k {
	case FaultProtocol:
		return "protocol violation"
	case FaultImbalance:
		return "resource imbalance"
	case FaultCapacity:
		return "capacity exceeded"
	default:
		return "fault"
	}
}

// Fault describes an invariant violation. It is returned by the state
// machine Advance methods so callers can inspect it, and handed to Halt by
// the interrupt entry points.
type Fault struct {
	Kind FaultKind
	Op   string // component and operation, e.g. "i2c.ack"
	Msg  string
}

func (f *Fault) Error() string {
	s := f.Kind.String()
	if f.Op != "" {
		s = f.Op + ": " + s
	}
	if f.Msg != "" {
		s += ": " + f.Msg
	}
	return s
}

func protocolFault(op, msg string) *Fault {
	return &Fault{Kind: FaultProtocol, Op: op, Msg: msg}
}

// HaltHandler is called with the fault that stopped the firmware. It must
// not return.
type HaltHandler func(f *Fault)

var haltHandler HaltHandler = func(f *Fault) { panic(f) }

// SetHaltHandler replaces the halt handler. Targets install one that parks
// the core for a debugger; the host default panics with the *Fault.
func SetHaltHandler(h HaltHandler) {
	if h == nil {
		h = func(f *Fault) { panic(f) }
	}
	haltHandler = h
}

// Halt stops the firmware on an invariant violation. There is no recovery
// path: a corrupted state machine cannot keep servicing interrupts.
func Halt(err error) {
	f, ok := err.(*Fault)
	if !ok {
		f = &Fault{Kind: FaultProtocol, Msg: err.Error()}
	}
	DebugPrintln("[FAULT] " + f.Error())
	haltHandler(f)
	// A handler that returns would let the firmware continue on corrupt state.
	panic(f)
}
