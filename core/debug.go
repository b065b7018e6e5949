package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceKind identifies what a trace event recorded
type TraceKind uint8

// Trace event kinds
const (
	TracePost     TraceKind = 1 // event bit posted, Value = event mask
	TraceDispatch TraceKind = 2 // handler invoked, Value = event bit
	TraceSleep    TraceKind = 3 // sleep entered, Code = energy mode
	TraceBlock    TraceKind = 4 // Code = energy mode, Value = new count
	TraceUnblock  TraceKind = 5 // Code = energy mode, Value = new count
	TraceI2C      TraceKind = 6 // Code = new bus state
	TraceTx       TraceKind = 7 // Code = new transmit state, Value = bytes sent
	TraceRx       TraceKind = 8 // Code = new receive state, Value = frame length
	TraceFault    TraceKind = 9 // Code = fault kind
)

func (k TraceKind) String() string {
	switch k {
	case TracePost:
		return "POST"
	case TraceDispatch:
		return "DISPATCH"
	case TraceSleep:
		return "SLEEP"
	case TraceBlock:
		return "BLOCK"
	case TraceUnblock:
		return "UNBLOCK"
	case TraceI2C:
		return "I2C"
	case TraceTx:
		return "TX"
	case TraceRx:
		return "RX"
	case TraceFault:
		return "FAULT!"
	default:
		return "UNKNOWN"
	}
}

// TraceEvent captures one core event for post-mortem analysis
type TraceEvent struct {
	Kind  TraceKind
	Code  uint8
	Clock uint32 // System clock at event
	Value uint32 // Context-dependent value
}

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Trace is a fixed-size ring of the most recent core events. Recording is
// non-blocking and allocation-free. A nil *Trace discards everything.
type Trace struct {
	ring  [TraceRingSize]TraceEvent
	head  uint8 // Next write position
	count uint8
}

// NewTrace creates an empty trace ring
func NewTrace() *Trace {
	return &Trace{}
}

// Record captures an event in the ring, overwriting the oldest
func (t *Trace) Record(kind TraceKind, code uint8, value uint32) {
	if t == nil {
		return
	}
	state := disableInterrupts()
	t.ring[t.head] = TraceEvent{
		Kind:  kind,
		Code:  code,
		Clock: GetTime(),
		Value: value,
	}
	t.head = (t.head + 1) % TraceRingSize
	if t.count < TraceRingSize {
		t.count++
	}
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first
func (t *Trace) Events() []TraceEvent {
	if t == nil {
		return nil
	}
	out := make([]TraceEvent, 0, t.count)
	start := (t.head + TraceRingSize - t.count) % TraceRingSize
	for i := uint8(0); i < t.count; i++ {
		out = append(out, t.ring[(start+i)%TraceRingSize])
	}
	return out
}

// Dump outputs the trace ring through the debug writer (call on fault)
func (t *Trace) Dump() {
	if t == nil || debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range t.Events() {
		debugPrintln("[TRACE] " + evt.Kind.String() +
			" code=" + Itoa(int(evt.Code)) +
			" clock=" + utoa(evt.Clock) +
			" value=" + utoa(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// Clear empties the trace ring
func (t *Trace) Clear() {
	if t == nil {
		return
	}
	for i := range t.ring {
		t.ring[i] = TraceEvent{}
	}
	t.head = 0
	t.count = 0
}

// haltWith records the fault in the trace, dumps it and halts
func haltWith(t *Trace, f *Fault) {
	t.Record(TraceFault, uint8(f.Kind), 0)
	t.Dump()
	Halt(f)
}
