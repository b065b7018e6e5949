package core

// Event is a set of application event bits. Each event kind owns exactly
// one bit; the application assigns the values.
type Event uint32

// Scheduler holds the pending event mask shared between interrupt handlers
// and the dispatch loop. Repeated posts of the same bit before it is cleared
// coalesce into one dispatch.
type Scheduler struct {
	pending Event
	trace   *Trace
}

// NewScheduler creates a scheduler with no pending events
func NewScheduler(trace *Trace) *Scheduler {
	return &Scheduler{trace: trace}
}

// Reset clears every pending event (startup)
func (s *Scheduler) Reset() {
	state := disableInterrupts()
	s.pending = 0
	restoreInterrupts(state)
}

// Post marks events as pending
func (s *Scheduler) Post(e Event) {
	if e == 0 {
		return
	}
	state := disableInterrupts()
	s.pending |= e
	s.trace.Record(TracePost, 0, uint32(e))
	restoreInterrupts(state)
}

// Clear removes events from the pending set. Handlers clear their own bit.
func (s *Scheduler) Clear(e Event) {
	state := disableInterrupts()
	s.pending &^= e
	restoreInterrupts(state)
}

// Pending returns the current event mask
func (s *Scheduler) Pending() Event {
	return s.pending
}
