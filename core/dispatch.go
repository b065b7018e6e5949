package core

import "context"

// EventHandler runs in the dispatch loop for one event bit. It is
// responsible for clearing its own bit.
type EventHandler func()

// Handler is a registered event handler
type Handler struct {
	Event Event
	Name  string
	Run   EventHandler
}

// Dispatcher is the main loop: it sleeps while nothing is pending and
// otherwise runs the handler of one pending event per pass. Handlers are
// tried in registration order.
type Dispatcher struct {
	sched    *Scheduler
	power    *PowerArbiter
	trace    *Trace
	handlers []*Handler
	byEvent  map[Event]*Handler
}

// NewDispatcher creates a dispatcher with no handlers
func NewDispatcher(sched *Scheduler, power *PowerArbiter, trace *Trace) *Dispatcher {
	return &Dispatcher{
		sched:   sched,
		power:   power,
		trace:   trace,
		byEvent: make(map[Event]*Handler),
	}
}

// Register binds a handler to a single event bit. Registering the same bit
// again replaces the handler but keeps its position.
func (d *Dispatcher) Register(e Event, name string, run EventHandler) {
	if e == 0 || e&(e-1) != 0 {
		panic("dispatch: event " + utoa(uint32(e)) + " is not a single bit")
	}
	if run == nil {
		panic("dispatch: nil handler for " + name)
	}
	if h, exists := d.byEvent[e]; exists {
		h.Name = name
		h.Run = run
		return
	}
	h := &Handler{Event: e, Name: name, Run: run}
	d.handlers = append(d.handlers, h)
	d.byEvent[e] = h
}

// Lookup returns the handler registered for e
func (d *Dispatcher) Lookup(e Event) (*Handler, bool) {
	h, ok := d.byEvent[e]
	return h, ok
}

// Count returns the number of registered handlers
func (d *Dispatcher) Count() int {
	return len(d.handlers)
}

// RunOnce makes one pass of the main loop. It returns the event it
// dispatched, or 0 if it slept (or found nothing to do).
func (d *Dispatcher) RunOnce() Event {
	if d.power.SleepIfIdle(d.sched) {
		// Woken up; whatever woke us is handled on the next pass.
		return 0
	}

	pending := d.sched.Pending()
	for _, h := range d.handlers {
		if pending&h.Event != 0 {
			d.trace.Record(TraceDispatch, 0, uint32(h.Event))
			h.Run()
			return h.Event
		}
	}

	if pending != 0 {
		haltWith(d.trace, protocolFault("dispatch", "no handler for events "+utoa(uint32(pending))))
	}
	return 0
}

// Run loops until ctx is cancelled. Firmware passes context.Background().
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.RunOnce()
	}
}
