//go:build !tinygo

package sim

// hwEvent is a scheduled change of peripheral state
type hwEvent struct {
	at   uint64 // microseconds since reset
	fire func()
	next *hwEvent
	dead bool
}

// eventList keeps pending hardware events sorted by time. Events due at the
// same instant fire in the order they were scheduled.
type eventList struct {
	head *hwEvent
}

// insert adds ev in time order
func (l *eventList) insert(ev *hwEvent) {
	if l.head == nil || ev.at < l.head.at {
		ev.next = l.head
		l.head = ev
		return
	}

	current := l.head
	for current.next != nil && current.next.at <= ev.at {
		current = current.next
	}
	ev.next = current.next
	current.next = ev
}

// prune drops cancelled events from the front of the list
func (l *eventList) prune() {
	for l.head != nil && l.head.dead {
		ev := l.head
		l.head = ev.next
		ev.next = nil
	}
}

// peek returns the next live event without removing it
func (l *eventList) peek() *hwEvent {
	l.prune()
	return l.head
}

// pop removes and returns the next live event, or nil
func (l *eventList) pop() *hwEvent {
	l.prune()
	ev := l.head
	if ev != nil {
		l.head = ev.next
		ev.next = nil // Clear to avoid holding the rest of the list
	}
	return ev
}

// cancel marks ev so it never fires
func cancel(ev *hwEvent) {
	if ev != nil {
		ev.dead = true
	}
}
