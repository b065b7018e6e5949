//go:build !tinygo

package sim

import "sensornode/core"

// Timer is the low-energy periodic timer. It implements core.TimerPort.
// One tick is one microsecond.
type Timer struct {
	b *Board

	ien core.TimerFlags
	ifl core.TimerFlags

	period  uint32
	active  uint32
	running bool

	underflow *hwEvent
	comp1     *hwEvent

	underflows uint32
}

func newTimer(b *Board) *Timer {
	return &Timer{b: b}
}

// Underflows returns the number of completed periods
func (t *Timer) Underflows() uint32 {
	return t.underflows
}

func (t *Timer) Configure(periodTicks, activeTicks uint32) {
	t.period = periodTicks
	t.active = activeTicks
}

func (t *Timer) Enable(on bool) {
	if on == t.running {
		return
	}
	t.running = on
	if on {
		t.startPeriod()
		return
	}
	cancel(t.underflow)
	cancel(t.comp1)
	t.underflow, t.comp1 = nil, nil
}

func (t *Timer) EnableInterrupts(flags core.TimerFlags) {
	t.ien = flags
}

// startPeriod reloads the counter. COMP1 matches active ticks before the
// underflow.
func (t *Timer) startPeriod() {
	if t.period == 0 {
		return
	}
	t.underflow = t.b.schedule(uint64(t.period), t.expire)
	if t.active > 0 && t.active < t.period {
		t.comp1 = t.b.schedule(uint64(t.period-t.active), func() {
			t.ifl |= core.TimerIntComp1
		})
	}
}

func (t *Timer) expire() {
	t.underflows++
	// The counter reloads from COMP0 as it wraps.
	t.ifl |= core.TimerIntUnderflow | core.TimerIntComp0
	t.startPeriod()
}

// pending returns the enabled conditions without clearing them
func (t *Timer) pending() core.TimerFlags {
	return t.ifl & t.ien
}

// take returns the enabled conditions and clears them
func (t *Timer) take() core.TimerFlags {
	flags := t.pending()
	t.ifl &^= flags
	return flags
}
