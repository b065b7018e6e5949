package core

// EnergyMode is a sleep depth, ordered from EM0 (fully running) to EM4
// (deepest, wakes only on reset).
type EnergyMode uint8

const (
	EM0 EnergyMode = iota
	EM1
	EM2
	EM3
	EM4

	NumEnergyModes = 5
)

// MaxBlockCount is the per-mode block count treated as a runaway imbalance
const MaxBlockCount = 5

func (m EnergyMode) String() string {
	if m >= NumEnergyModes {
		return "EM?"
	}
	return "EM" + Itoa(int(m))
}

// Sleeper puts the processor into an energy mode until the next interrupt.
// It is called with interrupts masked; a pending interrupt still wakes the
// core, and is serviced once the mask is released.
type Sleeper interface {
	Sleep(mode EnergyMode)
}

// PowerArbiter reference-counts energy mode blocks. Blocking mode N keeps the
// processor out of N and every deeper mode until the matching unblock.
type PowerArbiter struct {
	blocks  [NumEnergyModes]uint32
	sleeper Sleeper
	trace   *Trace
}

// NewPowerArbiter creates an arbiter with no blocks
func NewPowerArbiter(sleeper Sleeper, trace *Trace) *PowerArbiter {
	return &PowerArbiter{sleeper: sleeper, trace: trace}
}

func (p *PowerArbiter) check(op string, mode EnergyMode) {
	if mode >= NumEnergyModes {
		haltWith(p.trace, &Fault{Kind: FaultImbalance, Op: op, Msg: "no energy mode " + Itoa(int(mode))})
	}
}

// Block prevents the processor from sleeping in mode or deeper
func (p *PowerArbiter) Block(mode EnergyMode) {
	p.check("power.block", mode)

	state := disableInterrupts()
	p.blocks[mode]++
	count := p.blocks[mode]
	p.trace.Record(TraceBlock, uint8(mode), count)
	restoreInterrupts(state)

	if count >= MaxBlockCount {
		haltWith(p.trace, &Fault{Kind: FaultImbalance, Op: "power.block",
			Msg: mode.String() + " blocked " + utoa(count) + " times"})
	}
}

// Unblock releases one block on mode. Releasing an unblocked mode is a no-op.
func (p *PowerArbiter) Unblock(mode EnergyMode) {
	p.check("power.unblock", mode)

	state := disableInterrupts()
	if p.blocks[mode] > 0 {
		p.blocks[mode]--
	} else {
		DebugPrintln("[POWER] unblock of unblocked " + mode.String())
	}
	p.trace.Record(TraceUnblock, uint8(mode), p.blocks[mode])
	restoreInterrupts(state)
}

// Count returns the number of outstanding blocks on mode
func (p *PowerArbiter) Count(mode EnergyMode) uint32 {
	p.check("power.count", mode)
	return p.blocks[mode]
}

// DeepestAllowed returns the shallowest blocked mode, or EM4 when nothing is
// blocked.
func (p *PowerArbiter) DeepestAllowed() EnergyMode {
	for m := EM0; m < NumEnergyModes; m++ {
		if p.blocks[m] != 0 {
			return m
		}
	}
	return EM4
}

// sleepMode maps the blocked mode to the mode actually entered. EM4 is
// never entered from the idle path.
func sleepMode(blocked EnergyMode) (EnergyMode, bool) {
	switch blocked {
	case EM0, EM1:
		return EM0, false
	case EM2:
		return EM1, true
	case EM3:
		return EM2, true
	default:
		return EM3, true
	}
}

// EnterSleep enters the deepest energy mode the current blocks permit.
// With EM0 or EM1 blocked the core stays running and this returns at once.
func (p *PowerArbiter) EnterSleep() {
	state := disableInterrupts()
	mode, ok := sleepMode(p.DeepestAllowed())
	if ok {
		p.trace.Record(TraceSleep, uint8(mode), 0)
		p.sleeper.Sleep(mode)
	}
	restoreInterrupts(state)
}

// SleepIfIdle sleeps only when no event is pending. The check and the sleep
// run under one interrupt mask so a post landing between them cannot be
// missed: it wakes the core and is serviced when the mask drops.
func (p *PowerArbiter) SleepIfIdle(s *Scheduler) bool {
	state := disableInterrupts()
	idle := s.Pending() == 0
	if idle {
		p.EnterSleep()
	}
	restoreInterrupts(state)
	return idle
}
