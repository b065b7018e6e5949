// Low-energy periodic timer
// Wakes the device once per period by posting its underflow event.
package core

// TimerFlags are the periodic timer interrupt conditions
type TimerFlags uint8

const (
	TimerIntComp0     TimerFlags = 1 << iota // counter matched COMP0
	TimerIntComp1                            // counter matched COMP1 (end of active period)
	TimerIntUnderflow                        // counter wrapped, one period elapsed
)

// TimerBlockMode is the first mode in which the low-energy timer stops
const TimerBlockMode = EM4

// TimerPort is the low-energy timer peripheral
type TimerPort interface {
	// Configure sets the period and the active (compare 1) time in ticks.
	Configure(periodTicks, activeTicks uint32)

	// Enable starts or stops counting.
	Enable(on bool)

	// EnableInterrupts sets the interrupt enable mask.
	EnableInterrupts(flags TimerFlags)
}

// TimerConfig describes the periodic wake source
type TimerConfig struct {
	PeriodUS uint32
	ActiveUS uint32

	// Interrupts to enable; each maps to the event posted when it fires.
	Interrupts TimerFlags
	Comp0      Event
	Comp1      Event
	Underflow  Event

	// DriveClock advances the timestamp clock by one period on every
	// underflow. Set it on boards with no other time source.
	DriveClock bool
}

// PeriodicTimer posts application events from timer interrupts and keeps
// its energy mode blocked while counting.
type PeriodicTimer struct {
	port    TimerPort
	sched   *Scheduler
	power   *PowerArbiter
	cfg     TimerConfig
	running bool
}

// NewPeriodicTimer configures the timer stopped
func NewPeriodicTimer(port TimerPort, sched *Scheduler, power *PowerArbiter, cfg TimerConfig) *PeriodicTimer {
	port.Enable(false)
	port.Configure(TimerFromUS(cfg.PeriodUS), TimerFromUS(cfg.ActiveUS))
	port.EnableInterrupts(cfg.Interrupts)
	return &PeriodicTimer{port: port, sched: sched, power: power, cfg: cfg}
}

// Start starts or stops counting, blocking the timer's energy mode while it
// runs. Repeated calls with the same value do nothing.
func (t *PeriodicTimer) Start(enable bool) {
	if enable == t.running {
		return
	}
	if enable {
		t.power.Block(TimerBlockMode)
	} else {
		t.power.Unblock(TimerBlockMode)
	}
	t.running = enable
	t.port.Enable(enable)
}

// Running reports whether the timer is counting
func (t *PeriodicTimer) Running() bool {
	return t.running
}

// HandleInterrupt is the timer ISR body
func (t *PeriodicTimer) HandleInterrupt(flags TimerFlags) {
	if flags&TimerIntComp0 != 0 {
		t.sched.Post(t.cfg.Comp0)
	}
	if flags&TimerIntComp1 != 0 {
		t.sched.Post(t.cfg.Comp1)
	}
	if flags&TimerIntUnderflow != 0 {
		if t.cfg.DriveClock {
			AdvanceTime(TimerFromUS(t.cfg.PeriodUS))
		}
		t.sched.Post(t.cfg.Underflow)
	}
}
