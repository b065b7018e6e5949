package core

// TickHz is the rate of the timestamp clock and of the period timer counts
const TickHz = 1000000

var clockTicks uint32

// GetTime returns the timestamp clock. Trace records are stamped with it.
func GetTime() uint32 {
	return loadTicks()
}

// SetTime moves the timestamp clock. The simulated board calls it every
// time its hardware clock advances; on the device the periodic timer
// advances it instead (TimerConfig.DriveClock).
func SetTime(ticks uint32) {
	storeTicks(ticks)
}

// AdvanceTime moves the timestamp clock forward by ticks
func AdvanceTime(ticks uint32) {
	addTicks(ticks)
}

// TimerFromUS converts microseconds to timer counts
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TickHz / 1000000)
}
