//go:build tinygo

package core

import "sync/atomic"

// The firmware clock is advanced from the timer interrupt and read from
// thread code.
func loadTicks() uint32   { return atomic.LoadUint32(&clockTicks) }
func storeTicks(t uint32) { atomic.StoreUint32(&clockTicks, t) }
func addTicks(t uint32)   { atomic.AddUint32(&clockTicks, t) }
