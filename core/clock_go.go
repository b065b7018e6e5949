//go:build !tinygo

package core

// The host clock is only touched from the single simulation goroutine.
func loadTicks() uint32   { return clockTicks }
func storeTicks(t uint32) { clockTicks = t }
func addTicks(t uint32)   { clockTicks += t }
