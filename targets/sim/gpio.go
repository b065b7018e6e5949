//go:build !tinygo

package sim

import (
	"errors"

	"sensornode/core"
)

var errPinNotOutput = errors.New("sim: pin not configured as output")

type pinState struct {
	value   bool
	toggles uint32
}

// GPIO is the port controller. It implements core.GPIODriver.
type GPIO struct {
	pins map[core.GPIOPin]*pinState
}

// NewGPIO returns a controller with every pin unconfigured
func NewGPIO() *GPIO {
	return &GPIO{pins: make(map[core.GPIOPin]*pinState)}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin, initial bool) error {
	g.pins[pin] = &pinState{value: initial}
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := g.pins[pin]
	if !ok {
		return errPinNotOutput
	}
	if p.value != value {
		p.toggles++
	}
	p.value = value
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := g.pins[pin]
	if !ok {
		return false, errPinNotOutput
	}
	return p.value, nil
}

// Toggles returns how many times pin changed level
func (g *GPIO) Toggles(pin core.GPIOPin) uint32 {
	if p, ok := g.pins[pin]; ok {
		return p.toggles
	}
	return 0
}
