//go:build !tinygo

package core

import (
	"errors"
	"testing"
)

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins   map[GPIOPin]bool
	writes int
	fail   error
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin, initial bool) error {
	if m.fail != nil {
		return m.fail
	}
	m.pins[pin] = initial
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.fail != nil {
		return m.fail
	}
	m.writes++
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

func TestDigitalOut(t *testing.T) {
	mockDriver := NewMockGPIODriver()
	pin := GPIOPin(4)

	led, err := NewDigitalOut(mockDriver, pin, false)
	if err != nil {
		t.Fatalf("NewDigitalOut failed: %v", err)
	}
	if led.On() {
		t.Error("Expected LED off initially")
	}

	if err := led.Set(true); err != nil {
		t.Fatalf("Set(true) failed: %v", err)
	}
	state, _ := mockDriver.GetPin(pin)
	if !state || !led.On() {
		t.Errorf("Expected pin to be high, got low")
	}

	// Same value again does not touch the hardware
	led.Set(true)
	if mockDriver.writes != 1 {
		t.Errorf("Expected 1 pin write, got %d", mockDriver.writes)
	}
}

func TestDigitalOutConfigureError(t *testing.T) {
	mockDriver := NewMockGPIODriver()
	mockDriver.fail = errors.New("no such pin")
	if _, err := NewDigitalOut(mockDriver, 99, false); err == nil {
		t.Error("Expected configure error")
	}
}
