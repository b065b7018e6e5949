package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull digital output
	ConfigureOutput(pin GPIOPin, initial bool) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// DigitalOut is a configured output pin, such as a status LED
type DigitalOut struct {
	driver GPIODriver
	pin    GPIOPin
	on     bool
}

// NewDigitalOut configures pin as an output driven to initial
func NewDigitalOut(driver GPIODriver, pin GPIOPin, initial bool) (*DigitalOut, error) {
	if err := driver.ConfigureOutput(pin, initial); err != nil {
		return nil, err
	}
	return &DigitalOut{driver: driver, pin: pin, on: initial}, nil
}

// Set drives the pin, skipping the write when nothing changes
func (d *DigitalOut) Set(on bool) error {
	if on == d.on {
		return nil
	}
	if err := d.driver.SetPin(d.pin, on); err != nil {
		return err
	}
	d.on = on
	return nil
}

// On reports the last value written
func (d *DigitalOut) On() bool {
	return d.on
}
