package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CFlags are the bus interrupt conditions the engine services.
type I2CFlags uint8

const (
	I2CIntAck       I2CFlags = 1 << iota // slave acknowledged the last byte
	I2CIntNack                           // slave did not acknowledge
	I2CIntDataValid                      // a received byte is in the data register
	I2CIntStop                           // stop condition completed

	I2CIntAll = I2CIntAck | I2CIntNack | I2CIntDataValid | I2CIntStop
)

// I2CPort is the master peripheral the bus engine drives. Every method maps
// to one register command; completion is reported through interrupts.
type I2CPort interface {
	// Start issues a (repeated) start condition.
	Start()

	// Stop issues a stop condition; I2CIntStop follows when it completes.
	Stop()

	// WriteData loads the transmit data register.
	WriteData(b byte)

	// ReadData returns the received byte and clears I2CIntDataValid.
	ReadData() byte

	// Ack acknowledges the received byte so the slave sends another.
	Ack()

	// Nack declines further bytes.
	Nack()

	// EnableInterrupts sets the interrupt enable mask.
	EnableInterrupts(flags I2CFlags)
}
