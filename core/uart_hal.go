package core

// UARTFlags are the serial interrupt conditions the framing engine services.
type UARTFlags uint8

const (
	UARTIntTxReady     UARTFlags = 1 << iota // transmit buffer can take a byte
	UARTIntTxComplete                        // shift register drained
	UARTIntStartFrame                        // start marker received
	UARTIntRxData                            // a byte is in the receive register
	UARTIntSignalFrame                       // end marker received
)

// UARTPort is the low-energy UART the framing engine drives.
type UARTPort interface {
	// WriteData loads the transmit data register.
	WriteData(b byte)

	// ReadData returns the received byte and clears UARTIntRxData.
	ReadData() byte

	// EnableInterrupts adds flags to the interrupt enable mask.
	EnableInterrupts(flags UARTFlags)

	// DisableInterrupts removes flags from the interrupt enable mask.
	DisableInterrupts(flags UARTFlags)

	// BlockRX enables or disables receive blocking. While blocked the
	// receiver drops everything except the start marker.
	BlockRX(block bool)

	// SetFrameMarkers programs the start and signal frame detectors.
	SetFrameMarkers(start, signal byte)
}
