package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is used when the baud rate is not specified.
const DefaultBaudRate = 115200

// OpenSerial opens a serial port as a Stream using 8N1 framing.
func OpenSerial(device string, baud int) (*Stream, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", device, err)
	}
	port.ResetInputBuffer()
	return NewStream("serial://"+device, port), nil
}

// SerialPorts lists the serial ports of the system.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
