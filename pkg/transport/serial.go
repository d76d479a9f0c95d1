package transport

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// SerialUARTBaud is the hardware UART baud rate the external module
// expects: 8N1, RX enabled.
const SerialUARTBaud = 115200

// SerialSink drives a real serial port as the transport for an external
// AFHDS3 module.
type SerialSink struct {
	port *serial.Port
	tx   []byte
}

// OpenSerialSink opens dev at the AFHDS3 UART settings.
func OpenSerialSink(dev string) (*SerialSink, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        dev,
		Baud:        SerialUARTBaud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", dev, err)
	}
	return &SerialSink{port: port}, nil
}

// Reset clears the outbound buffer.
func (s *SerialSink) Reset() {
	s.tx = s.tx[:0]
}

// PushByte appends one byte to the outbound buffer.
func (s *SerialSink) PushByte(b byte) {
	s.tx = append(s.tx, b)
}

// Flush writes the outbound buffer to the serial port. It does not clear
// the buffer: a retry that calls Flush again without an intervening Reset
// resends the same bytes, per the transport contract.
func (s *SerialSink) Flush() error {
	if len(s.tx) == 0 {
		return nil
	}
	_, err := s.port.Write(s.tx)
	if err != nil {
		return fmt.Errorf("serial flush: %w", err)
	}
	return nil
}

// Size reports the number of bytes currently queued for send.
func (s *SerialSink) Size() int {
	return len(s.tx)
}

// ReadByte pulls one RX byte if available. When nothing is pending it
// returns after the port's 5 ms read timeout.
func (s *SerialSink) ReadByte() (byte, bool) {
	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil || n == 0 {
		return 0, false
	}
	return buf[0], true
}

// Close releases the underlying serial port.
func (s *SerialSink) Close() error {
	return s.port.Close()
}
