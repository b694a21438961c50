package main

import (
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// openSerial opens a tty at baud, 8N1, with reads blocking for at least one
// byte.
func openSerial(port string, baud int) (io.ReadWriteCloser, error) {
	rw, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", port, err)
	}
	return rw, nil
}
