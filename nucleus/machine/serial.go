package machine

import (
	"fmt"
	"io"
	"sync"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/uart"
)

// IER bit enabling the received-data interrupt.
const ierRxDataAvailable byte = 0x01

// SerialPortDevice is a 16550A UART. Transmitted bytes go to an io.Writer;
// bytes handed to Receive show up in the receive FIFO.
type SerialPortDevice struct {
	lock   sync.Mutex
	out    io.Writer
	irq    InterruptRaiser
	base   uint16
	rx     []byte
	thrDll byte
	ierDlh byte
	dlh    byte
	fcr    byte
	lcr    byte
	mcr    byte
	scr    byte
	// Write error from out, reported on the next LSR read.
	writeErr error
}

// NewSerialPortDevice creates a UART at base writing its output to w.
func NewSerialPortDevice(base uint16, w io.Writer, irq InterruptRaiser) *SerialPortDevice {
	if w == nil {
		w = io.Discard
	}
	return &SerialPortDevice{out: w, irq: irq, base: base}
}

// Receive queues bytes arriving on the line.
func (s *SerialPortDevice) Receive(data ...byte) {
	s.lock.Lock()
	s.rx = append(s.rx, data...)
	raise := s.ier()&ierRxDataAvailable != 0 && s.mcr&uart.MCR_OUT2 != 0
	s.lock.Unlock()
	if raise && len(data) > 0 {
		s.irq.RaiseIRQ(hal.COM1_IRQ)
	}
}

// Divisor returns the programmed baud divisor.
func (s *SerialPortDevice) Divisor() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return uint16(s.dlh)<<8 | uint16(s.thrDll)
}

func (s *SerialPortDevice) dlab() bool {
	return s.lcr&uart.LCR_DLAB != 0
}

func (s *SerialPortDevice) ier() byte {
	return s.ierDlh
}

// HandleIO processes accesses to the eight UART registers.
func (s *SerialPortDevice) HandleIO(port uint16, direction uint8, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	reg := port - s.base
	if direction == IODirectionOut {
		val := data[0]
		switch reg {
		case uart.RHR_THR_DLL:
			if s.dlab() {
				s.thrDll = val
				return nil
			}
			if _, err := s.out.Write([]byte{val}); err != nil {
				s.writeErr = err
			}
		case uart.IER_DLH:
			if s.dlab() {
				s.dlh = val
			} else {
				s.ierDlh = val
			}
		case uart.IIR_FCR:
			s.fcr = val
			if val&uart.FCR_CLEAR_RX != 0 {
				s.rx = nil
			}
		case uart.LCR:
			s.lcr = val
		case uart.MCR:
			s.mcr = val
		case uart.SCR:
			s.scr = val
		default:
			return fmt.Errorf("SerialPortDevice: unhandled OUT to port 0x%x (offset %d)", port, reg)
		}
		return nil
	}

	switch reg {
	case uart.RHR_THR_DLL:
		if s.dlab() {
			data[0] = s.thrDll
		} else if len(s.rx) > 0 {
			data[0] = s.rx[0]
			s.rx = s.rx[1:]
		} else {
			data[0] = 0
		}
	case uart.IER_DLH:
		if s.dlab() {
			data[0] = s.dlh
		} else {
			data[0] = s.ierDlh
		}
	case uart.IIR_FCR:
		data[0] = uart.IIR_NO_INT_PENDING
		if s.fcr&uart.FCR_ENABLE != 0 {
			data[0] |= uart.IIR_FIFO_ENABLED
		}
	case uart.LCR:
		data[0] = s.lcr
	case uart.MCR:
		data[0] = s.mcr
	case uart.LSR:
		data[0] = uart.LSR_THRE | uart.LSR_TEMT
		if len(s.rx) > 0 {
			data[0] |= uart.LSR_DR
		}
		if s.writeErr != nil {
			data[0] |= uart.LSR_OE
			s.writeErr = nil
		}
	case uart.MSR:
		data[0] = 0
	case uart.SCR:
		data[0] = s.scr
	default:
		return fmt.Errorf("SerialPortDevice: unhandled IN from port 0x%x (offset %d)", port, reg)
	}
	return nil
}
