// Package uart drives a 16550-compatible serial port for kernel output.
package uart

import (
	"errors"
	"fmt"

	"example.com/vesper-nucleus/nucleus/hal"
)

// ErrTransmitTimeout is returned when the transmitter never reports empty.
var ErrTransmitTimeout = errors.New("uart: transmitter stuck")

// spinLimit bounds the THRE poll so a missing UART cannot wedge the kernel.
const spinLimit = 1 << 16

// Port is a 16550 at a fixed I/O base.
type Port struct {
	io   hal.PortIO
	base uint16
}

// NewPort returns a driver for the UART at base (hal.COM1_PORT_BASE for COM1).
func NewPort(io hal.PortIO, base uint16) *Port {
	return &Port{io: io, base: base}
}

// Init programs the line for baud 8N1 with FIFOs enabled and interrupts off.
func (p *Port) Init(baud int) error {
	if baud <= 0 || ClockHz%baud != 0 {
		return fmt.Errorf("uart: unsupported baud rate %d", baud)
	}
	divisor := uint16(ClockHz / baud)

	p.out(IER_DLH, 0x00)
	p.out(LCR, LCR_DLAB)
	p.out(RHR_THR_DLL, byte(divisor))
	p.out(IER_DLH, byte(divisor>>8))
	p.out(LCR, LCR_WORD_8)
	p.out(IIR_FCR, FCR_ENABLE|FCR_CLEAR_RX|FCR_CLEAR_TX|FCR_TRIG_14)
	p.out(MCR, MCR_DTR|MCR_RTS)
	return nil
}

// WriteByte transmits b once the holding register is empty.
func (p *Port) WriteByte(b byte) error {
	for i := 0; i < spinLimit; i++ {
		if p.in(LSR)&LSR_THRE != 0 {
			p.out(RHR_THR_DLL, b)
			return nil
		}
	}
	return ErrTransmitTimeout
}

// Write transmits buf, translating "\n" to "\r\n" for terminals.
func (p *Port) Write(buf []byte) (int, error) {
	for i, b := range buf {
		if b == '\n' {
			if err := p.WriteByte('\r'); err != nil {
				return i, err
			}
		}
		if err := p.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// TryReadByte returns a received byte if one is waiting.
func (p *Port) TryReadByte() (byte, bool) {
	if p.in(LSR)&LSR_DR == 0 {
		return 0, false
	}
	return p.in(RHR_THR_DLL), true
}

func (p *Port) in(reg uint16) byte {
	return p.io.Inb(p.base + reg)
}

func (p *Port) out(reg uint16, val byte) {
	p.io.Outb(p.base+reg, val)
}
