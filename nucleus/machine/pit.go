package machine

import (
	"fmt"
	"sync"
	"time"

	"example.com/vesper-nucleus/nucleus/hal"
)

// Read/write access modes of the PIT control word.
const (
	PIT_RW_LATCH byte = 0x00
	PIT_RW_LSB   byte = 0x01
	PIT_RW_MSB   byte = 0x02
	PIT_RW_LOHI  byte = 0x03
)

type pitCounter struct {
	reload  uint16
	latch   uint16
	rwMode  byte
	mode    byte
	msbNext bool // LOHI access expects the high byte next
	latched bool
}

// period returns the output period for the counter. A reload of 0 means
// 65536.
func (c *pitCounter) period() time.Duration {
	div := uint32(c.reload)
	if div == 0 {
		div = 0x10000
	}
	return time.Duration(uint64(div) * uint64(time.Second) / hal.PIT_BASE_HZ)
}

// PITDevice is an 8254 whose channel 0 drives IRQ0. Only the reload value of
// channel 0 affects timing; modes are recorded but every mode behaves as a
// rate generator.
type PITDevice struct {
	lock     sync.Mutex
	irq      InterruptRaiser
	counters [3]pitCounter
	changed  chan struct{}
	ticks    uint64
}

// NewPITDevice returns a PIT in its power-on state (reload 0, 18.2 Hz).
func NewPITDevice(irq InterruptRaiser) *PITDevice {
	p := &PITDevice{
		irq:     irq,
		changed: make(chan struct{}, 1),
	}
	for i := range p.counters {
		p.counters[i].rwMode = PIT_RW_LOHI
		p.counters[i].mode = 3
	}
	return p
}

// HandleIO processes accesses to the counter and command ports.
func (p *PITDevice) HandleIO(port uint16, direction uint8, data []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	switch port {
	case hal.PIT_PORT_COUNTER0, hal.PIT_PORT_COUNTER1, hal.PIT_PORT_COUNTER2:
		c := &p.counters[port-hal.PIT_PORT_COUNTER0]
		if direction == IODirectionOut {
			if c.write(data[0]) && port == hal.PIT_PORT_COUNTER0 {
				select {
				case p.changed <- struct{}{}:
				default:
				}
			}
		} else {
			data[0] = c.read()
		}
	case hal.PIT_PORT_COMMAND:
		if direction == IODirectionIn {
			return fmt.Errorf("PITDevice: read from command port 0x%x", port)
		}
		p.command(data[0])
	default:
		return fmt.Errorf("PITDevice: unhandled I/O to port 0x%x", port)
	}
	return nil
}

// write stores a reload byte and reports whether the reload is complete.
func (c *pitCounter) write(val byte) bool {
	switch c.rwMode {
	case PIT_RW_LSB:
		c.reload = uint16(val)
		return true
	case PIT_RW_MSB:
		c.reload = uint16(val) << 8
		return true
	case PIT_RW_LOHI:
		if !c.msbNext {
			c.reload = c.reload&0xFF00 | uint16(val)
			c.msbNext = true
			return false
		}
		c.reload = c.reload&0x00FF | uint16(val)<<8
		c.msbNext = false
		return true
	}
	return false
}

func (c *pitCounter) read() byte {
	value := c.reload
	if c.latched {
		value = c.latch
	}
	var out byte
	switch c.rwMode {
	case PIT_RW_MSB:
		out = byte(value >> 8)
		c.latched = false
	case PIT_RW_LSB:
		out = byte(value)
		c.latched = false
	default:
		if !c.msbNext {
			out = byte(value)
			c.msbNext = true
		} else {
			out = byte(value >> 8)
			c.msbNext = false
			c.latched = false
		}
	}
	return out
}

func (p *PITDevice) command(val byte) {
	index := (val >> 6) & 0x3
	if index == 3 {
		// Read-back is not modelled.
		return
	}
	c := &p.counters[index]
	rw := (val >> 4) & 0x3
	if rw == PIT_RW_LATCH {
		c.latch = c.reload
		c.latched = true
		c.msbNext = false
		return
	}
	c.rwMode = rw
	c.mode = (val >> 1) & 0x7
	c.msbNext = false
}

// Period returns the current channel 0 period.
func (p *PITDevice) Period() time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.counters[0].period()
}

// Tick fires channel 0 once.
func (p *PITDevice) Tick() {
	p.lock.Lock()
	p.ticks++
	p.lock.Unlock()
	p.irq.RaiseIRQ(hal.PIT_IRQ)
}

// Ticks is the number of times channel 0 has fired.
func (p *PITDevice) Ticks() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ticks
}

// run fires channel 0 at its programmed rate until stop is closed.
func (p *PITDevice) run(stop <-chan struct{}) {
	ticker := time.NewTicker(p.Period())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-p.changed:
			ticker.Reset(p.Period())
		case <-ticker.C:
			p.Tick()
		}
	}
}
