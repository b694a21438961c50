package machine

import (
	"fmt"
	"sync"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/pic"
)

// picChip models a single 8259A.
type picChip struct {
	primary bool
	offset  uint8 // Vector base (ICW2)
	imr     uint8 // Interrupt Mask Register
	irr     uint8 // Interrupt Request Register
	isr     uint8 // In-Service Register

	icwStep  int  // Next ICW expected (2-4), 0 when operational
	needICW4 bool // ICW1 announced an ICW4
	single   bool // ICW1 SNGL
	autoEOI  bool
	readISR  bool // OCW3 register select for command port reads
	eoiCount int
}

func (c *picChip) writeCommand(val byte) {
	if val&pic.ICW1_INIT != 0 {
		c.icwStep = 2
		c.needICW4 = val&pic.ICW1_IC4 != 0
		c.single = val&pic.ICW1_SNGL != 0
		c.imr = 0
		c.isr = 0
		c.autoEOI = false
		c.readISR = false
		return
	}
	if val&pic.OCW3_ID != 0 {
		c.writeOCW3(val)
		return
	}
	c.writeOCW2(val)
}

func (c *picChip) writeData(val byte) {
	switch c.icwStep {
	case 0:
		c.imr = val
	case 2:
		c.offset = val &^ 0x07
		switch {
		case !c.single:
			c.icwStep = 3
		case c.needICW4:
			c.icwStep = 4
		default:
			c.icwStep = 0
		}
	case 3:
		if c.needICW4 {
			c.icwStep = 4
		} else {
			c.icwStep = 0
		}
	case 4:
		c.autoEOI = val&pic.ICW4_AEOI != 0
		c.icwStep = 0
	}
}

func (c *picChip) writeOCW2(val byte) {
	if val&pic.OCW2_EOI == 0 {
		return
	}
	c.eoiCount++
	if val&pic.OCW2_SL != 0 {
		c.isr &^= 1 << (val & pic.OCW2_LEVEL_MASK)
		return
	}
	for i := uint8(0); i < pic.LinesPerChip; i++ {
		if c.isr&(1<<i) != 0 {
			c.isr &^= 1 << i
			return
		}
	}
}

func (c *picChip) writeOCW3(val byte) {
	if val&pic.OCW3_RR != 0 {
		c.readISR = val&pic.OCW3_RIS != 0
	}
}

func (c *picChip) readCommand() byte {
	if c.readISR {
		return c.isr
	}
	return c.irr
}

// next returns the highest priority request that is unmasked and not
// blocked by an in-service line of equal or higher priority.
func (c *picChip) next(extra uint8) (uint8, bool) {
	pending := (c.irr | extra) &^ c.imr
	for i := uint8(0); i < pic.LinesPerChip; i++ {
		bit := uint8(1) << i
		if c.isr&bit != 0 {
			return 0, false
		}
		if pending&bit != 0 {
			return i, true
		}
	}
	return 0, false
}

func (c *picChip) accept(line uint8) {
	c.irr &^= 1 << line
	if !c.autoEOI {
		c.isr |= 1 << line
	}
}

// DualPIC models the two cascaded 8259A controllers of a PC. Requests are
// edge triggered and latch in IRR even while masked.
type DualPIC struct {
	mu        sync.Mutex
	primary   picChip
	secondary picChip
	ready     chan struct{}
}

// NewDualPIC returns controllers in their BIOS state: vectors 0x08/0x70,
// every line masked.
func NewDualPIC() *DualPIC {
	return &DualPIC{
		primary:   picChip{primary: true, offset: 0x08, imr: 0xFF},
		secondary: picChip{offset: 0x70, imr: 0xFF},
		ready:     make(chan struct{}, 1),
	}
}

// HandleIO processes accesses to the command and data ports of both chips.
func (p *DualPIC) HandleIO(port uint16, direction uint8, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var chip *picChip
	switch port {
	case hal.PIC_PRIMARY_CMD_PORT, hal.PIC_PRIMARY_DATA_PORT:
		chip = &p.primary
	case hal.PIC_SECONDARY_CMD_PORT, hal.PIC_SECONDARY_DATA_PORT:
		chip = &p.secondary
	default:
		return fmt.Errorf("PIC: unhandled I/O to port 0x%x", port)
	}
	command := port == hal.PIC_PRIMARY_CMD_PORT || port == hal.PIC_SECONDARY_CMD_PORT

	if direction == IODirectionIn {
		if command {
			data[0] = chip.readCommand()
		} else {
			data[0] = chip.imr
		}
		return nil
	}
	if command {
		chip.writeCommand(data[0])
	} else {
		chip.writeData(data[0])
	}
	// An EOI or unmask may have released a queued request.
	p.signalLocked()
	return nil
}

// RaiseIRQ latches a request on line 0-15.
func (p *DualPIC) RaiseIRQ(irqLine uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case irqLine < pic.LinesPerChip:
		p.primary.irr |= 1 << irqLine
	case irqLine < 2*pic.LinesPerChip:
		p.secondary.irr |= 1 << (irqLine - pic.LinesPerChip)
	default:
		return
	}
	p.signalLocked()
}

// Ready is signalled whenever a request may have become deliverable.
func (p *DualPIC) Ready() <-chan struct{} {
	return p.ready
}

func (p *DualPIC) signalLocked() {
	if _, ok := p.pendingLocked(); !ok {
		return
	}
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *DualPIC) cascadeLocked() uint8 {
	if _, ok := p.secondary.next(0); ok {
		return 1 << hal.CASCADE_IRQ
	}
	return 0
}

func (p *DualPIC) pendingLocked() (uint8, bool) {
	return p.primary.next(p.cascadeLocked())
}

// HasPendingInterrupts reports whether Acknowledge would return a vector.
func (p *DualPIC) HasPendingInterrupts() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pendingLocked()
	return ok
}

// Acknowledge performs the INTA cycle: it picks the highest priority
// deliverable request, marks it in service and returns its vector.
func (p *DualPIC) Acknowledge() (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, ok := p.pendingLocked()
	if !ok {
		return 0, false
	}
	if line != hal.CASCADE_IRQ || p.cascadeLocked() == 0 {
		p.primary.accept(line)
		return p.primary.offset + line, true
	}
	secondaryLine, _ := p.secondary.next(0)
	p.secondary.accept(secondaryLine)
	p.primary.accept(hal.CASCADE_IRQ)
	return p.secondary.offset + secondaryLine, true
}

// PICState is a snapshot of one controller, for inspection in tests and
// debug output.
type PICState struct {
	Offset      uint8
	IMR         uint8
	IRR         uint8
	ISR         uint8
	Initialized bool
	EOIs        int
}

// State returns snapshots of the primary and secondary controllers.
func (p *DualPIC) State() (primary, secondary PICState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := func(c *picChip) PICState {
		return PICState{
			Offset:      c.offset,
			IMR:         c.imr,
			IRR:         c.irr,
			ISR:         c.isr,
			Initialized: c.icwStep == 0,
			EOIs:        c.eoiCount,
		}
	}
	return snap(&p.primary), snap(&p.secondary)
}
