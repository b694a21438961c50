// Package pic drives the two cascaded 8259A interrupt controllers of a PC:
// remapping their vectors away from the CPU exception range, masking unused
// lines and acknowledging serviced interrupts.
package pic

import (
	"errors"
	"fmt"

	"example.com/vesper-nucleus/nucleus/hal"
)

// FirstFreeVector is the first vector not reserved for CPU exceptions.
const FirstFreeVector = 32

// ErrOffsetsAliasExceptions is returned for offsets that would map hardware
// interrupts onto CPU exception vectors (0-31) or past vector 255.
var ErrOffsetsAliasExceptions = errors.New("pic: offsets alias CPU exception vectors")

// Offsets are the base vectors of the two controllers.
type Offsets struct {
	Primary   uint8
	Secondary uint8
}

// DefaultOffsets places IRQ0-7 at vectors 32-39 and IRQ8-15 at 40-47.
var DefaultOffsets = Offsets{Primary: 32, Secondary: 40}

// NewOffsets returns the offsets for a chain whose primary controller starts
// at primary. The secondary follows directly after.
func NewOffsets(primary uint8) (Offsets, error) {
	if primary < FirstFreeVector {
		return Offsets{}, fmt.Errorf("%w: primary base %d < %d", ErrOffsetsAliasExceptions, primary, FirstFreeVector)
	}
	if int(primary)+2*LinesPerChip > 256 {
		return Offsets{}, fmt.Errorf("%w: primary base %d leaves no room for the secondary", ErrOffsetsAliasExceptions, primary)
	}
	return Offsets{Primary: primary, Secondary: primary + LinesPerChip}, nil
}

// MustOffsets is like NewOffsets but panics on a bad base.
func MustOffsets(primary uint8) Offsets {
	o, err := NewOffsets(primary)
	if err != nil {
		panic(err)
	}
	return o
}

// Validate reports whether o satisfies the remapping invariants.
func (o Offsets) Validate() error {
	want, err := NewOffsets(o.Primary)
	if err != nil {
		return err
	}
	if o.Secondary != want.Secondary {
		return fmt.Errorf("%w: secondary base %d, want %d", ErrOffsetsAliasExceptions, o.Secondary, want.Secondary)
	}
	return nil
}

// Vector returns the vector raised for irq (0-15).
func (o Offsets) Vector(irq uint8) uint8 {
	if irq < LinesPerChip {
		return o.Primary + irq
	}
	return o.Secondary + irq - LinesPerChip
}

// Chain is the pair of cascaded controllers.
type Chain struct {
	io      hal.PortIO
	offsets Offsets
	// Lines that stay unmasked after Initialize, bit n for IRQ n.
	enabled uint16
}

// NewChain returns a driver for the controllers reached through io. Nothing
// is written to the hardware until Initialize. irqs lists the lines the
// kernel services.
func NewChain(io hal.PortIO, offsets Offsets, irqs ...uint8) (*Chain, error) {
	if err := offsets.Validate(); err != nil {
		return nil, err
	}
	c := &Chain{io: io, offsets: offsets}
	for _, irq := range irqs {
		if irq >= 2*LinesPerChip {
			return nil, fmt.Errorf("pic: IRQ %d out of range", irq)
		}
		c.enabled |= 1 << irq
	}
	return c, nil
}

func (c *Chain) Offsets() Offsets {
	return c.offsets
}

// Initialize runs the ICW1-ICW4 sequence on both controllers and then masks
// every line the kernel does not service.
func (c *Chain) Initialize() {
	c.out(hal.PIC_PRIMARY_CMD_PORT, ICW1_INIT|ICW1_IC4)
	c.out(hal.PIC_SECONDARY_CMD_PORT, ICW1_INIT|ICW1_IC4)

	c.out(hal.PIC_PRIMARY_DATA_PORT, c.offsets.Primary)
	c.out(hal.PIC_SECONDARY_DATA_PORT, c.offsets.Secondary)

	c.out(hal.PIC_PRIMARY_DATA_PORT, ICW3_PRIMARY_HAS_SECONDARY_ON_IRQ2)
	c.out(hal.PIC_SECONDARY_DATA_PORT, ICW3_SECONDARY_CASCADE_ID)

	c.out(hal.PIC_PRIMARY_DATA_PORT, ICW4_8086)
	c.out(hal.PIC_SECONDARY_DATA_PORT, ICW4_8086)

	c.writeMasks()
}

// Handles reports whether vector belongs to one of the two controllers.
func (c *Chain) Handles(vector uint8) bool {
	return c.handlesPrimary(vector) || c.handlesSecondary(vector)
}

func (c *Chain) handlesPrimary(vector uint8) bool {
	return vector >= c.offsets.Primary && vector < c.offsets.Primary+LinesPerChip
}

func (c *Chain) handlesSecondary(vector uint8) bool {
	return vector >= c.offsets.Secondary && vector < c.offsets.Secondary+LinesPerChip
}

// NotifyHandled sends end-of-interrupt for vector. Every hardware interrupt
// handler must call it exactly once before returning or the line stays
// blocked. Vectors outside the chain are ignored.
func (c *Chain) NotifyHandled(vector uint8) {
	if !c.Handles(vector) {
		return
	}
	if c.handlesSecondary(vector) {
		c.io.Outb(hal.PIC_SECONDARY_CMD_PORT, OCW2_EOI)
	}
	c.io.Outb(hal.PIC_PRIMARY_CMD_PORT, OCW2_EOI)
}

// Mask stops delivery of irq.
func (c *Chain) Mask(irq uint8) {
	if irq >= 2*LinesPerChip {
		return
	}
	c.enabled &^= 1 << irq
	c.writeMasks()
}

// Unmask allows delivery of irq.
func (c *Chain) Unmask(irq uint8) {
	if irq >= 2*LinesPerChip {
		return
	}
	c.enabled |= 1 << irq
	c.writeMasks()
}

// Disable masks every line on both controllers.
func (c *Chain) Disable() {
	c.enabled = 0
	c.io.Outb(hal.PIC_PRIMARY_DATA_PORT, 0xFF)
	c.io.Outb(hal.PIC_SECONDARY_DATA_PORT, 0xFF)
}

// Masks returns the interrupt mask registers as last written.
func (c *Chain) Masks() (primary, secondary byte) {
	return c.masks()
}

func (c *Chain) masks() (primary, secondary byte) {
	enabled := c.enabled
	if enabled>>LinesPerChip != 0 {
		enabled |= 1 << hal.CASCADE_IRQ
	}
	return ^byte(enabled), ^byte(enabled >> LinesPerChip)
}

func (c *Chain) writeMasks() {
	primary, secondary := c.masks()
	c.out(hal.PIC_PRIMARY_DATA_PORT, primary)
	c.out(hal.PIC_SECONDARY_DATA_PORT, secondary)
}

func (c *Chain) out(port uint16, val byte) {
	c.io.Outb(port, val)
	hal.IOWait(c.io)
}
