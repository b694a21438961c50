package idt

import (
	"encoding/binary"
	"fmt"
)

// GateSize is the size in bytes of one long-mode gate descriptor.
const GateSize = 16

// Gate descriptor attributes.
const (
	KERNEL_CODE_SELECTOR uint16 = 0x08 // Code segment selector in the boot GDT

	GATE_PRESENT        uint8 = 0x80 // P bit
	GATE_DPL_MASK       uint8 = 0x60 // Descriptor privilege level (bits 5-6)
	GATE_TYPE_MASK      uint8 = 0x0F
	GATE_TYPE_INTERRUPT uint8 = 0x0E // 64-bit interrupt gate (clears IF on entry)
	GATE_TYPE_TRAP      uint8 = 0x0F // 64-bit trap gate

	// INTERRUPT_GATE_ATTR is present, DPL0, interrupt gate.
	INTERRUPT_GATE_ATTR = GATE_PRESENT | GATE_TYPE_INTERRUPT
)

// Gate represents a single long-mode IDT descriptor.
// Wire layout (little-endian, no padding):
// OffsetLow:   bytes 0-1,   handler address bits 0-15.
// Selector:    bytes 2-3,   code segment selector.
// IST:         byte 4,      interrupt stack table index (low 3 bits).
// TypeAttr:    byte 5,      type (4 bits), 0, DPL (2 bits), P (1 bit).
// OffsetMid:   bytes 6-7,   handler address bits 16-31.
// OffsetHigh:  bytes 8-11,  handler address bits 32-63.
// Reserved:    bytes 12-15, must be zero.
// The zero Gate is "not present".
type Gate struct {
	OffsetLow  uint16
	Selector   uint16
	IST        uint8
	TypeAttr   uint8
	OffsetMid  uint16
	OffsetHigh uint32
	Reserved   uint32
}

// NewInterruptGate creates a present, kernel privilege interrupt gate
// jumping to handler through the kernel code segment.
func NewInterruptGate(handler uint64) Gate {
	return Gate{
		OffsetLow:  uint16(handler & 0xFFFF),
		Selector:   KERNEL_CODE_SELECTOR,
		TypeAttr:   INTERRUPT_GATE_ATTR,
		OffsetMid:  uint16((handler >> 16) & 0xFFFF),
		OffsetHigh: uint32(handler >> 32),
	}
}

func (g Gate) Present() bool {
	return g.TypeAttr&GATE_PRESENT != 0
}

// Offset reassembles the handler address.
func (g Gate) Offset() uint64 {
	return uint64(g.OffsetLow) | uint64(g.OffsetMid)<<16 | uint64(g.OffsetHigh)<<32
}

func (g Gate) DPL() uint8 {
	return (g.TypeAttr & GATE_DPL_MASK) >> 5
}

func (g Gate) Type() uint8 {
	return g.TypeAttr & GATE_TYPE_MASK
}

// AppendBinary appends the 16-byte wire form of g to b.
func (g Gate) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, g.OffsetLow)
	b = binary.LittleEndian.AppendUint16(b, g.Selector)
	b = append(b, g.IST, g.TypeAttr)
	b = binary.LittleEndian.AppendUint16(b, g.OffsetMid)
	b = binary.LittleEndian.AppendUint32(b, g.OffsetHigh)
	b = binary.LittleEndian.AppendUint32(b, g.Reserved)
	return b
}

// DecodeGate is the inverse of AppendBinary.
func DecodeGate(b []byte) (Gate, error) {
	if len(b) < GateSize {
		return Gate{}, fmt.Errorf("idt: gate needs %d bytes, got %d", GateSize, len(b))
	}
	return Gate{
		OffsetLow:  binary.LittleEndian.Uint16(b[0:2]),
		Selector:   binary.LittleEndian.Uint16(b[2:4]),
		IST:        b[4],
		TypeAttr:   b[5],
		OffsetMid:  binary.LittleEndian.Uint16(b[6:8]),
		OffsetHigh: binary.LittleEndian.Uint32(b[8:12]),
		Reserved:   binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}
