// Package idt builds the interrupt descriptor table the CPU consults on
// every interrupt. A Builder collects gates during bring-up; Load commits the
// encoded table to the CPU and hands back a read-only Table, after which the
// Builder refuses further changes.
package idt

import (
	"errors"
	"fmt"
)

// NumVectors is the number of gates in the table.
const NumVectors = 256

// TableSize is the encoded size of the full table in bytes.
const TableSize = NumVectors * GateSize

// Precondition violations. They are raised with panic: a kernel that hits
// one is misconfigured and must stop during bring-up.
var (
	ErrAlreadyLoaded = errors.New("idt: table already loaded")
	ErrNilHandler    = errors.New("idt: handler address is zero")
)

// Loader commits an encoded table to the CPU. hal.CPU satisfies it.
type Loader interface {
	LoadIDT(table []byte)
}

// Builder collects gates before the table is loaded.
type Builder struct {
	gates  [NumVectors]Gate
	loaded bool
}

// NewBuilder returns a builder with every gate not present.
func NewBuilder() *Builder {
	return &Builder{}
}

// Install points vector at handler with a present, DPL0 interrupt gate.
func (b *Builder) Install(vector uint8, handler uint64) {
	if b.loaded {
		panic(fmt.Errorf("%w: cannot install vector %d", ErrAlreadyLoaded, vector))
	}
	if handler == 0 {
		panic(fmt.Errorf("%w: vector %d", ErrNilHandler, vector))
	}
	b.gates[vector] = NewInterruptGate(handler)
}

// Installed reports whether vector has a present gate.
func (b *Builder) Installed(vector uint8) bool {
	return b.gates[vector].Present()
}

// Load encodes the table, commits it through l and returns the read-only
// view. It may be called exactly once.
func (b *Builder) Load(l Loader) *Table {
	if b.loaded {
		panic(ErrAlreadyLoaded)
	}
	b.loaded = true

	t := &Table{gates: b.gates}
	t.raw = make([]byte, 0, TableSize)
	for _, g := range t.gates {
		t.raw = g.AppendBinary(t.raw)
	}
	l.LoadIDT(t.raw)
	return t
}

// Table is a loaded interrupt descriptor table. It has no mutators.
type Table struct {
	gates [NumVectors]Gate
	raw   []byte
}

func (t *Table) Gate(vector uint8) Gate {
	return t.gates[vector]
}

// Limit is the value loaded into IDTR.limit.
func (t *Table) Limit() uint16 {
	return uint16(len(t.raw) - 1)
}

// Bytes returns a copy of the encoded table.
func (t *Table) Bytes() []byte {
	out := make([]byte, len(t.raw))
	copy(out, t.raw)
	return out
}

// PresentVectors lists the vectors that have a present gate.
func (t *Table) PresentVectors() []uint8 {
	var out []uint8
	for v, g := range t.gates {
		if g.Present() {
			out = append(out, uint8(v))
		}
	}
	return out
}
