// Package nucleus is the interrupt subsystem of the kernel. It owns the
// interrupt descriptor table, the controller chain, the scancode queue and
// the key decoder, and is the only code that enables or disables interrupts.
//
// Bring-up is New followed by Init. Afterwards the cooperative loop calls
// PollKey until it runs dry and then WaitForInterrupt:
//
//	k.Init()
//	for {
//		for key, ok := k.PollKey(); ok; key, ok = k.PollKey() {
//			handle(key)
//		}
//		k.WaitForInterrupt()
//	}
package nucleus

import (
	"errors"
	"fmt"
	"io"
	"log"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/idt"
	"example.com/vesper-nucleus/nucleus/keyboard"
	"example.com/vesper-nucleus/nucleus/pic"
	"example.com/vesper-nucleus/nucleus/scancode"
)

// ErrAlreadyInitialized is raised (with panic) by a second Init.
var ErrAlreadyInitialized = errors.New("nucleus: already initialized")

// Kernel is the single owner of the interrupt-bound state.
type Kernel struct {
	cfg    Config
	cpu    hal.CPU
	io     hal.PortIO
	logger *log.Logger

	idt   *idt.Builder
	table *idt.Table
	chain *pic.Chain
	queue *scancode.Queue
	keys  *keyboard.Decoder

	timerVector    uint8
	keyboardVector uint8

	// Written only in interrupt context.
	ticks uint64

	initialized bool
}

// New validates cfg and prepares a kernel. Nothing is written to the
// hardware until Init.
func New(cfg Config, cpu hal.CPU, ports hal.PortIO) (*Kernel, error) {
	if cpu == nil || ports == nil {
		return nil, errors.New("nucleus: CPU and port I/O are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("nucleus: invalid config: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	chain, err := pic.NewChain(ports, cfg.Offsets, hal.PIT_IRQ, hal.KEYBOARD_IRQ)
	if err != nil {
		return nil, err
	}
	queue, err := scancode.NewQueue(cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	return &Kernel{
		cfg:            cfg,
		cpu:            cpu,
		io:             ports,
		logger:         cfg.Logger,
		idt:            idt.NewBuilder(),
		chain:          chain,
		queue:          queue,
		keys:           keyboard.NewDecoder(cfg.Control),
		timerVector:    cfg.Offsets.Vector(hal.PIT_IRQ),
		keyboardVector: cfg.Offsets.Vector(hal.KEYBOARD_IRQ),
	}, nil
}

// Init installs the timer and keyboard handlers, loads the table, programs
// the controllers and enables interrupts, in that order. It panics if
// called twice.
func (k *Kernel) Init() {
	if k.initialized {
		panic(ErrAlreadyInitialized)
	}
	k.initialized = true

	k.idt.Install(k.timerVector, k.cpu.Link(k.timerInterrupt))
	k.idt.Install(k.keyboardVector, k.cpu.Link(k.keyboardInterrupt))
	k.table = k.idt.Load(k.cpu)
	if k.cfg.Debug {
		k.logger.Printf("Nucleus: IDT loaded, limit=0x%x, vectors %v", k.table.Limit(), k.table.PresentVectors())
	}

	k.chain.Initialize()
	primary, secondary := k.chain.Masks()
	k.logger.Printf("Nucleus: PIC remapped to %d/%d, masks 0x%02x/0x%02x",
		k.cfg.Offsets.Primary, k.cfg.Offsets.Secondary, primary, secondary)

	if k.cfg.TimerHz > 0 {
		programTimer(k.io, k.cfg.TimerHz)
		k.logger.Printf("Nucleus: timer set to %d Hz", k.cfg.TimerHz)
	}

	k.cpu.EnableInterrupts()
	k.logger.Println("Nucleus: interrupts enabled")
}

// WaitForInterrupt suspends the CPU until some interrupt has been handled.
func (k *Kernel) WaitForInterrupt() {
	k.cpu.Halt()
}

// PollKey decodes queued scancodes until one produces a key or the queue is
// empty.
func (k *Kernel) PollKey() (keyboard.DecodedKey, bool) {
	for {
		var b byte
		var ok bool
		k.WithoutInterrupts(func() {
			b, ok = k.queue.Pop()
		})
		if !ok {
			return keyboard.DecodedKey{}, false
		}
		if key, ok := k.keys.Feed(b); ok {
			return key, true
		}
	}
}

// Run is the cooperative loop: it hands every key to onKey and sleeps
// between interrupts. It returns when onKey returns false.
func (k *Kernel) Run(onKey func(keyboard.DecodedKey) bool) {
	for {
		for key, ok := k.PollKey(); ok; key, ok = k.PollKey() {
			if !onKey(key) {
				return
			}
		}
		k.WaitForInterrupt()
	}
}

// Ticks is the number of timer interrupts handled.
func (k *Kernel) Ticks() uint64 {
	var n uint64
	k.WithoutInterrupts(func() { n = k.ticks })
	return n
}

// DroppedScancodes is the number of scancodes lost to a full queue.
func (k *Kernel) DroppedScancodes() uint64 {
	var n uint64
	k.WithoutInterrupts(func() { n = k.queue.Dropped() })
	return n
}

// WithoutInterrupts runs fn with interrupts disabled and then restores the
// previous interrupt flag.
func (k *Kernel) WithoutInterrupts(fn func()) {
	enabled := k.cpu.InterruptsEnabled()
	k.cpu.DisableInterrupts()
	defer func() {
		if enabled {
			k.cpu.EnableInterrupts()
		}
	}()
	fn()
}

// Halt stops the CPU for good.
func (k *Kernel) Halt() {
	k.cpu.DisableInterrupts()
	k.logger.Println("Nucleus: halted")
	k.cpu.HaltForever()
}

// Fatal reports reason and halts. It never returns.
func (k *Kernel) Fatal(reason string) {
	k.cpu.DisableInterrupts()
	k.logger.Printf("Nucleus: fatal: %s", reason)
	k.cpu.HaltForever()
}

// Table returns the loaded interrupt descriptor table, or nil before Init.
func (k *Kernel) Table() *idt.Table {
	return k.table
}

// Chain returns the controller chain the kernel programs in Init.
func (k *Kernel) Chain() *pic.Chain {
	return k.chain
}
