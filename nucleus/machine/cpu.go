package machine

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/idt"
)

// ErrTripleFault is reported when the CPU is directed to a vector without a
// present gate. With no exception handlers installed the real CPU resets.
var ErrTripleFault = errors.New("machine: triple fault")

// entryBase is where linked trampolines are placed in the simulated address
// space (the kernel text of a higher-half kernel).
const entryBase uint64 = 0xFFFF_FFFF_8010_0000

// CPU is the single execution unit of the simulated machine. Interrupts are
// delivered synchronously on the goroutine executing kernel code, at the
// points where real hardware would take them: sti with a request pending,
// and hlt. Interrupt context therefore never runs concurrently with the
// cooperative loop.
type CPU struct {
	pic    *DualPIC
	logger *log.Logger
	debug  bool

	mu        sync.Mutex
	entries   map[uint64]hal.Trampoline
	nextEntry uint64
	idt       []byte
	ifFlag    bool
	inHandler bool
	delivered uint64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
	fault    error
}

// NewCPU creates a CPU taking interrupts from pic.
func NewCPU(pic *DualPIC, logger *log.Logger, debug bool) *CPU {
	return &CPU{
		pic:       pic,
		logger:    logger,
		debug:     debug,
		entries:   make(map[uint64]hal.Trampoline),
		nextEntry: entryBase,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Link places t in the simulated address space and returns its address.
func (c *CPU) Link(t hal.Trampoline) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := c.nextEntry
	c.nextEntry += 0x40
	c.entries[addr] = t
	return addr
}

func (c *CPU) LoadIDT(table []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idt = table
	if c.debug {
		c.logger.Printf("CPU: lidt limit=0x%x", len(table)-1)
	}
}

func (c *CPU) EnableInterrupts() {
	c.mu.Lock()
	c.ifFlag = true
	c.mu.Unlock()
	for c.deliver() {
	}
}

func (c *CPU) DisableInterrupts() {
	c.mu.Lock()
	c.ifFlag = false
	c.mu.Unlock()
}

func (c *CPU) InterruptsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ifFlag
}

// Halt waits for an interrupt, services it and returns, as hlt resumes at
// the next instruction after the handler's iretq. Requests still pending are
// taken at the next hlt or sti. With interrupts disabled, or once the machine
// is stopped, the CPU never wakes up again and the calling goroutine exits.
func (c *CPU) Halt() {
	for {
		if !c.InterruptsEnabled() {
			c.HaltForever()
		}
		if c.deliver() {
			return
		}
		select {
		case <-c.pic.Ready():
		case <-c.stop:
			c.HaltForever()
		}
	}
}

// HaltForever marks the CPU halted and terminates the calling goroutine.
func (c *CPU) HaltForever() {
	c.mu.Lock()
	c.ifFlag = false
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })
	runtime.Goexit()
}

// Stop wakes a halted CPU for good; its next hlt ends execution.
func (c *CPU) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the CPU has halted permanently.
func (c *CPU) Done() <-chan struct{} {
	return c.done
}

// Fault returns the fault that halted the CPU, if any.
func (c *CPU) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

// Delivered is the number of interrupts dispatched so far.
func (c *CPU) Delivered() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

// deliver dispatches at most one pending interrupt and reports whether it did.
func (c *CPU) deliver() bool {
	c.mu.Lock()
	if !c.ifFlag || c.inHandler {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	vector, ok := c.pic.Acknowledge()
	if !ok {
		return false
	}

	handler, err := c.lookup(vector)
	if err != nil {
		c.mu.Lock()
		c.fault = err
		c.mu.Unlock()
		c.logger.Printf("CPU: %v", err)
		c.HaltForever()
	}

	// Interrupt gates clear IF on entry; iretq restores it.
	c.mu.Lock()
	c.ifFlag = false
	c.inHandler = true
	c.mu.Unlock()

	handler()

	c.mu.Lock()
	c.ifFlag = true
	c.inHandler = false
	c.delivered++
	c.mu.Unlock()
	return true
}

func (c *CPU) lookup(vector uint8) (hal.Trampoline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.idt == nil {
		return nil, fmt.Errorf("%w: vector %d with no IDT loaded", ErrTripleFault, vector)
	}
	off := int(vector) * idt.GateSize
	if off+idt.GateSize > len(c.idt) {
		return nil, fmt.Errorf("%w: vector %d beyond IDT limit", ErrTripleFault, vector)
	}
	gate, err := idt.DecodeGate(c.idt[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector %d: %v", ErrTripleFault, vector, err)
	}
	if !gate.Present() {
		return nil, fmt.Errorf("%w: vector %d not present", ErrTripleFault, vector)
	}
	handler, ok := c.entries[gate.Offset()]
	if !ok {
		return nil, fmt.Errorf("%w: vector %d points at 0x%x, no code there", ErrTripleFault, vector, gate.Offset())
	}
	return handler, nil
}
