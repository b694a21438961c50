// Package hal is the boundary between the nucleus and the machine it runs on.
// Everything above this package reaches hardware only through PortIO and CPU,
// so the same code runs on bare metal and against the simulated PC in
// package machine.
package hal

// PortIO is the x86 I/O port space (IN/OUT, byte wide).
type PortIO interface {
	Inb(port uint16) byte
	Outb(port uint16, val byte)
}

// Trampoline is the tiny entry routine the CPU runs in interrupt context.
// It must not block, must not allocate and must acknowledge its interrupt
// before returning.
type Trampoline func()

// CPU exposes the privileged instructions the nucleus needs.
type CPU interface {
	// Link returns the entry address the CPU jumps to when a gate points at
	// t. On hardware this is the address of the assembly stub wrapping t.
	Link(t Trampoline) uint64

	// LoadIDT commits an encoded interrupt descriptor table (lidt). The
	// slice must stay valid and unmodified for the lifetime of the kernel.
	LoadIDT(table []byte)

	EnableInterrupts()  // sti
	DisableInterrupts() // cli
	InterruptsEnabled() bool

	// Halt suspends the CPU until an interrupt arrives and returns once that
	// one interrupt has been serviced (hlt). There is no timeout.
	Halt()

	// HaltForever stops the CPU permanently with interrupts disabled. It
	// never returns.
	HaltForever()
}

// IOWait gives slow ISA devices time to settle after an OUT by writing to the
// unused POST diagnostics port.
func IOWait(io PortIO) {
	io.Outb(POST_PORT, 0)
}

// PortIOFunc adapts a pair of functions to PortIO.
type PortIOFunc struct {
	In  func(port uint16) byte
	Out func(port uint16, val byte)
}

func (f PortIOFunc) Inb(port uint16) byte {
	if f.In == nil {
		return 0xFF
	}
	return f.In(port)
}

func (f PortIOFunc) Outb(port uint16, val byte) {
	if f.Out != nil {
		f.Out(port, val)
	}
}
