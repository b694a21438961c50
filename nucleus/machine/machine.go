// Package machine is a small simulated PC: a port I/O bus with a dual 8259A
// PIC, an 8042/PS/2 keyboard, an 8254 PIT, a 16550 COM1 and a single CPU.
// It implements hal.PortIO and hal.CPU so the nucleus can run unmodified on
// a host.
package machine

import (
	"io"
	"log"
	"sync"
	"time"

	"example.com/vesper-nucleus/nucleus/hal"
)

// Config selects the simulated hardware.
type Config struct {
	// Console receives everything written to COM1.
	Console io.Writer
	// RunTimer starts the PIT goroutine on Start. Tests leave it off and
	// call PIT.Tick directly.
	RunTimer bool
	// KeyboardByteTime paces the PS/2 link (see PS2ByteTime); Start clocks
	// the keyboard from a goroutine. Zero hands each byte over as soon as
	// the previous one is read, which lets a burst outrun the guest.
	KeyboardByteTime time.Duration
	Logger           *log.Logger
	Debug            bool
}

// Machine wires the devices together.
type Machine struct {
	Bus      *IOBus
	PIC      *DualPIC
	Keyboard *KeyboardDevice
	PIT      *PITDevice
	Serial   *SerialPortDevice
	CPU      *CPU

	cfg       Config
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New builds a machine and registers every device on the bus.
func New(cfg Config) *Machine {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	bus := NewIOBus(cfg.Logger, cfg.Debug)
	pic := NewDualPIC()
	kbd := NewKeyboardDevice(pic)
	if cfg.KeyboardByteTime > 0 {
		kbd = NewPacedKeyboardDevice(pic, cfg.KeyboardByteTime)
	}
	m := &Machine{
		Bus:      bus,
		PIC:      pic,
		Keyboard: kbd,
		PIT:      NewPITDevice(pic),
		Serial:   NewSerialPortDevice(hal.COM1_PORT_BASE, cfg.Console, pic),
		CPU:      NewCPU(pic, cfg.Logger, cfg.Debug),
		cfg:      cfg,
		stop:     make(chan struct{}),
	}

	bus.RegisterDevice(hal.PIC_PRIMARY_CMD_PORT, hal.PIC_PRIMARY_DATA_PORT, pic)
	bus.RegisterDevice(hal.PIC_SECONDARY_CMD_PORT, hal.PIC_SECONDARY_DATA_PORT, pic)
	bus.RegisterDevice(hal.PIT_PORT_COUNTER0, hal.PIT_PORT_COMMAND, m.PIT)
	bus.RegisterDevice(hal.KEYBOARD_PORT_DATA, hal.KEYBOARD_PORT_DATA, m.Keyboard)
	bus.RegisterDevice(hal.KEYBOARD_PORT_STATUS, hal.KEYBOARD_PORT_STATUS, m.Keyboard)
	bus.RegisterDevice(hal.COM1_PORT_BASE, hal.COM1_PORT_END, m.Serial)
	bus.RegisterDevice(hal.POST_PORT, hal.POST_PORT, sinkDevice{})

	if cfg.Debug {
		cfg.Logger.Println("Machine: devices registered")
	}
	return m
}

// Start launches the background device goroutines.
func (m *Machine) Start() {
	m.startOnce.Do(func() {
		if m.cfg.RunTimer {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.PIT.run(m.stop)
			}()
		}
		if m.Keyboard.Paced() {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.Keyboard.run(m.stop)
			}()
		}
	})
}

// Stop halts the devices and the CPU. The goroutine running kernel code
// exits at its next hlt.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.CPU.Stop()
		m.wg.Wait()
		if m.cfg.Debug {
			m.cfg.Logger.Println("Machine: stopped")
		}
	})
}

// Done is closed once the CPU has halted permanently.
func (m *Machine) Done() <-chan struct{} {
	return m.CPU.Done()
}

// Inb and Outb make the machine a hal.PortIO.
func (m *Machine) Inb(port uint16) byte {
	return m.Bus.Inb(port)
}

func (m *Machine) Outb(port uint16, val byte) {
	m.Bus.Outb(port, val)
}

var (
	_ hal.PortIO = (*Machine)(nil)
	_ hal.PortIO = (*IOBus)(nil)
	_ hal.CPU    = (*CPU)(nil)
)
