package machine

import (
	"fmt"
	"log"
	"sync"
)

// I/O directions as seen by a device.
const (
	IODirectionIn  uint8 = 0 // Read from device
	IODirectionOut uint8 = 1 // Write to device
)

// PioDevice is a device reachable through the port I/O space.
// For IODirectionIn the device fills data; for IODirectionOut it consumes it.
type PioDevice interface {
	HandleIO(port uint16, direction uint8, data []byte) error
}

// InterruptRaiser is how devices signal an IRQ line to the PIC.
type InterruptRaiser interface {
	RaiseIRQ(irqLine uint8)
}

// IOBus routes port I/O to registered devices. It implements hal.PortIO.
type IOBus struct {
	mu     sync.RWMutex
	ports  map[uint16]PioDevice
	logger *log.Logger
	debug  bool
}

// NewIOBus creates an empty bus.
func NewIOBus(logger *log.Logger, debug bool) *IOBus {
	return &IOBus{
		ports:  make(map[uint16]PioDevice),
		logger: logger,
		debug:  debug,
	}
}

// RegisterDevice maps the inclusive port range [startPort, endPort] to device.
func (bus *IOBus) RegisterDevice(startPort, endPort uint16, device PioDevice) {
	if device == nil {
		bus.logger.Printf("IOBus: Warning: nil device for ports 0x%x-0x%x", startPort, endPort)
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for port := startPort; port <= endPort; port++ {
		if existing, ok := bus.ports[port]; ok {
			bus.logger.Printf("IOBus: Warning: port 0x%x already registered to %T, replacing with %T", port, existing, device)
		}
		bus.ports[port] = device
		if port == 0xFFFF {
			break
		}
	}
}

// HandleIO routes a single byte-wide access.
func (bus *IOBus) HandleIO(port uint16, direction uint8, data []byte) error {
	bus.mu.RLock()
	device, ok := bus.ports[port]
	bus.mu.RUnlock()
	if !ok {
		return fmt.Errorf("IOBus: unhandled I/O to port 0x%x", port)
	}
	return device.HandleIO(port, direction, data)
}

// Inb reads a byte. Unclaimed ports float high.
func (bus *IOBus) Inb(port uint16) byte {
	data := []byte{0xFF}
	if err := bus.HandleIO(port, IODirectionIn, data); err != nil {
		if bus.debug {
			bus.logger.Printf("IOBus: IN 0x%x: %v", port, err)
		}
		return 0xFF
	}
	return data[0]
}

// Outb writes a byte. Writes to unclaimed ports are dropped.
func (bus *IOBus) Outb(port uint16, val byte) {
	if err := bus.HandleIO(port, IODirectionOut, []byte{val}); err != nil && bus.debug {
		bus.logger.Printf("IOBus: OUT 0x%x <- 0x%02x: %v", port, val, err)
	}
}

// sinkDevice swallows writes and reads as zero. It backs the POST delay port.
type sinkDevice struct{}

func (sinkDevice) HandleIO(port uint16, direction uint8, data []byte) error {
	if direction == IODirectionIn {
		data[0] = 0
	}
	return nil
}
