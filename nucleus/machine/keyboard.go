package machine

import (
	"fmt"
	"sync"
	"time"

	"example.com/vesper-nucleus/nucleus/hal"
)

// PS2ByteTime is roughly how long a PS/2 link takes to clock one byte
// (11 bits at 10-16.7 kHz).
const PS2ByteTime = time.Millisecond

// KeyboardDevice is a PS/2 keyboard behind an 8042 controller. Host input is
// queued as scancode set 1 bytes and handed to the guest one at a time: each
// byte loaded into the output buffer raises IRQ1.
//
// An unpaced device loads the next byte as soon as the data port is read.
// A paced device loads at most one byte per byteTime from its run goroutine,
// so the guest sees keys at the rate real hardware delivers them.
type KeyboardDevice struct {
	lock     sync.Mutex
	irq      InterruptRaiser
	byteTime time.Duration
	pending  []byte
	data     byte
	full     bool // Output buffer full
}

// NewKeyboardDevice creates an unpaced keyboard that signals irq on every
// byte.
func NewKeyboardDevice(irq InterruptRaiser) *KeyboardDevice {
	return &KeyboardDevice{irq: irq}
}

// NewPacedKeyboardDevice creates a keyboard that clocks one byte per
// byteTime once its machine is started.
func NewPacedKeyboardDevice(irq InterruptRaiser, byteTime time.Duration) *KeyboardDevice {
	return &KeyboardDevice{irq: irq, byteTime: byteTime}
}

// Paced reports whether bytes are clocked by run.
func (k *KeyboardDevice) Paced() bool {
	return k.byteTime > 0
}

// Press queues raw scancode bytes as if the hardware produced them.
func (k *KeyboardDevice) Press(scancodes ...byte) {
	k.lock.Lock()
	k.pending = append(k.pending, scancodes...)
	raise := !k.Paced() && k.loadLocked()
	k.lock.Unlock()
	if raise {
		k.irq.RaiseIRQ(hal.KEYBOARD_IRQ)
	}
}

// TypeRune queues the make and break codes for r. It reports false when r
// has no key on the US layout.
func (k *KeyboardDevice) TypeRune(r rune) bool {
	codes, ok := scancodesForRune(r)
	if !ok {
		return false
	}
	k.Press(codes...)
	return true
}

// Pending is the number of bytes not yet read by the guest, including the
// one in the output buffer.
func (k *KeyboardDevice) Pending() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	n := len(k.pending)
	if k.full {
		n++
	}
	return n
}

// loadLocked moves the next queued byte into the empty output buffer and
// reports whether an interrupt should be raised for it.
func (k *KeyboardDevice) loadLocked() bool {
	if k.full || len(k.pending) == 0 {
		return false
	}
	k.data = k.pending[0]
	k.pending = k.pending[1:]
	k.full = true
	return true
}

// HandleIO processes accesses to the data and status ports.
func (k *KeyboardDevice) HandleIO(port uint16, direction uint8, data []byte) error {
	k.lock.Lock()

	if direction == IODirectionOut {
		k.lock.Unlock()
		// Controller and device commands (LEDs, typematic rate) are accepted
		// and ignored.
		return nil
	}

	raise := false
	switch port {
	case hal.KEYBOARD_PORT_STATUS:
		data[0] = 0
		if k.full {
			data[0] |= hal.KEYBOARD_STATUS_OBF
		}
	case hal.KEYBOARD_PORT_DATA:
		data[0] = k.data
		k.full = false
		raise = !k.Paced() && k.loadLocked()
	default:
		k.lock.Unlock()
		return fmt.Errorf("KeyboardDevice: unhandled IN from port 0x%x", port)
	}
	k.lock.Unlock()

	if raise {
		k.irq.RaiseIRQ(hal.KEYBOARD_IRQ)
	}
	return nil
}

// run clocks queued bytes into the output buffer, one per byteTime, until
// stop is closed. A byte waits while the guest has not read the previous
// one.
func (k *KeyboardDevice) run(stop <-chan struct{}) {
	ticker := time.NewTicker(k.byteTime)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			k.lock.Lock()
			raise := k.loadLocked()
			k.lock.Unlock()
			if raise {
				k.irq.RaiseIRQ(hal.KEYBOARD_IRQ)
			}
		}
	}
}
