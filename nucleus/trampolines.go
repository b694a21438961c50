package nucleus

import "example.com/vesper-nucleus/nucleus/hal"

// Interrupt context. These run with interrupts disabled, touch only the
// queue and the tick counter, and acknowledge before returning. Decoding
// happens later in PollKey.

func (k *Kernel) timerInterrupt() {
	k.ticks++
	k.chain.NotifyHandled(k.timerVector)
}

func (k *Kernel) keyboardInterrupt() {
	b := k.io.Inb(hal.KEYBOARD_PORT_DATA)
	k.queue.Push(b)
	k.chain.NotifyHandled(k.keyboardVector)
}

// PIT mode/command for channel 0: lobyte/hibyte access, rate generator.
const pitChannel0RateGenerator byte = 0x34

func programTimer(io hal.PortIO, hz int) {
	div := uint16(hal.PIT_BASE_HZ / hz)
	io.Outb(hal.PIT_PORT_COMMAND, pitChannel0RateGenerator)
	io.Outb(hal.PIT_PORT_COUNTER0, byte(div))
	io.Outb(hal.PIT_PORT_COUNTER0, byte(div>>8))
}
