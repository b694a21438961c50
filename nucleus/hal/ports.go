package hal

// 8259A PIC I/O port addresses.
const (
	PIC_PRIMARY_CMD_PORT    uint16 = 0x20 // Primary PIC command port
	PIC_PRIMARY_DATA_PORT   uint16 = 0x21 // Primary PIC data (IMR) port
	PIC_SECONDARY_CMD_PORT  uint16 = 0xA0 // Secondary PIC command port
	PIC_SECONDARY_DATA_PORT uint16 = 0xA1 // Secondary PIC data (IMR) port
)

// Legacy IRQ lines.
const (
	PIT_IRQ      uint8 = 0 // Programmable Interval Timer
	KEYBOARD_IRQ uint8 = 1 // PS/2 keyboard
	CASCADE_IRQ  uint8 = 2 // Primary line the secondary PIC is wired to
	COM1_IRQ     uint8 = 4 // Serial port 1
)

// 8042 keyboard controller ports.
const (
	KEYBOARD_PORT_DATA   uint16 = 0x60 // Data register (scancodes)
	KEYBOARD_PORT_STATUS uint16 = 0x64 // Status register (read) / command register (write)

	KEYBOARD_STATUS_OBF byte = 0x01 // Output buffer full
)

// 8254 PIT ports.
const (
	PIT_PORT_COUNTER0 uint16 = 0x40
	PIT_PORT_COUNTER1 uint16 = 0x41
	PIT_PORT_COUNTER2 uint16 = 0x42
	PIT_PORT_COMMAND  uint16 = 0x43

	PIT_BASE_HZ = 1193182
)

// 16550 UART (COM1) ports.
const (
	COM1_PORT_BASE uint16 = 0x3F8
	COM1_PORT_END  uint16 = 0x3FF
)

// POST_PORT is the BIOS POST diagnostics port, used as a harmless I/O delay.
const POST_PORT uint16 = 0x80
