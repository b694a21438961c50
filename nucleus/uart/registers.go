package uart

// Register offsets from the port base.
const (
	RHR_THR_DLL uint16 = 0 // Receiver holding (R), transmitter holding (W), divisor latch low (DLAB=1)
	IER_DLH     uint16 = 1 // Interrupt enable, divisor latch high (DLAB=1)
	IIR_FCR     uint16 = 2 // Interrupt identification (R), FIFO control (W)
	LCR         uint16 = 3 // Line control
	MCR         uint16 = 4 // Modem control
	LSR         uint16 = 5 // Line status
	MSR         uint16 = 6 // Modem status
	SCR         uint16 = 7 // Scratch
)

// Line Control Register (LCR) bits
const (
	LCR_WORD_8 byte = 0x03 // 8 data bits
	LCR_DLAB   byte = 0x80 // Divisor latch access
)

// Line Status Register (LSR) bits
const (
	LSR_DR   byte = 0x01 // Data ready
	LSR_OE   byte = 0x02 // Overrun error
	LSR_THRE byte = 0x20 // Transmitter holding register empty
	LSR_TEMT byte = 0x40 // Transmitter empty
)

// FIFO Control Register (FCR) bits
const (
	FCR_ENABLE   byte = 0x01
	FCR_CLEAR_RX byte = 0x02
	FCR_CLEAR_TX byte = 0x04
	FCR_TRIG_14  byte = 0xC0
)

// Modem Control Register (MCR) bits
const (
	MCR_DTR  byte = 0x01
	MCR_RTS  byte = 0x02
	MCR_OUT2 byte = 0x08 // Gates the UART interrupt onto the bus
)

// Interrupt Identification Register (IIR) bits
const (
	IIR_NO_INT_PENDING byte = 0x01
	IIR_FIFO_ENABLED   byte = 0xC0
)

// ClockHz is the UART input clock divided by 16: divisor = ClockHz / baud.
const ClockHz = 115200
