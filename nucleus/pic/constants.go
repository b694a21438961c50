package pic

// ICW1 (Initialization Command Word 1) bits
const (
	ICW1_IC4  byte = 0x01 // ICW4 will be sent
	ICW1_SNGL byte = 0x02 // Single PIC (clear for cascade mode)
	ICW1_ADI  byte = 0x04 // Call address interval 4 (ignored on x86)
	ICW1_LTIM byte = 0x08 // Level triggered mode (clear for edge)
	ICW1_INIT byte = 0x10 // Initialization bit, must be set for ICW1
)

// ICW4 (Initialization Command Word 4) bits
const (
	ICW4_8086 byte = 0x01 // 8086/8088 mode
	ICW4_AEOI byte = 0x02 // Auto EOI
	ICW4_MS   byte = 0x04 // Buffered mode master/slave select
	ICW4_BUF  byte = 0x08 // Buffered mode
	ICW4_SFNM byte = 0x10 // Special fully nested mode
)

// OCW2 (Operational Command Word 2) bits
const (
	OCW2_LEVEL_MASK byte = 0x07 // IR level for specific EOI
	OCW2_EOI        byte = 0x20 // End of interrupt
	OCW2_SL         byte = 0x40 // Specific level
	OCW2_R          byte = 0x80 // Rotate
)

// OCW3 (Operational Command Word 3) bits
const (
	OCW3_RIS  byte = 0x01 // Read ISR (IRR when clear), with RR set
	OCW3_RR   byte = 0x02 // Read register command
	OCW3_POLL byte = 0x04 // Poll command
	OCW3_ID   byte = 0x08 // Marks the word as OCW3
	OCW3_SMM  byte = 0x20 // Set special mask mode
	OCW3_ESMM byte = 0x40 // Enable special mask mode
)

// Cascade wiring for ICW3.
const (
	ICW3_PRIMARY_HAS_SECONDARY_ON_IRQ2 byte = 1 << 2 // Bit mask of the primary line wired to the secondary
	ICW3_SECONDARY_CASCADE_ID          byte = 2      // Cascade identity of the secondary
)

// LinesPerChip is the number of IRQ lines on a single 8259A.
const LinesPerChip = 8
