package nucleus_test

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"example.com/vesper-nucleus/nucleus"
	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/idt"
	"example.com/vesper-nucleus/nucleus/keyboard"
	"example.com/vesper-nucleus/nucleus/pic"
)

// MockCPU implements hal.CPU. Interrupts are raised by calling Fire.
type MockCPU struct {
	Events  *[]string
	entries map[uint64]hal.Trampoline
	table   []byte
	ifFlag  bool
	Halted  bool
}

func NewMockCPU(events *[]string) *MockCPU {
	return &MockCPU{Events: events, entries: make(map[uint64]hal.Trampoline)}
}

func (c *MockCPU) record(e string) { *c.Events = append(*c.Events, e) }

func (c *MockCPU) Link(t hal.Trampoline) uint64 {
	addr := uint64(0x1000 + 0x10*len(c.entries))
	c.entries[addr] = t
	c.record("link")
	return addr
}

func (c *MockCPU) LoadIDT(table []byte) {
	c.table = table
	c.record("lidt")
}

func (c *MockCPU) EnableInterrupts()       { c.ifFlag = true; c.record("sti") }
func (c *MockCPU) DisableInterrupts()      { c.ifFlag = false; c.record("cli") }
func (c *MockCPU) InterruptsEnabled() bool { return c.ifFlag }
func (c *MockCPU) Halt()                   { c.record("hlt") }

func (c *MockCPU) HaltForever() {
	c.Halted = true
	c.record("halt")
	runtime.Goexit()
}

// Fire dispatches vector through the loaded table.
func (c *MockCPU) Fire(t *testing.T, vector uint8) {
	t.Helper()
	off := int(vector) * idt.GateSize
	if off+idt.GateSize > len(c.table) {
		t.Fatalf("vector %d: no table loaded", vector)
	}
	g, err := idt.DecodeGate(c.table[off:])
	if err != nil || !g.Present() {
		t.Fatalf("vector %d: gate %+v not present (%v)", vector, g, err)
	}
	was := c.ifFlag
	c.ifFlag = false
	c.entries[g.Offset()]()
	c.ifFlag = was
}

// MockPortIO records writes and serves scancodes on the keyboard data port.
type MockPortIO struct {
	Events    *[]string
	Writes    map[uint16][]byte
	Scancodes []byte
}

func NewMockPortIO(events *[]string) *MockPortIO {
	return &MockPortIO{Events: events, Writes: make(map[uint16][]byte)}
}

func (p *MockPortIO) Inb(port uint16) byte {
	if port != hal.KEYBOARD_PORT_DATA || len(p.Scancodes) == 0 {
		return 0
	}
	b := p.Scancodes[0]
	p.Scancodes = p.Scancodes[1:]
	return b
}

func (p *MockPortIO) Outb(port uint16, val byte) {
	if port == hal.POST_PORT {
		return
	}
	p.Writes[port] = append(p.Writes[port], val)
	*p.Events = append(*p.Events, fmt.Sprintf("out 0x%x", port))
}

func newMockKernel(t *testing.T, cfg nucleus.Config) (*nucleus.Kernel, *MockCPU, *MockPortIO, *[]string) {
	t.Helper()
	events := &[]string{}
	cpu := NewMockCPU(events)
	ports := NewMockPortIO(events)
	k, err := nucleus.New(cfg, cpu, ports)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k, cpu, ports, events
}

// press delivers each byte as its own keyboard interrupt.
func press(t *testing.T, cpu *MockCPU, ports *MockPortIO, bytes ...byte) {
	t.Helper()
	for _, b := range bytes {
		ports.Scancodes = append(ports.Scancodes, b)
		cpu.Fire(t, 33)
	}
}

// untilHalt runs fn on its own goroutine, which HaltForever ends.
func untilHalt(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	<-done
}

func TestNewRejectsBadConfig(t *testing.T) {
	cpu := NewMockCPU(&[]string{})
	ports := NewMockPortIO(&[]string{})

	tests := []struct {
		name   string
		mutate func(*nucleus.Config)
	}{
		{"offsets below 32", func(c *nucleus.Config) { c.Offsets = pic.Offsets{Primary: 8, Secondary: 16} }},
		{"secondary not adjacent", func(c *nucleus.Config) { c.Offsets.Secondary = 100 }},
		{"zero queue", func(c *nucleus.Config) { c.QueueCapacity = 0 }},
		{"negative timer", func(c *nucleus.Config) { c.TimerHz = -1 }},
		{"timer too slow", func(c *nucleus.Config) { c.TimerHz = 10 }},
		{"timer too fast", func(c *nucleus.Config) { c.TimerHz = 2000000 }},
	}
	for _, tt := range tests {
		cfg := nucleus.DefaultConfig()
		tt.mutate(&cfg)
		if _, err := nucleus.New(cfg, cpu, ports); err == nil {
			t.Errorf("%s: New succeeded", tt.name)
		}
	}
	if _, err := nucleus.New(nucleus.DefaultConfig(), nil, ports); err == nil {
		t.Errorf("New accepted a nil CPU")
	}

	_, err := nucleus.New(nucleus.Config{Offsets: pic.Offsets{Primary: 0}, QueueCapacity: 8}, cpu, ports)
	if !errors.Is(err, pic.ErrOffsetsAliasExceptions) {
		t.Errorf("error = %v, want ErrOffsetsAliasExceptions", err)
	}
}

func TestInitOrdering(t *testing.T) {
	k, _, _, events := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()

	index := func(e string) int {
		for i, got := range *events {
			if got == e {
				return i
			}
		}
		t.Fatalf("event %q missing from %v", e, *events)
		return -1
	}
	lidt := index("lidt")
	picInit := index("out 0x20")
	sti := index("sti")
	if !(lidt < picInit && picInit < sti) {
		t.Fatalf("events out of order: %s", strings.Join(*events, ", "))
	}
	if sti != len(*events)-1 {
		t.Fatalf("sti is not the last step: %s", strings.Join(*events, ", "))
	}
}

func TestInitInstallsOnlyTimerAndKeyboard(t *testing.T) {
	k, _, _, _ := newMockKernel(t, nucleus.DefaultConfig())
	if k.Table() != nil {
		t.Fatalf("Table before Init is not nil")
	}
	k.Init()

	got := k.Table().PresentVectors()
	if len(got) != 2 || got[0] != 32 || got[1] != 33 {
		t.Fatalf("present vectors = %v, want [32 33]", got)
	}
	g := k.Table().Gate(33)
	if g.Selector != idt.KERNEL_CODE_SELECTOR || g.TypeAttr != idt.INTERRUPT_GATE_ATTR {
		t.Fatalf("keyboard gate = %+v", g)
	}
}

func TestInitTwicePanics(t *testing.T) {
	k, _, _, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, nucleus.ErrAlreadyInitialized) {
			t.Fatalf("recovered %v, want ErrAlreadyInitialized", r)
		}
	}()
	k.Init()
}

func TestCustomOffsets(t *testing.T) {
	cfg := nucleus.DefaultConfig()
	cfg.Offsets = pic.MustOffsets(0x60)
	k, cpu, ports, _ := newMockKernel(t, cfg)
	k.Init()
	ports.Scancodes = []byte{0x1E}
	cpu.Fire(t, 0x61)
	if key, ok := k.PollKey(); !ok || key != keyboard.Unicode('a') {
		t.Fatalf("PollKey = %v,%v", key, ok)
	}
}

func TestTimerInterrupt(t *testing.T) {
	k, cpu, ports, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	before := len(ports.Writes[hal.PIC_PRIMARY_CMD_PORT])

	for i := 0; i < 3; i++ {
		cpu.Fire(t, 32)
	}
	if k.Ticks() != 3 {
		t.Fatalf("Ticks = %d, want 3", k.Ticks())
	}
	eois := ports.Writes[hal.PIC_PRIMARY_CMD_PORT][before:]
	if len(eois) != 3 || eois[0] != pic.OCW2_EOI {
		t.Fatalf("EOIs = % x, want three 0x20", eois)
	}
	if len(ports.Writes[hal.PIC_SECONDARY_CMD_PORT]) != 1 {
		t.Fatalf("timer EOI reached the secondary controller")
	}
}

func TestTimerProgramming(t *testing.T) {
	cfg := nucleus.DefaultConfig()
	cfg.TimerHz = 100
	k, _, ports, _ := newMockKernel(t, cfg)
	k.Init()

	if got := ports.Writes[hal.PIT_PORT_COMMAND]; len(got) != 1 || got[0] != 0x34 {
		t.Fatalf("PIT command writes = % x", got)
	}
	if got := ports.Writes[hal.PIT_PORT_COUNTER0]; len(got) != 2 || got[0] != 0x9B || got[1] != 0x2E {
		t.Fatalf("PIT reload writes = % x, want 9b 2e", got)
	}
}

func TestKeyboardInterruptQueuesAndAcknowledges(t *testing.T) {
	k, cpu, ports, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	before := len(ports.Writes[hal.PIC_PRIMARY_CMD_PORT])

	press(t, cpu, ports, 0x2A, 0x23, 0xA3, 0xAA, 0x17, 0x97) // H, i

	if n := len(ports.Writes[hal.PIC_PRIMARY_CMD_PORT]) - before; n != 6 {
		t.Fatalf("%d EOIs for 6 interrupts", n)
	}
	var got []rune
	for key, ok := k.PollKey(); ok; key, ok = k.PollKey() {
		got = append(got, key.Rune)
	}
	if string(got) != "Hi" {
		t.Fatalf("keys = %q, want %q", string(got), "Hi")
	}
}

func TestScancodeOverflowIsCounted(t *testing.T) {
	k, cpu, ports, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()

	// Five taps of 'a' are ten bytes; the last tap does not fit.
	for i := 0; i < 5; i++ {
		press(t, cpu, ports, 0x1E, 0x9E)
	}
	if k.DroppedScancodes() != 2 {
		t.Fatalf("DroppedScancodes = %d, want 2", k.DroppedScancodes())
	}
	n := 0
	for _, ok := k.PollKey(); ok; _, ok = k.PollKey() {
		n++
	}
	if n != 4 {
		t.Fatalf("decoded %d keys, want 4", n)
	}
}

func TestPollKeyMasksInterrupts(t *testing.T) {
	k, cpu, ports, events := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	press(t, cpu, ports, 0x1E)

	*events = nil
	if _, ok := k.PollKey(); !ok {
		t.Fatalf("PollKey found nothing")
	}
	if len(*events) < 2 || (*events)[0] != "cli" || (*events)[1] != "sti" {
		t.Fatalf("PollKey events = %v, want cli, sti", *events)
	}
	if !cpu.InterruptsEnabled() {
		t.Fatalf("interrupts left disabled")
	}
}

func TestWithoutInterruptsRestoresFlag(t *testing.T) {
	k, cpu, _, _ := newMockKernel(t, nucleus.DefaultConfig())

	k.WithoutInterrupts(func() {
		if cpu.InterruptsEnabled() {
			t.Fatalf("interrupts enabled inside the critical section")
		}
	})
	if cpu.InterruptsEnabled() {
		t.Fatalf("WithoutInterrupts enabled interrupts that were off")
	}

	k.Init()
	k.WithoutInterrupts(func() {})
	if !cpu.InterruptsEnabled() {
		t.Fatalf("WithoutInterrupts left interrupts off")
	}
}

func TestWaitForInterruptHalts(t *testing.T) {
	k, _, _, events := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	k.WaitForInterrupt()
	if last := (*events)[len(*events)-1]; last != "hlt" {
		t.Fatalf("last event = %q, want hlt", last)
	}
}

func TestFatalHaltsWithInterruptsOff(t *testing.T) {
	k, cpu, _, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()

	returned := false
	untilHalt(func() {
		k.Fatal("no framebuffer")
		returned = true
	})
	if returned {
		t.Fatalf("Fatal returned")
	}
	if !cpu.Halted || cpu.InterruptsEnabled() {
		t.Fatalf("halted=%v IF=%v, want halted with IF clear", cpu.Halted, cpu.InterruptsEnabled())
	}
}

func TestRunStopsWhenHandlerDeclines(t *testing.T) {
	k, cpu, ports, _ := newMockKernel(t, nucleus.DefaultConfig())
	k.Init()
	press(t, cpu, ports, 0x10, 0x90, 0x11, 0x91) // q, w

	var seen []rune
	k.Run(func(key keyboard.DecodedKey) bool {
		seen = append(seen, key.Rune)
		return key.Rune != 'q'
	})
	if string(seen) != "q" {
		t.Fatalf("Run saw %q, want %q", string(seen), "q")
	}
	if key, ok := k.PollKey(); !ok || key != keyboard.Unicode('w') {
		t.Fatalf("next key = %v,%v, want 'w'", key, ok)
	}
}
