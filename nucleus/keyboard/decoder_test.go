package keyboard_test

import (
	"testing"

	"example.com/vesper-nucleus/nucleus/keyboard"
)

// feedAll runs bytes through d and collects the keys produced.
func feedAll(d *keyboard.Decoder, bytes ...byte) []keyboard.DecodedKey {
	var keys []keyboard.DecodedKey
	for _, b := range bytes {
		if k, ok := d.Feed(b); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func expectKeys(t *testing.T, got []keyboard.DecodedKey, want ...keyboard.DecodedKey) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got keys %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestFeedLetters(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	got := feedAll(d, 0x23, 0xA3, 0x17, 0x97) // h, i
	expectKeys(t, got, keyboard.Unicode('h'), keyboard.Unicode('i'))
}

func TestReleaseEmitsNothing(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	if k, ok := d.Feed(0x9E); ok {
		t.Fatalf("release produced %v", k)
	}
}

func TestShiftAndCapsLock(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  []keyboard.DecodedKey
	}{
		{"left shift", []byte{0x2A, 0x1E, 0x9E, 0xAA, 0x1E}, []keyboard.DecodedKey{keyboard.Unicode('A'), keyboard.Unicode('a')}},
		{"right shift", []byte{0x36, 0x02, 0xB6, 0x02}, []keyboard.DecodedKey{keyboard.Unicode('!'), keyboard.Unicode('1')}},
		{"caps lock", []byte{0x3A, 0xBA, 0x1E, 0x02}, []keyboard.DecodedKey{keyboard.Unicode('A'), keyboard.Unicode('1')}},
		{"caps lock and shift", []byte{0x3A, 0xBA, 0x2A, 0x1E, 0x0C}, []keyboard.DecodedKey{keyboard.Unicode('a'), keyboard.Unicode('_')}},
		{"caps lock toggled off", []byte{0x3A, 0xBA, 0x3A, 0xBA, 0x1E}, []keyboard.DecodedKey{keyboard.Unicode('a')}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := keyboard.NewDecoder(keyboard.ControlIgnore)
			expectKeys(t, feedAll(d, tt.bytes...), tt.want...)
		})
	}
}

func TestControlHandling(t *testing.T) {
	seq := []byte{0x1D, 0x2E, 0xAE, 0x9D} // ctrl+c

	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	expectKeys(t, feedAll(d, seq...), keyboard.Unicode('c'))

	d = keyboard.NewDecoder(keyboard.ControlMapLetters)
	expectKeys(t, feedAll(d, seq...), keyboard.Unicode(0x03))

	// Right ctrl is extended.
	d = keyboard.NewDecoder(keyboard.ControlMapLetters)
	expectKeys(t, feedAll(d, 0xE0, 0x1D, 0x1E), keyboard.Unicode(0x01))
	if !d.Modifiers().RCtrl {
		t.Fatalf("right ctrl not tracked")
	}
}

func TestExtendedKeys(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	got := feedAll(d,
		0xE0, 0x48, 0xE0, 0xC8, // up
		0xE0, 0x4B, // left
		0xE0, 0x53, // delete
		0xE0, 0x35, // numpad /
		0xE0, 0x1C, // numpad enter
	)
	expectKeys(t, got,
		keyboard.RawKey(keyboard.ArrowUp),
		keyboard.RawKey(keyboard.ArrowLeft),
		keyboard.Unicode(0x7F),
		keyboard.Unicode('/'),
		keyboard.Unicode('\n'),
	)
}

func TestNumLock(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	expectKeys(t, feedAll(d, 0x48, 0x53), keyboard.Unicode('8'), keyboard.Unicode('.'))

	feedAll(d, 0x45, 0xC5)
	if d.Modifiers().NumLock {
		t.Fatalf("num lock still on")
	}
	expectKeys(t, feedAll(d, 0x48, 0x4F), keyboard.RawKey(keyboard.ArrowUp), keyboard.RawKey(keyboard.End))
}

func TestPauseSequenceIsAbsorbed(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	got := feedAll(d, 0xE1, 0x1D, 0x45, 0xE1, 0x9D, 0xC5, 0x1E)
	expectKeys(t, got, keyboard.RawKey(keyboard.PauseBreak), keyboard.Unicode('a'))
}

func TestUnknownBytesResynchronise(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	got := feedAll(d,
		0x00,       // keyboard error code
		0x55,       // unassigned
		0xE0, 0x2A, // fake shift
		0xE0, 0x1E, // no extended meaning
		0xE1, 0x30, // broken pause sequence: 0x30 is taken as a key
		0x1F,
	)
	expectKeys(t, got, keyboard.Unicode('b'), keyboard.Unicode('s'))
	if d.Modifiers().IsShifted() {
		t.Fatalf("fake shift changed modifier state")
	}
}

func TestRepeatedExtendedPrefix(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	expectKeys(t, feedAll(d, 0xE0, 0xE0, 0x50), keyboard.RawKey(keyboard.ArrowDown))
}

func TestAddByteAndProcessEvent(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	if _, ok := d.AddByte(0xE0); ok {
		t.Fatalf("prefix completed an event")
	}
	ev, ok := d.AddByte(0xB8)
	if !ok || ev != (keyboard.KeyEvent{Code: keyboard.RAltGr, State: keyboard.Up}) {
		t.Fatalf("AddByte = %+v,%v", ev, ok)
	}

	if _, ok := d.ProcessEvent(keyboard.KeyEvent{Code: keyboard.LShift, State: keyboard.Down}); ok {
		t.Fatalf("modifier press produced a key")
	}
	k, ok := d.ProcessEvent(keyboard.KeyEvent{Code: keyboard.Key9, State: keyboard.Down})
	if !ok || k != keyboard.Unicode('(') {
		t.Fatalf("ProcessEvent = %v,%v, want '('", k, ok)
	}
	k, ok = d.ProcessEvent(keyboard.KeyEvent{Code: keyboard.F5, State: keyboard.Down})
	if !ok || k != keyboard.RawKey(keyboard.F5) {
		t.Fatalf("ProcessEvent = %v,%v, want F5", k, ok)
	}
}

func TestReset(t *testing.T) {
	d := keyboard.NewDecoder(keyboard.ControlIgnore)
	feedAll(d, 0x2A, 0x3A, 0xE0)
	d.Reset()
	if m := d.Modifiers(); m.IsShifted() || m.CapsLock || !m.NumLock {
		t.Fatalf("modifiers after Reset = %+v", m)
	}
	expectKeys(t, feedAll(d, 0x1C), keyboard.Unicode('\n'))
}

func TestKeyCodeString(t *testing.T) {
	if keyboard.ArrowUp.String() != "ArrowUp" {
		t.Errorf("ArrowUp.String() = %q", keyboard.ArrowUp.String())
	}
	if got := keyboard.KeyCode(250).String(); got != "KeyCode(250)" {
		t.Errorf("KeyCode(250).String() = %q", got)
	}
	if got := keyboard.Unicode('x').String(); got != "'x'" {
		t.Errorf("Unicode('x').String() = %q", got)
	}
}
