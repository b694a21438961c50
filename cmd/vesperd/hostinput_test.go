package main

import (
	"bytes"
	"testing"

	"example.com/vesper-nucleus/nucleus/hal"
	"example.com/vesper-nucleus/nucleus/machine"
)

type nullIRQ struct{}

func (nullIRQ) RaiseIRQ(uint8) {}

// drain reads every queued scancode through the data port.
func drain(t *testing.T, kbd *machine.KeyboardDevice) []byte {
	t.Helper()
	var out []byte
	for kbd.Pending() > 0 {
		b := []byte{0}
		if err := kbd.HandleIO(hal.KEYBOARD_PORT_DATA, machine.IODirectionIn, b); err != nil {
			t.Fatalf("HandleIO: %v", err)
		}
		out = append(out, b[0])
	}
	return out
}

func TestTypeHostBytes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		unknown int
	}{
		{"letter", "a", []byte{0x1E, 0x9E}, 0},
		{"cursor up", "\x1b[A", []byte{0xE0, 0x48, 0xE0, 0xC8}, 0},
		{"cursor left", "\x1b[D", []byte{0xE0, 0x4B, 0xE0, 0xCB}, 0},
		{"lone escape", "\x1b", []byte{0x01, 0x81}, 0},
		{"escape then letter", "\x1ba", []byte{0x01, 0x81, 0x1E, 0x9E}, 0},
		{"unknown csi", "\x1b[Z", []byte{0x01, 0x81, 0x1A, 0x9A, 0x2A, 0x2C, 0xAC, 0xAA}, 0},
		{"ctrl-c", "\x03", []byte{0x1D, 0x2E, 0xAE, 0x9D}, 0},
		{"utf-8", "\xc3\xa9", nil, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kbd := machine.NewKeyboardDevice(nullIRQ{})
			if n := typeHostBytes(kbd, []byte(tc.in)); n != tc.unknown {
				t.Fatalf("typeHostBytes(%q) unknown = %d, want %d", tc.in, n, tc.unknown)
			}
			if got := drain(t, kbd); !bytes.Equal(got, tc.want) {
				t.Fatalf("typeHostBytes(%q) scancodes = % x, want % x", tc.in, got, tc.want)
			}
		})
	}
}
