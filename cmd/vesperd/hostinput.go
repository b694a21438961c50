package main

import "example.com/vesper-nucleus/nucleus/machine"

// Extended set 1 make codes for the cursor keys.
var arrowKeys = map[byte]byte{
	'A': 0x48, // up
	'B': 0x50, // down
	'C': 0x4D, // right
	'D': 0x4B, // left
	'H': 0x47, // home
	'F': 0x4F, // end
}

const escapeMake byte = 0x01

// typeHostBytes replays terminal input on the simulated keyboard. ANSI
// cursor sequences become extended keys; a lone ESC is the Escape key.
// It returns the number of bytes that had no key.
func typeHostBytes(kbd *machine.KeyboardDevice, buf []byte) int {
	unknown := 0
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b == 0x1B && i+2 < len(buf) && buf[i+1] == '[' {
			if code, ok := arrowKeys[buf[i+2]]; ok {
				kbd.Press(0xE0, code, 0xE0, code|0x80)
				i += 2
				continue
			}
		}
		if b == 0x1B {
			kbd.Press(escapeMake, escapeMake|0x80)
			continue
		}
		if !kbd.TypeRune(rune(b)) {
			unknown++
		}
	}
	return unknown
}
