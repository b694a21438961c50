package keyboard

// Scancode set 1 framing bytes.
const (
	EXTENDED_PREFIX byte = 0xE0 // Next byte is an extended key
	PAUSE_PREFIX    byte = 0xE1 // Two more bytes follow (Pause/Break)
	RELEASE_BIT     byte = 0x80 // Set on break codes
)

// Single-byte make codes, indexed by scancode.
var set1Keys = [0x80]KeyCode{
	0x01: Escape,
	0x02: Key1, 0x03: Key2, 0x04: Key3, 0x05: Key4, 0x06: Key5,
	0x07: Key6, 0x08: Key7, 0x09: Key8, 0x0A: Key9, 0x0B: Key0,
	0x0C: Minus, 0x0D: Equals, 0x0E: Backspace, 0x0F: Tab,
	0x10: Q, 0x11: W, 0x12: E, 0x13: R, 0x14: T,
	0x15: Y, 0x16: U, 0x17: I, 0x18: O, 0x19: P,
	0x1A: BracketLeft, 0x1B: BracketRight, 0x1C: Return, 0x1D: LControl,
	0x1E: A, 0x1F: S, 0x20: D, 0x21: F, 0x22: G,
	0x23: H, 0x24: J, 0x25: K, 0x26: L,
	0x27: Semicolon, 0x28: Quote, 0x29: Backtick, 0x2A: LShift, 0x2B: Backslash,
	0x2C: Z, 0x2D: X, 0x2E: C, 0x2F: V, 0x30: B, 0x31: N, 0x32: M,
	0x33: Comma, 0x34: Period, 0x35: Slash, 0x36: RShift,
	0x37: NumpadMultiply, 0x38: LAlt, 0x39: Spacebar, 0x3A: CapsLock,
	0x3B: F1, 0x3C: F2, 0x3D: F3, 0x3E: F4, 0x3F: F5,
	0x40: F6, 0x41: F7, 0x42: F8, 0x43: F9, 0x44: F10,
	0x45: NumpadLock, 0x46: ScrollLock,
	0x47: Numpad7, 0x48: Numpad8, 0x49: Numpad9, 0x4A: NumpadSubtract,
	0x4B: Numpad4, 0x4C: Numpad5, 0x4D: Numpad6, 0x4E: NumpadAdd,
	0x4F: Numpad1, 0x50: Numpad2, 0x51: Numpad3,
	0x52: Numpad0, 0x53: NumpadPeriod,
	0x57: F11, 0x58: F12,
}

// Make codes following EXTENDED_PREFIX. The fake shifts some keyboards wrap
// around PrintScreen and the navigation block (0x2A, 0x36) are absent, so
// they are absorbed.
var set1ExtendedKeys = [0x80]KeyCode{
	0x1C: NumpadEnter, 0x1D: RControl,
	0x20: Mute, 0x2E: VolumeDown, 0x30: VolumeUp,
	0x35: NumpadDivide, 0x37: PrintScreen, 0x38: RAltGr,
	0x47: Home, 0x48: ArrowUp, 0x49: PageUp,
	0x4B: ArrowLeft, 0x4D: ArrowRight,
	0x4F: End, 0x50: ArrowDown, 0x51: PageDown,
	0x52: Insert, 0x53: Delete,
	0x5B: LWin, 0x5C: RWin, 0x5D: Apps,
}

type set1State uint8

const (
	set1Start set1State = iota
	set1Extended
	set1Pause1 // Saw E1, expecting 1D or 9D
	set1Pause2 // Expecting 45 or C5
)

// set1 assembles set 1 bytes into key events.
type set1 struct {
	state set1State
}

func (s *set1) reset() {
	s.state = set1Start
}

// add consumes one byte. Unknown codes and broken sequences produce nothing
// and leave the machine ready for the next key.
func (s *set1) add(b byte) (KeyEvent, bool) {
	switch s.state {
	case set1Extended:
		s.state = set1Start
		if b == EXTENDED_PREFIX || b == PAUSE_PREFIX {
			return s.add(b)
		}
		return lookup(&set1ExtendedKeys, b)
	case set1Pause1:
		if b&^RELEASE_BIT != 0x1D {
			s.state = set1Start
			return s.add(b)
		}
		s.state = set1Pause2
		return KeyEvent{}, false
	case set1Pause2:
		s.state = set1Start
		if b&^RELEASE_BIT != 0x45 {
			return s.add(b)
		}
		return KeyEvent{Code: PauseBreak, State: stateOf(b)}, true
	}

	switch b {
	case EXTENDED_PREFIX:
		s.state = set1Extended
		return KeyEvent{}, false
	case PAUSE_PREFIX:
		s.state = set1Pause1
		return KeyEvent{}, false
	}
	return lookup(&set1Keys, b)
}

func lookup(table *[0x80]KeyCode, b byte) (KeyEvent, bool) {
	code := table[b&^RELEASE_BIT]
	if code == Unknown {
		return KeyEvent{}, false
	}
	return KeyEvent{Code: code, State: stateOf(b)}, true
}

func stateOf(b byte) KeyState {
	if b&RELEASE_BIT != 0 {
		return Up
	}
	return Down
}
