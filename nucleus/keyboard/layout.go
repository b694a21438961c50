package keyboard

// usKey is the pair of characters a key produces without and with shift.
type usKey struct {
	plain, shifted rune
}

// US 104-key layout for keys whose output depends only on shift.
var us104 = map[KeyCode]usKey{
	Backtick: {'`', '~'},
	Key1:     {'1', '!'},
	Key2:     {'2', '@'},
	Key3:     {'3', '#'},
	Key4:     {'4', '$'},
	Key5:     {'5', '%'},
	Key6:     {'6', '^'},
	Key7:     {'7', '&'},
	Key8:     {'8', '*'},
	Key9:     {'9', '('},
	Key0:     {'0', ')'},
	Minus:    {'-', '_'},
	Equals:   {'=', '+'},

	BracketLeft:  {'[', '{'},
	BracketRight: {']', '}'},
	Backslash:    {'\\', '|'},
	Semicolon:    {';', ':'},
	Quote:        {'\'', '"'},
	Comma:        {',', '<'},
	Period:       {'.', '>'},
	Slash:        {'/', '?'},
}

// Keys that always produce the same character.
var us104Fixed = map[KeyCode]rune{
	Escape:         0x1B,
	Backspace:      0x08,
	Tab:            '\t',
	Return:         '\n',
	Spacebar:       ' ',
	Delete:         0x7F,
	NumpadDivide:   '/',
	NumpadMultiply: '*',
	NumpadSubtract: '-',
	NumpadAdd:      '+',
	NumpadEnter:    '\n',
}

// Letter keys, lower case.
var us104Letters = map[KeyCode]rune{
	A: 'a', B: 'b', C: 'c', D: 'd', E: 'e', F: 'f', G: 'g', H: 'h', I: 'i',
	J: 'j', K: 'k', L: 'l', M: 'm', N: 'n', O: 'o', P: 'p', Q: 'q', R: 'r',
	S: 's', T: 't', U: 'u', V: 'v', W: 'w', X: 'x', Y: 'y', Z: 'z',
}

// Numpad keys with num lock on, and the navigation keys they stand in for
// with it off.
var us104Numpad = map[KeyCode]struct {
	digit rune
	nav   KeyCode
}{
	Numpad0: {'0', Insert},
	Numpad1: {'1', End},
	Numpad2: {'2', ArrowDown},
	Numpad3: {'3', PageDown},
	Numpad4: {'4', ArrowLeft},
	Numpad5: {'5', Numpad5},
	Numpad6: {'6', ArrowRight},
	Numpad7: {'7', Home},
	Numpad8: {'8', ArrowUp},
	Numpad9: {'9', PageUp},
}

// mapUS104 translates a pressed key under the given modifiers.
func mapUS104(code KeyCode, m Modifiers, ctrl ControlHandling) DecodedKey {
	if r, ok := us104Letters[code]; ok {
		if ctrl == ControlMapLetters && m.IsCtrl() {
			return Unicode(r - 'a' + 1)
		}
		if m.IsCaps() {
			r -= 'a' - 'A'
		}
		return Unicode(r)
	}
	if k, ok := us104[code]; ok {
		if m.IsShifted() {
			return Unicode(k.shifted)
		}
		return Unicode(k.plain)
	}
	if r, ok := us104Fixed[code]; ok {
		return Unicode(r)
	}
	if k, ok := us104Numpad[code]; ok {
		if m.NumLock {
			return Unicode(k.digit)
		}
		return RawKey(k.nav)
	}
	if code == NumpadPeriod {
		if m.NumLock {
			return Unicode('.')
		}
		return Unicode(0x7F)
	}
	return RawKey(code)
}
