package keyboard

import "fmt"

// KeyCode names a physical key, independent of layout and modifiers.
type KeyCode uint8

const (
	Unknown KeyCode = iota

	Escape
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	PrintScreen
	ScrollLock
	PauseBreak

	Backtick
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	Minus
	Equals
	Backspace

	Tab
	Q
	W
	E
	R
	T
	Y
	U
	I
	O
	P
	BracketLeft
	BracketRight
	Backslash

	CapsLock
	A
	S
	D
	F
	G
	H
	J
	K
	L
	Semicolon
	Quote
	Return

	LShift
	Z
	X
	C
	V
	B
	N
	M
	Comma
	Period
	Slash
	RShift

	LControl
	LWin
	LAlt
	Spacebar
	RAltGr
	RWin
	Apps
	RControl

	Insert
	Home
	PageUp
	Delete
	End
	PageDown
	ArrowUp
	ArrowLeft
	ArrowDown
	ArrowRight

	NumpadLock
	NumpadDivide
	NumpadMultiply
	NumpadSubtract
	NumpadAdd
	NumpadEnter
	NumpadPeriod
	Numpad0
	Numpad1
	Numpad2
	Numpad3
	Numpad4
	Numpad5
	Numpad6
	Numpad7
	Numpad8
	Numpad9

	Mute
	VolumeDown
	VolumeUp

	numKeyCodes
)

var keyNames = [numKeyCodes]string{
	Unknown: "Unknown", Escape: "Escape",
	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",
	PrintScreen: "PrintScreen", ScrollLock: "ScrollLock", PauseBreak: "PauseBreak",
	Backtick: "Backtick", Key1: "Key1", Key2: "Key2", Key3: "Key3", Key4: "Key4",
	Key5: "Key5", Key6: "Key6", Key7: "Key7", Key8: "Key8", Key9: "Key9", Key0: "Key0",
	Minus: "Minus", Equals: "Equals", Backspace: "Backspace",
	Tab: "Tab", Q: "Q", W: "W", E: "E", R: "R", T: "T", Y: "Y", U: "U", I: "I",
	O: "O", P: "P", BracketLeft: "BracketLeft", BracketRight: "BracketRight",
	Backslash: "Backslash",
	CapsLock: "CapsLock", A: "A", S: "S", D: "D", F: "F", G: "G", H: "H", J: "J",
	K: "K", L: "L", Semicolon: "Semicolon", Quote: "Quote", Return: "Return",
	LShift: "LShift", Z: "Z", X: "X", C: "C", V: "V", B: "B", N: "N", M: "M",
	Comma: "Comma", Period: "Period", Slash: "Slash", RShift: "RShift",
	LControl: "LControl", LWin: "LWin", LAlt: "LAlt", Spacebar: "Spacebar",
	RAltGr: "RAltGr", RWin: "RWin", Apps: "Apps", RControl: "RControl",
	Insert: "Insert", Home: "Home", PageUp: "PageUp", Delete: "Delete", End: "End",
	PageDown: "PageDown", ArrowUp: "ArrowUp", ArrowLeft: "ArrowLeft",
	ArrowDown: "ArrowDown", ArrowRight: "ArrowRight",
	NumpadLock: "NumpadLock", NumpadDivide: "NumpadDivide",
	NumpadMultiply: "NumpadMultiply", NumpadSubtract: "NumpadSubtract",
	NumpadAdd: "NumpadAdd", NumpadEnter: "NumpadEnter", NumpadPeriod: "NumpadPeriod",
	Numpad0: "Numpad0", Numpad1: "Numpad1", Numpad2: "Numpad2", Numpad3: "Numpad3",
	Numpad4: "Numpad4", Numpad5: "Numpad5", Numpad6: "Numpad6", Numpad7: "Numpad7",
	Numpad8: "Numpad8", Numpad9: "Numpad9",
	Mute: "Mute", VolumeDown: "VolumeDown", VolumeUp: "VolumeUp",
}

func (k KeyCode) String() string {
	if k < numKeyCodes && keyNames[k] != "" {
		return keyNames[k]
	}
	return fmt.Sprintf("KeyCode(%d)", uint8(k))
}

// KeyState is the direction of a key transition.
type KeyState uint8

const (
	Down KeyState = iota
	Up
)

func (s KeyState) String() string {
	if s == Up {
		return "Up"
	}
	return "Down"
}

// KeyEvent is one decoded key transition.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}
