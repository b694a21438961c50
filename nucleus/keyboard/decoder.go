// Package keyboard turns PS/2 scancode set 1 bytes into keys for a US 104-key
// layout.
//
// Decoding happens in two steps, each usable on its own: AddByte assembles
// raw bytes into key transitions, and ProcessEvent applies modifier state and
// the layout to a transition. Feed does both.
package keyboard

import "fmt"

// ControlHandling selects what ctrl+letter produces.
type ControlHandling uint8

const (
	// ControlIgnore yields the letter itself.
	ControlIgnore ControlHandling = iota
	// ControlMapLetters yields U+0001 for ctrl+A through U+001A for ctrl+Z.
	ControlMapLetters
)

// DecodedKey is either a character or a key with no character meaning.
type DecodedKey struct {
	Rune rune
	Code KeyCode
	Raw  bool
}

// Unicode returns a DecodedKey carrying r.
func Unicode(r rune) DecodedKey {
	return DecodedKey{Rune: r}
}

// RawKey returns a DecodedKey for a key with no character meaning.
func RawKey(code KeyCode) DecodedKey {
	return DecodedKey{Code: code, Raw: true}
}

func (k DecodedKey) String() string {
	if k.Raw {
		return k.Code.String()
	}
	return fmt.Sprintf("%q", k.Rune)
}

// Modifiers is the state of the modifier and lock keys.
type Modifiers struct {
	LShift   bool
	RShift   bool
	LCtrl    bool
	RCtrl    bool
	Alt      bool
	AltGr    bool
	CapsLock bool
	NumLock  bool
}

func (m Modifiers) IsShifted() bool {
	return m.LShift || m.RShift
}

func (m Modifiers) IsCtrl() bool {
	return m.LCtrl || m.RCtrl
}

// IsCaps reports whether letters come out upper case.
func (m Modifiers) IsCaps() bool {
	return m.IsShifted() != m.CapsLock
}

// Decoder holds the partial-sequence and modifier state of one keyboard.
type Decoder struct {
	set1      set1
	modifiers Modifiers
	ctrl      ControlHandling
}

// NewDecoder returns a decoder with num lock on and everything else released.
func NewDecoder(ctrl ControlHandling) *Decoder {
	return &Decoder{
		modifiers: Modifiers{NumLock: true},
		ctrl:      ctrl,
	}
}

// Feed consumes one scancode byte and returns the key it completes, if any.
// Releases, modifiers and unrecognised bytes produce nothing.
func (d *Decoder) Feed(b byte) (DecodedKey, bool) {
	ev, ok := d.AddByte(b)
	if !ok {
		return DecodedKey{}, false
	}
	return d.ProcessEvent(ev)
}

// AddByte consumes one scancode byte and returns the transition it
// completes, if any.
func (d *Decoder) AddByte(b byte) (KeyEvent, bool) {
	return d.set1.add(b)
}

// ProcessEvent updates modifier state from ev and maps key presses through
// the layout.
func (d *Decoder) ProcessEvent(ev KeyEvent) (DecodedKey, bool) {
	down := ev.State == Down
	m := &d.modifiers
	switch ev.Code {
	case LShift:
		m.LShift = down
	case RShift:
		m.RShift = down
	case LControl:
		m.LCtrl = down
	case RControl:
		m.RCtrl = down
	case LAlt:
		m.Alt = down
	case RAltGr:
		m.AltGr = down
	case CapsLock:
		if down {
			m.CapsLock = !m.CapsLock
		}
	case NumpadLock:
		if down {
			m.NumLock = !m.NumLock
		}
	default:
		if !down || ev.Code == Unknown {
			return DecodedKey{}, false
		}
		return mapUS104(ev.Code, *m, d.ctrl), true
	}
	return DecodedKey{}, false
}

// Modifiers returns the current modifier state.
func (d *Decoder) Modifiers() Modifiers {
	return d.modifiers
}

// Reset drops any partial sequence and releases every modifier. Lock states
// return to their power-on values.
func (d *Decoder) Reset() {
	d.set1.reset()
	d.modifiers = Modifiers{NumLock: true}
}
