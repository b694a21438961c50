package machine

// Scancode set 1 make codes for the host keys the simulator can type.
const (
	scLeftShift   byte = 0x2A
	scLeftControl byte = 0x1D
	scRelease     byte = 0x80
)

type hostKey struct {
	code  byte
	shift bool
}

var hostKeys = map[rune]hostKey{}

func init() {
	rows := []struct {
		first   byte
		plain   string
		shifted string
	}{
		{0x02, "1234567890-=", "!@#$%^&*()_+"},
		{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
		{0x1E, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{0x2B, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	}
	for _, row := range rows {
		for i, r := range row.plain {
			hostKeys[r] = hostKey{code: row.first + byte(i)}
		}
		for i, r := range row.shifted {
			hostKeys[r] = hostKey{code: row.first + byte(i), shift: true}
		}
	}
	hostKeys[' '] = hostKey{code: 0x39}
	hostKeys['\n'] = hostKey{code: 0x1C}
	hostKeys['\r'] = hostKey{code: 0x1C}
	hostKeys['\t'] = hostKey{code: 0x0F}
	hostKeys['\b'] = hostKey{code: 0x0E}
	hostKeys[0x7F] = hostKey{code: 0x0E}
	hostKeys[0x1B] = hostKey{code: 0x01}
}

// scancodesForRune returns the make/break sequence that types r. Control
// characters without a key of their own are typed as ctrl+letter.
func scancodesForRune(r rune) ([]byte, bool) {
	k, ok := hostKeys[r]
	if !ok {
		if r < 0x01 || r > 0x1A {
			return nil, false
		}
		letter := hostKeys['a'+r-1]
		return []byte{scLeftControl, letter.code, letter.code | scRelease, scLeftControl | scRelease}, true
	}
	if k.shift {
		return []byte{scLeftShift, k.code, k.code | scRelease, scLeftShift | scRelease}, true
	}
	return []byte{k.code, k.code | scRelease}, true
}
