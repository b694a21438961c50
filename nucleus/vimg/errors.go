package vimg

import (
	"errors"
	"fmt"
)

// ErrProtocol matches every *ProtocolError with errors.Is.
var ErrProtocol = errors.New("vimg: protocol error")

// Causes carried by a ProtocolError.
var (
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrShortPayload       = errors.New("payload incomplete")
)

// ErrReentrantFeed is returned by a Feed issued from inside a draw callback.
var ErrReentrantFeed = errors.New("vimg: Feed called from draw callback")

// ErrPayloadTooLarge is returned by ReadPacket for packets above MaxPayload.
var ErrPayloadTooLarge = errors.New("vimg: payload exceeds limit")

// ProtocolError reports malformed input. The decoder has already reset when
// one is returned.
type ProtocolError struct {
	Err   error  // ErrBadMagic, ErrUnsupportedVersion, ErrUnknownCommand or ErrShortPayload
	Field string // Header field at fault
	Got   uint64
	Want  uint64
}

func (e *ProtocolError) Error() string {
	switch e.Err {
	case ErrBadMagic:
		return fmt.Sprintf("vimg: %v: got %q, want %q", e.Err, magicString(uint32(e.Got)), MAGIC)
	case ErrShortPayload:
		return fmt.Sprintf("vimg: %v: got %d of %d bytes", e.Err, e.Got, e.Want)
	}
	return fmt.Sprintf("vimg: %v: %s is %d, want %d", e.Err, e.Field, e.Got, e.Want)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func magicString(m uint32) string {
	return string([]byte{byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24)})
}
