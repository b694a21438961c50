// Package vimg implements the VIMG image transfer packet: a fixed
// little-endian header followed by the pixel payload.
//
// Decoder reassembles packets from a byte stream delivered in arbitrary
// fragments. ReadPacket frames packets read from an io.Reader, and ToImage /
// FromImage convert payloads to and from image.Image.
package vimg

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Wire constants.
const (
	MAGIC   = "VIMG"
	VERSION = 1

	CMD_PUT = 0x01 // Draw an image at (x, y)

	PIXFMT_RGB888 = 0 // Packed R, G, B bytes, row major
	PIXFMT_BMP    = 1 // A complete BMP file
)

// HeaderSize is the encoded header length. There is no padding.
const HeaderSize = 36

// Field offsets.
const (
	offMagic    = 0
	offVersion  = 4
	offCommand  = 5
	offFlags    = 6
	offX        = 8
	offY        = 12
	offW        = 16
	offH        = 20
	offPixFmt   = 24
	offReserved = 25
	offDataLen  = 28
	offCRC32    = 32
)

// Header is the decoded packet header.
type Header struct {
	Magic       [4]byte
	Version     uint8
	Command     uint8
	Flags       uint16
	X, Y        uint32
	W, H        uint32
	PixelFormat uint8
	Reserved    [3]byte
	DataLength  uint32
	CRC32       uint32 // IEEE, over the payload
}

// NewPutHeader returns a put-image header for a w x h image at (x, y). The
// length and checksum are filled in by Encode.
func NewPutHeader(x, y, w, h uint32, pixelFormat uint8) Header {
	hdr := Header{
		Version:     VERSION,
		Command:     CMD_PUT,
		X:           x,
		Y:           y,
		W:           w,
		H:           h,
		PixelFormat: pixelFormat,
	}
	copy(hdr.Magic[:], MAGIC)
	return hdr
}

// ParseHeader decodes the first HeaderSize bytes of b. It checks only the
// length; use Validate for the protocol rules.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("vimg: header needs %d bytes, got %d", HeaderSize, len(b))
	}
	var h Header
	copy(h.Magic[:], b[offMagic:offVersion])
	h.Version = b[offVersion]
	h.Command = b[offCommand]
	h.Flags = binary.LittleEndian.Uint16(b[offFlags:])
	h.X = binary.LittleEndian.Uint32(b[offX:])
	h.Y = binary.LittleEndian.Uint32(b[offY:])
	h.W = binary.LittleEndian.Uint32(b[offW:])
	h.H = binary.LittleEndian.Uint32(b[offH:])
	h.PixelFormat = b[offPixFmt]
	copy(h.Reserved[:], b[offReserved:offDataLen])
	h.DataLength = binary.LittleEndian.Uint32(b[offDataLen:])
	h.CRC32 = binary.LittleEndian.Uint32(b[offCRC32:])
	return h, nil
}

// AppendBinary appends the wire encoding of h to b.
func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, h.Magic[:]...)
	b = append(b, h.Version, h.Command)
	b = binary.LittleEndian.AppendUint16(b, h.Flags)
	b = binary.LittleEndian.AppendUint32(b, h.X)
	b = binary.LittleEndian.AppendUint32(b, h.Y)
	b = binary.LittleEndian.AppendUint32(b, h.W)
	b = binary.LittleEndian.AppendUint32(b, h.H)
	b = append(b, h.PixelFormat)
	b = append(b, h.Reserved[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.DataLength)
	b = binary.LittleEndian.AppendUint32(b, h.CRC32)
	return b, nil
}

func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}

func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) != HeaderSize {
		return fmt.Errorf("vimg: header is %d bytes, got %d", HeaderSize, len(b))
	}
	parsed, err := ParseHeader(b)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Validate checks magic, version and command. Flags, reserved bytes and the
// checksum are not inspected.
func (h Header) Validate() error {
	if string(h.Magic[:]) != MAGIC {
		return &ProtocolError{
			Err:   ErrBadMagic,
			Field: "magic",
			Got:   uint64(binary.LittleEndian.Uint32(h.Magic[:])),
			Want:  uint64(binary.LittleEndian.Uint32([]byte(MAGIC))),
		}
	}
	if h.Version != VERSION {
		return &ProtocolError{Err: ErrUnsupportedVersion, Field: "version", Got: uint64(h.Version), Want: VERSION}
	}
	if h.Command != CMD_PUT {
		return &ProtocolError{Err: ErrUnknownCommand, Field: "command", Got: uint64(h.Command), Want: CMD_PUT}
	}
	return nil
}

// ChecksumMatches reports whether payload has the CRC32 recorded in h.
func (h Header) ChecksumMatches(payload []byte) bool {
	return crc32.ChecksumIEEE(payload) == h.CRC32
}

// ReservedZero reports whether the reserved bytes are all zero.
func (h Header) ReservedZero() bool {
	return h.Reserved == [3]byte{}
}

// Encode returns the packet for h and payload, with DataLength and CRC32
// set from payload.
func Encode(h Header, payload []byte) []byte {
	h.DataLength = uint32(len(payload))
	h.CRC32 = crc32.ChecksumIEEE(payload)
	b, _ := h.AppendBinary(make([]byte, 0, HeaderSize+len(payload)))
	return append(b, payload...)
}
