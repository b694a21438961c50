package vimg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxPayload bounds the payload ReadPacket will allocate for.
const MaxPayload = 64 << 20

// ReadPacket reads one packet from r and hands it to dec in a single Feed,
// so a transport that splits the payload never reaches the decoder with a
// partial one. dec must not hold a partial header. ReadPacket returns
// io.EOF if r ends before the first header byte.
func ReadPacket(r io.Reader, dec *Decoder, draw DrawFunc) error {
	if n := dec.Buffered(); n != 0 {
		return fmt.Errorf("vimg: decoder holds %d header bytes from an earlier Feed", n)
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("vimg: reading header: %w", err)
	}

	h, err := ParseHeader(hdr[:])
	if err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if h.DataLength > MaxPayload {
		return fmt.Errorf("%w: %d bytes at (%d,%d)", ErrPayloadTooLarge, h.DataLength, h.X, h.Y)
	}

	pkt := make([]byte, HeaderSize+int(h.DataLength))
	copy(pkt, hdr[:])
	if _, err := io.ReadFull(r, pkt[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("vimg: reading payload: %w", err)
	}
	return dec.Feed(pkt, draw)
}

// WritePacket encodes h and payload and writes the packet to w.
func WritePacket(w io.Writer, h Header, payload []byte) error {
	if _, err := w.Write(Encode(h, payload)); err != nil {
		return fmt.Errorf("vimg: writing packet: %w", err)
	}
	return nil
}

// SkipToMagic discards bytes from r until the next MAGIC, leaving it unread.
// It returns the number of bytes skipped. Use it to find the next packet
// after ReadPacket reports a bad header.
func SkipToMagic(r *bufio.Reader) (int, error) {
	skipped := 0
	for {
		b, err := r.Peek(len(MAGIC))
		if bytes.Equal(b, []byte(MAGIC)) {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
		if _, err := r.Discard(1); err != nil {
			return skipped, err
		}
		skipped++
	}
}
