package vimg

// DrawFunc receives each complete packet. payload aliases the slice passed
// to Feed and is only valid for the duration of the call.
type DrawFunc func(h Header, payload []byte) error

type decoderState uint8

const (
	wantHeader decoderState = iota
	wantData
)

// Decoder reassembles packets from fragments. The header may be split across
// any number of Feed calls; the payload must arrive complete in the call
// that finishes the header.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	state decoderState

	// wantHeader
	buf    [HeaderSize]byte
	filled int

	// wantData
	header    Header
	remaining uint32

	feeding bool
}

// NewDecoder returns a decoder waiting for a header.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes input. When it completes a packet, draw is called exactly
// once and its result is returned; any bytes after that packet are
// discarded. The decoder is already reset when draw runs, so a draw that
// fails or panics leaves no state behind. Malformed input yields a
// *ProtocolError and resets the decoder.
// An incomplete header is not an error.
func (d *Decoder) Feed(input []byte, draw DrawFunc) error {
	if d.feeding {
		return ErrReentrantFeed
	}
	d.feeding = true
	defer func() { d.feeding = false }()

	for {
		switch d.state {
		case wantHeader:
			n := copy(d.buf[d.filled:], input)
			d.filled += n
			input = input[n:]
			if d.filled < HeaderSize {
				return nil
			}
			h, err := ParseHeader(d.buf[:])
			if err == nil {
				err = h.Validate()
			}
			if err != nil {
				d.Reset()
				return err
			}
			d.state = wantData
			d.header = h
			d.remaining = h.DataLength
			d.filled = 0

		case wantData:
			if uint64(len(input)) < uint64(d.remaining) {
				err := &ProtocolError{
					Err:   ErrShortPayload,
					Field: "payload",
					Got:   uint64(len(input)),
					Want:  uint64(d.remaining),
				}
				d.Reset()
				return err
			}
			h, payload := d.header, input[:d.remaining]
			d.Reset()
			if draw == nil {
				return nil
			}
			return draw(h, payload)
		}
	}
}

// Reset discards any partial header or pending packet.
func (d *Decoder) Reset() {
	d.state = wantHeader
	d.buf = [HeaderSize]byte{}
	d.filled = 0
	d.header = Header{}
	d.remaining = 0
}

// Buffered is the number of header bytes held from earlier calls.
func (d *Decoder) Buffered() int {
	return d.filled
}
