package main

import (
	"bufio"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"example.com/vesper-nucleus/nucleus/vimg"
)

type listenCmd struct {
	Port   string `xor:"source" help:"Serial device to read packets from."`
	File   string `xor:"source" type:"existingfile" help:"Read packets from a capture file instead."`
	Baud   int    `default:"115200" help:"Serial line rate."`
	Out    string `default:"." type:"existingdir" help:"Directory for the decoded PNG files."`
	Count  int    `help:"Stop after this many images, 0 for no limit."`
	Strict bool   `help:"Drop packets whose CRC32 does not match their payload."`
}

func (c *listenCmd) Run(g *globals) error {
	var src io.ReadCloser
	switch {
	case c.Port != "":
		rw, err := openSerial(c.Port, c.Baud)
		if err != nil {
			return err
		}
		src = rw
	case c.File != "":
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		src = f
	default:
		return errors.New("one of --port or --file is required")
	}
	defer src.Close()

	l := &listener{
		out:    c.Out,
		strict: c.Strict,
	}
	if g.Debug {
		l.log = log.New(os.Stderr, "Listen: ", log.Ltime)
	} else {
		l.log = log.New(io.Discard, "", 0)
	}

	n, err := l.serve(bufio.NewReader(src), c.Count)
	good.Fprintf(os.Stderr, "vesperd: %d images saved to %s\n", n, c.Out)
	return err
}

type listener struct {
	out    string
	strict bool
	log    *log.Logger
	saved  int
}

// serve reads packets from r until it ends or limit images are saved.
// Malformed headers are skipped by scanning for the next magic.
func (l *listener) serve(r *bufio.Reader, limit int) (int, error) {
	dec := vimg.NewDecoder()
	for limit <= 0 || l.saved < limit {
		err := vimg.ReadPacket(r, dec, l.draw)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return l.saved, nil
		case errors.Is(err, vimg.ErrProtocol), errors.Is(err, vimg.ErrPayloadTooLarge):
			warn.Fprintf(os.Stderr, "vesperd: %v\n", err)
			skipped, err := vimg.SkipToMagic(r)
			l.log.Printf("skipped %d bytes", skipped)
			if errors.Is(err, io.EOF) {
				return l.saved, nil
			}
			if err != nil {
				return l.saved, err
			}
		case errors.Is(err, vimg.ErrPixelFormat):
			warn.Fprintf(os.Stderr, "vesperd: %v\n", err)
		default:
			return l.saved, err
		}
	}
	return l.saved, nil
}

func (l *listener) draw(h vimg.Header, payload []byte) error {
	if !h.ChecksumMatches(payload) {
		if l.strict {
			warn.Fprintf(os.Stderr, "vesperd: dropping %dx%d image at (%d,%d): crc32 mismatch\n", h.W, h.H, h.X, h.Y)
			return nil
		}
		l.log.Printf("crc32 mismatch for %dx%d image at (%d,%d)", h.W, h.H, h.X, h.Y)
	}

	img, err := vimg.ToImage(h, payload)
	if err != nil {
		return err
	}

	name := filepath.Join(l.out, fmt.Sprintf("vimg-%04d-%dx%d+%d+%d.png", l.saved, h.W, h.H, h.X, h.Y))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	l.saved++
	info.Fprintf(os.Stderr, "vesperd: %s\n", name)
	return nil
}
