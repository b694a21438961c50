package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"

	"example.com/vesper-nucleus/nucleus/vimg"
)

type sendCmd struct {
	Image  string `arg:"" type:"existingfile" help:"PNG, JPEG, GIF or BMP image to send."`
	X      uint32 `help:"Destination column."`
	Y      uint32 `help:"Destination row."`
	Format string `enum:"rgb888,bmp" default:"rgb888" help:"Payload pixel format (${enum})."`
	Port   string `xor:"sink" help:"Serial device to write the packet to."`
	Out    string `xor:"sink" help:"Write the packet to this file instead."`
	Baud   int    `default:"115200" help:"Serial line rate."`
}

func (c *sendCmd) Run(g *globals) error {
	f, err := os.Open(c.Image)
	if err != nil {
		return err
	}
	img, kind, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", c.Image, err)
	}

	var format uint8 = vimg.PIXFMT_RGB888
	if c.Format == "bmp" {
		format = vimg.PIXFMT_BMP
	}
	pkt, err := vimg.FromImage(c.X, c.Y, img, format)
	if err != nil {
		return err
	}

	var sink io.WriteCloser = nopCloser{os.Stdout}
	switch {
	case c.Port != "":
		if sink, err = openSerial(c.Port, c.Baud); err != nil {
			return err
		}
	case c.Out != "":
		if sink, err = os.Create(c.Out); err != nil {
			return err
		}
	}

	if _, err := sink.Write(pkt); err != nil {
		sink.Close()
		return fmt.Errorf("writing packet: %w", err)
	}
	if err := sink.Close(); err != nil {
		return err
	}
	if g.Debug || c.Port != "" || c.Out != "" {
		b := img.Bounds()
		good.Fprintf(os.Stderr, "vesperd: sent %s %dx%d at (%d,%d) as %s, %d bytes\n",
			kind, b.Dx(), b.Dy(), c.X, c.Y, c.Format, len(pkt))
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
