package vimg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/bmp"
)

// ErrPixelFormat is returned for payloads that do not match their header.
var ErrPixelFormat = errors.New("vimg: bad pixel data")

// ToImage decodes a packet payload into an image of h.W x h.H pixels.
func ToImage(h Header, payload []byte) (image.Image, error) {
	switch h.PixelFormat {
	case PIXFMT_RGB888:
		want := uint64(h.W) * uint64(h.H) * 3
		if uint64(len(payload)) != want {
			return nil, fmt.Errorf("%w: RGB888 %dx%d needs %d bytes, got %d", ErrPixelFormat, h.W, h.H, want, len(payload))
		}
		img := image.NewNRGBA(image.Rect(0, 0, int(h.W), int(h.H)))
		for i, o := 0, 0; i < len(payload); i, o = i+3, o+4 {
			img.Pix[o] = payload[i]
			img.Pix[o+1] = payload[i+1]
			img.Pix[o+2] = payload[i+2]
			img.Pix[o+3] = 0xFF
		}
		return img, nil

	case PIXFMT_BMP:
		img, err := bmp.Decode(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPixelFormat, err)
		}
		b := img.Bounds()
		if uint64(b.Dx()) != uint64(h.W) || uint64(b.Dy()) != uint64(h.H) {
			return nil, fmt.Errorf("%w: BMP is %dx%d, header says %dx%d", ErrPixelFormat, b.Dx(), b.Dy(), h.W, h.H)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: unknown pixel format %d", ErrPixelFormat, h.PixelFormat)
}

// FromImage builds a put-image packet placing img at (x, y).
func FromImage(x, y uint32, img image.Image, pixelFormat uint8) ([]byte, error) {
	b := img.Bounds()
	h := NewPutHeader(x, y, uint32(b.Dx()), uint32(b.Dy()), pixelFormat)

	switch pixelFormat {
	case PIXFMT_RGB888:
		return Encode(h, rgb888(img)), nil
	case PIXFMT_BMP:
		var buf bytes.Buffer
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("vimg: encoding BMP: %w", err)
		}
		return Encode(h, buf.Bytes()), nil
	}
	return nil, fmt.Errorf("%w: unknown pixel format %d", ErrPixelFormat, pixelFormat)
}

// rgb888 flattens img to packed RGB, dropping alpha after compositing over
// black.
func rgb888(img image.Image) []byte {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Over)

	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for i := 0; i < len(rgba.Pix); i += 4 {
		out = append(out, rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
	}
	return out
}
