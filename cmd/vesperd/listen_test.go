package main

import (
	"bufio"
	"bytes"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"example.com/vesper-nucleus/nucleus/vimg"
)

func rgbPacket(t *testing.T, x, y, w, h uint32) []byte {
	t.Helper()
	payload := make([]byte, w*h*3)
	for i := range payload {
		payload[i] = byte(i)
	}
	return vimg.Encode(vimg.NewPutHeader(x, y, w, h, vimg.PIXFMT_RGB888), payload)
}

func TestListenerSavesPackets(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(rgbPacket(t, 0, 0, 2, 2))
	stream.WriteString("noise")
	bad := rgbPacket(t, 1, 1, 1, 1)
	bad[4] = 9 // version
	stream.Write(bad)
	stream.Write(rgbPacket(t, 5, 7, 3, 1))

	dir := t.TempDir()
	l := &listener{out: dir, log: log.New(io.Discard, "", 0)}
	n, err := l.serve(bufio.NewReader(&stream), 0)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if n != 2 {
		t.Fatalf("saved %d images, want 2", n)
	}

	f, err := os.Open(filepath.Join(dir, "vimg-0001-3x1+5+7.png"))
	if err != nil {
		t.Fatalf("second image missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 1 {
		t.Fatalf("image is %dx%d, want 3x1", b.Dx(), b.Dy())
	}
}

func TestListenerStrictDropsBadChecksum(t *testing.T) {
	pkt := rgbPacket(t, 0, 0, 1, 1)
	pkt[len(pkt)-1] ^= 0xFF

	l := &listener{out: t.TempDir(), strict: true, log: log.New(io.Discard, "", 0)}
	n, err := l.serve(bufio.NewReader(bytes.NewReader(pkt)), 0)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if n != 0 {
		t.Fatalf("saved %d images, want 0", n)
	}
}

func TestListenerStopsAtCount(t *testing.T) {
	var stream bytes.Buffer
	for i := 0; i < 3; i++ {
		stream.Write(rgbPacket(t, uint32(i), 0, 1, 1))
	}
	l := &listener{out: t.TempDir(), log: log.New(io.Discard, "", 0)}
	n, err := l.serve(bufio.NewReader(&stream), 2)
	if err != nil || n != 2 {
		t.Fatalf("serve = %d, %v; want 2, nil", n, err)
	}
}
