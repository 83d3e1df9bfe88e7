// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fb exposes the Linux framebuffer as a splash display.
package fb

import (
	"fmt"
	"image"
	"os"

	"github.com/orangecms/go-framebuffer/framebuffer"
	"golang.org/x/sys/unix"

	"github.com/dtwood/systemd/pkg/splash"
)

const (
	fbdev   = "/dev/fb0"
	console = "/dev/tty0"
)

// Console ioctl to leave text mode; linux/kd.h.
const (
	kdSetMode  = 0x4b3a
	kdGraphics = 0x01
)

// Device is an open framebuffer. Its pixel I/O is positioned row by
// row, so reads and writes touch only the addressed rectangle.
type Device struct {
	file   *os.File
	width  int
	height int
	stride int // pixels per row as laid out in memory
	bpp    int // bytes per pixel
}

// Open queries /dev/fb0 for its resolution and pixel layout and
// reopens it for positioned I/O. Callers own the returned device and
// must Close it.
func Open() (*Device, error) {
	fbo, err := framebuffer.Init(fbdev)
	if err != nil {
		return nil, fmt.Errorf("framebuffer init: %w", err)
	}
	width, height := fbo.Size()
	d := &Device{
		width:  width,
		height: height,
		stride: fbo.Stride(),
		bpp:    fbo.Bpp(),
	}
	if d.bpp != 2 && d.bpp != 3 && d.bpp != 4 {
		return nil, fmt.Errorf("unsupported framebuffer depth: %d bytes per pixel", d.bpp)
	}
	d.file, err = os.OpenFile(fbdev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fbdev, err)
	}
	return d, nil
}

func (d *Device) Close() error { return d.file.Close() }

// Resolution returns the visible size in pixels.
func (d *Device) Resolution() (int, int) { return d.width, d.height }

func (d *Device) bounds() image.Rectangle { return image.Rect(0, 0, d.width, d.height) }

func (d *Device) offset(x, y int) int64 {
	return int64(d.bpp) * int64(y*d.stride+x)
}

// encodeRow converts pixels to the device byte layout: BGR(A) for 24
// and 32 bpp, RGB555 with the top bit clear for 16 bpp.
func (d *Device) encodeRow(row []splash.Pixel, out []byte) {
	for i, p := range row {
		off := i * d.bpp
		if d.bpp == 2 {
			// drop the 3 lowest bits of each channel
			v := uint16(p.Blue&0xf8)>>3 | uint16(p.Green&0xf8)<<2 | uint16(p.Red&0xf8)<<7
			out[off] = byte(v)
			out[off+1] = byte(v >> 8 & 0x7f)
			continue
		}
		out[off] = p.Blue
		out[off+1] = p.Green
		out[off+2] = p.Red
		if d.bpp == 4 {
			out[off+3] = p.Reserved
		}
	}
}

// decodeRow is the inverse of encodeRow. The low bits a 16 bpp device
// discarded read back as zero.
func (d *Device) decodeRow(in []byte, row []splash.Pixel) {
	for i := range row {
		off := i * d.bpp
		if d.bpp == 2 {
			v := uint16(in[off]) | uint16(in[off+1])<<8
			row[i] = splash.Pixel{
				Blue:  uint8(v&0x1f) << 3,
				Green: uint8(v>>5&0x1f) << 3,
				Red:   uint8(v>>10&0x1f) << 3,
			}
			continue
		}
		row[i] = splash.Pixel{Blue: in[off], Green: in[off+1], Red: in[off+2]}
		if d.bpp == 4 {
			row[i].Reserved = in[off+3]
		}
	}
}

// Fill paints every on-screen pixel of r with p.
func (d *Device) Fill(r image.Rectangle, p splash.Pixel) error {
	clip := r.Intersect(d.bounds())
	if clip.Empty() {
		return nil
	}
	row := make([]splash.Pixel, clip.Dx())
	for i := range row {
		row[i] = p
	}
	raw := make([]byte, clip.Dx()*d.bpp)
	d.encodeRow(row, raw)
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		if _, err := d.file.WriteAt(raw, d.offset(clip.Min.X, y)); err != nil {
			return fmt.Errorf("fill row %d: %w", y, err)
		}
	}
	return nil
}

// ReadPixels captures the current contents of r. The buffer always
// has r.Dx()*r.Dy() entries; parts of r beyond the screen edge stay
// zero.
func (d *Device) ReadPixels(r image.Rectangle) ([]splash.Pixel, error) {
	buf := make([]splash.Pixel, r.Dx()*r.Dy())
	clip := r.Intersect(d.bounds())
	if clip.Empty() {
		return buf, nil
	}
	raw := make([]byte, clip.Dx()*d.bpp)
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		if _, err := d.file.ReadAt(raw, d.offset(clip.Min.X, y)); err != nil {
			return nil, fmt.Errorf("read row %d: %w", y, err)
		}
		i := (y-r.Min.Y)*r.Dx() + (clip.Min.X - r.Min.X)
		d.decodeRow(raw, buf[i:i+clip.Dx()])
	}
	return buf, nil
}

// WritePixels blits buf, a row-major r.Dx()*r.Dy() buffer, into r.
// Parts of r beyond the screen edge are dropped.
func (d *Device) WritePixels(r image.Rectangle, buf []splash.Pixel) error {
	if len(buf) < r.Dx()*r.Dy() {
		return fmt.Errorf("write %v: got %d of %d pixels", r, len(buf), r.Dx()*r.Dy())
	}
	clip := r.Intersect(d.bounds())
	if clip.Empty() {
		return nil
	}
	raw := make([]byte, clip.Dx()*d.bpp)
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		i := (y-r.Min.Y)*r.Dx() + (clip.Min.X - r.Min.X)
		d.encodeRow(buf[i:i+clip.Dx()], raw)
		if _, err := d.file.WriteAt(raw, d.offset(clip.Min.X, y)); err != nil {
			return fmt.Errorf("write row %d: %w", y, err)
		}
	}
	return nil
}

// EnterGraphicsMode switches the console to KD_GRAPHICS so the kernel
// stops drawing text over the framebuffer.
func (d *Device) EnterGraphicsMode() error {
	f, err := os.OpenFile(console, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", console, err)
	}
	defer f.Close()
	if err := unix.IoctlSetInt(int(f.Fd()), kdSetMode, kdGraphics); err != nil {
		return fmt.Errorf("KDSETMODE on %s: %w", console, err)
	}
	return nil
}
