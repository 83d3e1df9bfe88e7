// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package splash decodes a BMP boot splash and composites it, centered,
// onto a display.
//
// The input bytes are untrusted: every offset, dimension and
// color-table size taken from the file headers is validated against
// the input length before it is used. Supported encodings are 1, 4
// and 8 bit paletted, 16-bit 5-5-5, 24-bit, and 32-bit with alpha
// blended against the surface contents underneath the image.
// Run-length compressed files are rejected.
//
// Rendering a splash is decorative and one-shot. Every failure is
// returned to the caller without retry or logging; a boot can and
// should continue without one.
package splash

import (
	"fmt"
	"image"
)

// Pixel is one display pixel in the blue, green, red, reserved byte
// order framebuffers and BLT buffers use. The reserved byte is ignored
// on writes to a 24-bit surface.
type Pixel struct {
	Blue     uint8
	Green    uint8
	Red      uint8
	Reserved uint8
}

// word packs the color channels for blending, blue in the low byte.
func (p Pixel) word() uint32 {
	return uint32(p.Blue) | uint32(p.Green)<<8 | uint32(p.Red)<<16
}

func pixelFromWord(w uint32) Pixel {
	return Pixel{Blue: uint8(w), Green: uint8(w >> 8), Red: uint8(w >> 16)}
}

// Display is the device a splash is rendered onto. Calls are
// synchronous and treated as atomic: each either completes or fails.
// Pixel buffers are row-major with r.Dx()*r.Dy() entries; writes and
// reads beyond the device edge are clipped by the implementation.
type Display interface {
	// Resolution returns the device's current width and height in pixels.
	Resolution() (width, height int)
	// Fill paints every pixel of r with p.
	Fill(r image.Rectangle, p Pixel) error
	// ReadPixels returns the current contents of r.
	ReadPixels(r image.Rectangle) ([]Pixel, error)
	// WritePixels replaces the contents of r with buf.
	WritePixels(r image.Rectangle, buf []Pixel) error
	// EnterGraphicsMode switches the device out of text mode, if it is
	// not already displaying graphics.
	EnterGraphicsMode() error
}

// DisplayError wraps a failure reported by the display while
// rendering. The underlying error is available through Unwrap.
type DisplayError struct {
	Op  string
	Err error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("splash: display %s: %v", e.Op, e.Err)
}

func (e *DisplayError) Unwrap() error { return e.Err }

// Render draws the BMP in content centered on d, over a full-surface
// background fill. A nil background fills with black. Empty content
// means no splash is configured and succeeds without touching the
// display.
//
// The background fill happens before the image is validated, so a
// rejected splash leaves the filled surface behind. Display failures
// propagate immediately; nothing is rolled back.
func Render(content []byte, background *Pixel, d Display) error {
	if len(content) == 0 {
		return nil
	}

	var bg Pixel
	if background != nil {
		bg = *background
	}

	sw, sh := d.Resolution()
	if err := d.Fill(image.Rect(0, 0, sw, sh), bg); err != nil {
		return &DisplayError{Op: "fill", Err: err}
	}

	hdr, pal, pixmap, err := parseBMP(content)
	if err != nil {
		return err
	}

	// Center the image, clamping to the origin when it is larger than
	// the surface; overscan is the display's problem.
	var x0, y0 int
	if hdr.width < sw {
		x0 = (sw - hdr.width) / 2
	}
	if hdr.height < sh {
		y0 = (sh - hdr.height) / 2
	}
	r := image.Rect(x0, y0, x0+hdr.width, y0+hdr.height)

	// The captured contents are the backdrop 32-bit pixels blend into.
	buf, err := d.ReadPixels(r)
	if err != nil {
		return &DisplayError{Op: "read", Err: err}
	}
	if len(buf) != hdr.width*hdr.height {
		return &DisplayError{Op: "read", Err: fmt.Errorf("got %d pixels for %dx%d capture", len(buf), hdr.width, hdr.height)}
	}

	if err := hdr.decodeInto(pal, pixmap, buf); err != nil {
		return err
	}

	if err := d.WritePixels(r, buf); err != nil {
		return &DisplayError{Op: "write", Err: err}
	}
	if err := d.EnterGraphicsMode(); err != nil {
		return &DisplayError{Op: "graphics mode", Err: err}
	}
	return nil
}
