// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splash

import (
	"encoding/binary"
)

// rowFn decodes one stored raster row into one output row of exactly
// len(out) pixels. in holds at least the row's meaningful bytes; the
// 32-bit variant blends into whatever out already contains.
type rowFn func(out []Pixel, in []byte) error

// decodeInto transforms the raster data the validator handed out into
// buf, which must hold width*height pixels. Rows are stored bottom-up,
// so stored row y lands at output row height-1-y. The read cursor
// advances by the padded stride; only ceil(depth*width/8) bytes of
// each row carry pixels.
func (d *dib) decodeInto(pal palette, pixmap []byte, buf []Pixel) error {
	decodeRow := d.rowDecoder(pal)
	for y := 0; y < d.height; y++ {
		in := pixmap[y*d.stride : (y+1)*d.stride]
		out := buf[(d.height-1-y)*d.width : (d.height-y)*d.width]
		if err := decodeRow(out, in); err != nil {
			return err
		}
	}
	return nil
}

// rowDecoder selects the per-depth strategy once, keeping the hot
// per-pixel loops free of depth checks. The validator guarantees the
// depth is one of the six supported values; any other value here is a
// bug, not input.
func (d *dib) rowDecoder(pal palette) rowFn {
	switch d.depth {
	case 1:
		return decode1(pal)
	case 4:
		return decode4(pal)
	case 8:
		return decode8(pal)
	case 16:
		return decode16
	case 24:
		return decode24
	case 32:
		return decode32
	}
	panic("splash: rowDecoder called before validation")
}

// decode1 unpacks eight pixels per byte, most significant bit first.
func decode1(pal palette) rowFn {
	return func(out []Pixel, in []byte) error {
		for x := range out {
			i := int(in[x>>3]>>(7-x&7)) & 1
			p, err := pal.at(i)
			if err != nil {
				return err
			}
			out[x] = p
		}
		return nil
	}
}

// decode4 unpacks two pixels per byte, high nibble first. An odd width
// leaves the final low nibble unused.
func decode4(pal palette) rowFn {
	return func(out []Pixel, in []byte) error {
		for x := range out {
			i := int(in[x>>1])
			if x&1 == 0 {
				i >>= 4
			} else {
				i &= 0x0f
			}
			p, err := pal.at(i)
			if err != nil {
				return err
			}
			out[x] = p
		}
		return nil
	}
}

func decode8(pal palette) rowFn {
	return func(out []Pixel, in []byte) error {
		for x := range out {
			p, err := pal.at(int(in[x]))
			if err != nil {
				return err
			}
			out[x] = p
		}
		return nil
	}
}

// decode16 expands 5-5-5 RGB words. Each channel's five bits are
// shifted into the top of an 8-bit channel:
//
//	red   = (word & 0x7C00) >> 7
//	green = (word & 0x03E0) >> 2
//	blue  = (word & 0x001F) << 3
func decode16(out []Pixel, in []byte) error {
	for x := range out {
		w := binary.LittleEndian.Uint16(in[2*x:])
		out[x] = Pixel{
			Red:   uint8((w & 0x7c00) >> 7),
			Green: uint8((w & 0x03e0) >> 2),
			Blue:  uint8((w & 0x001f) << 3),
		}
	}
	return nil
}

// decode24 swaps the stored blue, green, red byte order; no scaling.
func decode24(out []Pixel, in []byte) error {
	for x := range out {
		out[x] = Pixel{Blue: in[3*x], Green: in[3*x+1], Red: in[3*x+2]}
	}
	return nil
}

// decode32 blends each source word against the pixel already present
// in the output row; the compositor pre-populates the buffer with the
// captured surface contents this blends over.
func decode32(out []Pixel, in []byte) error {
	for x := range out {
		w := binary.LittleEndian.Uint32(in[4*x:])
		out[x] = pixelFromWord(blend(out[x].word(), w))
	}
	return nil
}
