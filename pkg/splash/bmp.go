// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splash

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Validation failures. Each corresponds to one distinct header check;
// all of them abort the render but are harmless to the caller.
var (
	ErrTooSmall               = errors.New("splash: input too small for BMP headers")
	ErrBadSignature           = errors.New("splash: bad BMP signature")
	ErrSizeMismatch           = errors.New("splash: file size field does not match input length")
	ErrOffsetOutOfRange       = errors.New("splash: pixel data offset outside file")
	ErrUnsupportedHeader      = errors.New("splash: unsupported DIB header")
	ErrUnsupportedDepth       = errors.New("splash: unsupported bit depth")
	ErrUnsupportedCompression = errors.New("splash: unsupported compression mode")
	ErrTruncatedPixelData     = errors.New("splash: truncated pixel data")
	ErrImageTooLarge          = errors.New("splash: image exceeds size limit")
	ErrBadColorTable          = errors.New("splash: bad color table")
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40

	// Decoded row data is capped at 64 MiB. Header dimensions are
	// untrusted, so anything bigger is rejected before allocation.
	maxPixelBytes = 64 * 1024 * 1024
)

// compression modes from the DIB header
const (
	compressionNone      = 0
	compressionBitfields = 3
)

// dib holds the validated facts from the BITMAPINFOHEADER. We require
// at least that structure; later, larger DIB variants are accepted and
// their extra fields ignored.
type dib struct {
	width       int
	height      int
	depth       int
	compression uint32
	stride      int // padded source row size in bytes
}

// palette is the color table for depths <= 8, one display pixel per
// entry in file order.
type palette []Pixel

// at resolves a pixel's palette index. An index past the end of the
// table is a malformed file, never a read past the table.
func (p palette) at(i int) (Pixel, error) {
	if i >= len(p) {
		return Pixel{}, fmt.Errorf("pixel index %d outside %d-entry color table: %w", i, len(p), ErrBadColorTable)
	}
	return p[i], nil
}

// parseBMP is the single trust boundary for splash input. It validates
// every size, offset and dimension in content's BMP headers against
// len(content) and returns the parsed header, the color table (empty
// for depths above 8) and the raster bytes starting at the first
// stored row. Once it succeeds, the decode loops may assume all
// derived offsets are in bounds.
func parseBMP(content []byte) (*dib, palette, []byte, error) {
	if len(content) < fileHeaderLen+infoHeaderLen {
		return nil, nil, nil, ErrTooSmall
	}

	// file header
	if content[0] != 'B' || content[1] != 'M' {
		return nil, nil, nil, ErrBadSignature
	}
	fileSize := int64(binary.LittleEndian.Uint32(content[2:6]))
	if fileSize != int64(len(content)) {
		return nil, nil, nil, fmt.Errorf("%w: header says %d, have %d bytes", ErrSizeMismatch, fileSize, len(content))
	}
	offset := int64(binary.LittleEndian.Uint32(content[10:14]))
	if offset > fileSize {
		return nil, nil, nil, ErrOffsetOutOfRange
	}

	// DIB header
	dibSize := int64(binary.LittleEndian.Uint32(content[14:18]))
	if dibSize < infoHeaderLen {
		return nil, nil, nil, fmt.Errorf("%w: DIB header of %d bytes", ErrUnsupportedHeader, dibSize)
	}
	width := int32(binary.LittleEndian.Uint32(content[18:22]))
	height := int32(binary.LittleEndian.Uint32(content[22:26]))
	if width < 0 || height < 0 {
		return nil, nil, nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrUnsupportedHeader, width, height)
	}
	depth := int(binary.LittleEndian.Uint16(content[28:30]))
	compression := binary.LittleEndian.Uint32(content[30:34])
	colorsUsed := int64(binary.LittleEndian.Uint32(content[46:50]))

	switch depth {
	case 1, 4, 8, 24:
		if compression != compressionNone {
			return nil, nil, nil, fmt.Errorf("%w: mode %d at depth %d", ErrUnsupportedCompression, compression, depth)
		}
	case 16, 32:
		if compression != compressionNone && compression != compressionBitfields {
			return nil, nil, nil, fmt.Errorf("%w: mode %d at depth %d", ErrUnsupportedCompression, compression, depth)
		}
	default:
		return nil, nil, nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedDepth, depth)
	}

	// Rows are padded to 32-bit boundaries. All arithmetic is 64-bit,
	// and the size product is checked for overflow: a product too big
	// for int64 cannot fit in any length-matched file either.
	rowSize := (int64(depth)*int64(width) + 31) / 32 * 4
	pixelBytes := rowSize * int64(height)
	if height != 0 && pixelBytes/int64(height) != rowSize {
		return nil, nil, nil, fmt.Errorf("%w: %dx%d at depth %d overflows", ErrTruncatedPixelData, width, height, depth)
	}
	if fileSize-offset < pixelBytes {
		return nil, nil, nil, fmt.Errorf("%w: need %d raster bytes, have %d", ErrTruncatedPixelData, pixelBytes, fileSize-offset)
	}
	if pixelBytes > maxPixelBytes {
		return nil, nil, nil, fmt.Errorf("%w: %d raster bytes", ErrImageTooLarge, pixelBytes)
	}

	// The gap between the end of the DIB header and the pixel data is
	// the color table; its span must match the entry count exactly.
	headersEnd := int64(fileHeaderLen) + dibSize
	if offset < headersEnd {
		return nil, nil, nil, fmt.Errorf("%w: pixel data at %d overlaps headers ending at %d", ErrBadColorTable, offset, headersEnd)
	}
	entries := colorsUsed
	if entries == 0 && depth <= 8 {
		entries = 1 << depth
	}
	var pal palette
	if gap := offset - headersEnd; gap > 0 {
		if gap != 4*entries {
			return nil, nil, nil, fmt.Errorf("%w: %d bytes for %d entries", ErrBadColorTable, gap, entries)
		}
		pal = make(palette, entries)
		for i := range pal {
			e := content[headersEnd+4*int64(i):]
			pal[i] = Pixel{Blue: e[0], Green: e[1], Red: e[2], Reserved: e[3]}
		}
	}

	d := &dib{
		width:       int(width),
		height:      int(height),
		depth:       depth,
		compression: compression,
		stride:      int(rowSize),
	}
	return d, pal, content[offset:], nil
}

// DecodeConfig returns the dimensions and bit depth a splash image
// declares, without decoding any pixels. The full header validation
// still runs; the error reports why the image would be rejected.
func DecodeConfig(content []byte) (width, height, depth int, err error) {
	d, _, _, err := parseBMP(content)
	if err != nil {
		return 0, 0, 0, err
	}
	return d.width, d.height, d.depth, nil
}
