// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splash

import (
	"encoding/binary"
)

// Encode serializes buf, a row-major width*height pixel buffer, as an
// uncompressed bottom-up 24-bit BMP that parseBMP accepts. It is the
// inverse of the 24-bit decode path and is used for screenshots and
// for generating splash files.
func Encode(buf []Pixel, width, height int) []byte {
	stride := (24*width + 31) / 32 * 4
	size := fileHeaderLen + infoHeaderLen + stride*height
	out := make([]byte, size)

	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(size))
	binary.LittleEndian.PutUint32(out[10:14], fileHeaderLen+infoHeaderLen)

	binary.LittleEndian.PutUint32(out[14:18], infoHeaderLen)
	binary.LittleEndian.PutUint32(out[18:22], uint32(width))
	binary.LittleEndian.PutUint32(out[22:26], uint32(height))
	binary.LittleEndian.PutUint16(out[26:28], 1) // planes
	binary.LittleEndian.PutUint16(out[28:30], 24)
	binary.LittleEndian.PutUint32(out[34:38], uint32(stride*height))

	for y := 0; y < height; y++ {
		row := out[fileHeaderLen+infoHeaderLen+(height-1-y)*stride:]
		for x, p := range buf[y*width : (y+1)*width] {
			row[3*x], row[3*x+1], row[3*x+2] = p.Blue, p.Green, p.Red
		}
	}
	return out
}
