// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splash

// blend combines one source pixel with the pixel already present at
// its destination. src packs alpha into the low byte (0 transparent,
// 255 opaque) with blue, green, red above it; dst and the result pack
// blue, green, red from the low byte up. Each channel is interpolated
// as
//
//	result = dst + ((src - dst)*alpha + 0x80) / 256
//
// with red and blue carried through one multiply as a pair and green
// on its own; the masks keep a channel's carry from bleeding into its
// neighbor. The 0x80 rounding terms (0x800080 for the pair) are part
// of the output contract and must not change.
func blend(dst, src uint32) uint32 {
	alpha := src & 0xff
	src >>= 8

	srcRB := src & 0xff00ff
	srcG := src & 0x00ff00
	dstRB := dst & 0xff00ff
	dstG := dst & 0x00ff00

	rb := ((((srcRB-dstRB)*alpha + 0x800080) >> 8) + dstRB) & 0xff00ff
	g := ((((srcG-dstG)*alpha + 0x008000) >> 8) + dstG) & 0x00ff00

	return rb | g
}
