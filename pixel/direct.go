package pixel

import (
	"encoding/binary"
	"image"
)

// A pixel layout of one or more whole bytes. put writes the canonical RGBA
// pixel c to dst, get reads it back.
type layout struct {
	size int
	put  func(dst, c []uint8)
	get  func(c, src []uint8)
}

var bgr888 = layout{
	size: 3,
	put: func(dst, c []uint8) {
		dst[0], dst[1], dst[2] = c[2], c[1], c[0]
	},
	get: func(c, src []uint8) {
		c[0], c[1], c[2], c[3] = src[2], src[1], src[0], 0xff
	},
}

var bgra8888 = layout{
	size: 4,
	put: func(dst, c []uint8) {
		dst[0], dst[1], dst[2], dst[3] = c[2], c[1], c[0], c[3]
	},
	get: func(c, src []uint8) {
		c[0], c[1], c[2], c[3] = src[2], src[1], src[0], src[3]
	},
}

// The X byte keeps whatever alpha the source had but is never read back.
var bgrx8888 = layout{
	size: 4,
	put:  bgra8888.put,
	get: func(c, src []uint8) {
		c[0], c[1], c[2], c[3] = src[2], src[1], src[0], 0xff
	},
}

func pack565(c []uint8) uint16 {
	return uint16(c[0]>>3)<<11 | uint16(c[1]>>2)<<5 | uint16(c[2]>>3)
}

// Expanding by replicating the high bits into the low bits makes encoding
// the decoded color produce the same value again.
func unpack565(c []uint8, v uint16) {
	r, g, b := uint8(v>>11&0x1f), uint8(v>>5&0x3f), uint8(v&0x1f)
	c[0] = r<<3 | r>>2
	c[1] = g<<2 | g>>4
	c[2] = b<<3 | b>>2
}

var rgb565 = layout{
	size: 2,
	put: func(dst, c []uint8) {
		binary.LittleEndian.PutUint16(dst, pack565(c))
	},
	get: func(c, src []uint8) {
		unpack565(c, binary.LittleEndian.Uint16(src))
		c[3] = 0xff
	},
}

func luminance(c []uint8) uint8 {
	l := (3*uint32(c[0]) + uint32(c[2]) + 4*uint32(c[1])) >> 3
	return uint8(l * uint32(c[3]) / 0xff)
}

var l8 = layout{
	size: 1,
	put: func(dst, c []uint8) {
		dst[0] = luminance(c)
	},
	get: func(c, src []uint8) {
		c[0], c[1], c[2], c[3] = src[0], src[0], src[0], 0xff
	},
}

func encodePlane(dst []byte, m *image.NRGBA, stride int, l layout) {
	for y := 0; y < m.Bounds().Dy(); y++ {
		src := row(m, y)
		out := dst[y*stride:]
		for x := 0; x < len(src)>>2; x++ {
			l.put(out[x*l.size:], src[x<<2:])
		}
	}
}

func decodePlane(m *image.NRGBA, src []byte, stride int, l layout) {
	for y := 0; y < m.Bounds().Dy(); y++ {
		dst := row(m, y)
		in := src[y*stride:]
		for x := 0; x < len(dst)>>2; x++ {
			l.get(dst[x<<2:], in[x*l.size:])
		}
	}
}

func direct(l layout) transcoder {
	return transcoder{
		encode: func(dst []byte, m *image.NRGBA, stride int, _ *Options) error {
			encodePlane(dst, m, stride, l)
			return nil
		},
		decode: func(m *image.NRGBA, src []byte, stride int) error {
			decodePlane(m, src, stride, l)
			return nil
		},
	}
}

// RGB565A8 is an RGB565 plane followed by an unpadded A8 plane.
func encodeRGB565A8(dst []byte, m *image.NRGBA, stride int, _ *Options) error {
	b := m.Bounds()
	encodePlane(dst, m, stride, rgb565)

	a := dst[stride*b.Dy():]
	for y := 0; y < b.Dy(); y++ {
		src := row(m, y)
		for x := 0; x < b.Dx(); x++ {
			a[y*b.Dx()+x] = src[x<<2+3]
		}
	}
	return nil
}

func decodeRGB565A8(m *image.NRGBA, src []byte, stride int) error {
	b := m.Bounds()
	decodePlane(m, src, stride, rgb565)

	a := src[stride*b.Dy():]
	for y := 0; y < b.Dy(); y++ {
		dst := row(m, y)
		for x := 0; x < b.Dx(); x++ {
			dst[x<<2+3] = a[y*b.Dx()+x]
		}
	}
	return nil
}
