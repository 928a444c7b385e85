/*
Package pixel converts between canonical 8-bit straight alpha RGBA images and
the packed pixel layouts of the formats in package colorformat.

Every encoded row occupies exactly stride bytes; bytes past the packed pixel
data are zero. Sub-byte formats pack the first pixel of a byte into its most
significant bits.

Indexed formats are written as the palette, encoded as a single ARGB8888 row,
followed by the index plane. RGB565A8 is written as an RGB565 plane followed
by an unpadded A8 plane of width*height bytes.
*/
package pixel

import (
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/palette"
	"golang.org/x/image/draw"
)

var (
	// ErrUnsupported is returned for formats that have no transcoder.
	ErrUnsupported = errors.New("pixel: color format not supported")
	// ErrInvalidStride is returned when a stride cannot hold a row.
	ErrInvalidStride = errors.New("pixel: invalid stride")
	// ErrShortBuffer is returned when there is not enough data to decode.
	ErrShortBuffer = errors.New("pixel: not enough image data")
)

// Options controls encoding.
type Options struct {
	// Palette is used by the indexed formats.
	Palette palette.Options
}

type transcoder struct {
	encode func(dst []byte, m *image.NRGBA, stride int, opts *Options) error
	decode func(dst *image.NRGBA, src []byte, stride int) error
}

var transcoders map[colorformat.ColorFormat]transcoder

func init() {
	transcoders = map[colorformat.ColorFormat]transcoder{
		colorformat.RGB888:   direct(bgr888),
		colorformat.ARGB8888: direct(bgra8888),
		colorformat.XRGB8888: direct(bgrx8888),
		colorformat.RGB565:   direct(rgb565),
		colorformat.L8:       direct(l8),
		colorformat.A8:       alpha(8),
		colorformat.A1:       alpha(1),
		colorformat.A2:       alpha(2),
		colorformat.A4:       alpha(4),
		colorformat.I1:       indexed(1),
		colorformat.I2:       indexed(2),
		colorformat.I4:       indexed(4),
		colorformat.I8:       indexed(8),
		colorformat.RGB565A8: {encodeRGB565A8, decodeRGB565A8},
	}
}

// Supported reports whether cf can be encoded and decoded.
func Supported(cf colorformat.ColorFormat) bool {
	_, ok := transcoders[cf]
	return ok
}

// PaletteBytes returns the size in bytes of the palette block preceding the
// index plane of an indexed format.
func PaletteBytes(cf colorformat.ColorFormat) int {
	return cf.PaletteSize() * colorformat.ARGB8888.ByteSize()
}

// Size returns the number of bytes needed to hold a width by height image
// in format cf with the given stride.
func Size(cf colorformat.ColorFormat, width, height, stride int) int {
	n := stride*height + PaletteBytes(cf)
	if cf == colorformat.RGB565A8 {
		n += width * height
	}
	return n
}

// NRGBA returns a copy of m as a canonical image with its origin at (0, 0).
func NRGBA(m image.Image) *image.NRGBA {
	b := m.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), m, b.Min, draw.Src)
	return dst
}

// Returns the pixels of row y of m, 4 bytes per pixel.
func row(m *image.NRGBA, y int) []uint8 {
	b := m.Bounds()
	i := m.PixOffset(b.Min.X, b.Min.Y+y)
	return m.Pix[i : i+b.Dx()*4]
}

// Encode converts m to format cf with rows stride bytes long.
func Encode(m *image.NRGBA, cf colorformat.ColorFormat, stride int, opts *Options) ([]byte, error) {
	t, ok := transcoders[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cf)
	}

	b := m.Bounds()
	if want := cf.Stride(b.Dx(), 1); stride < want {
		return nil, fmt.Errorf("%w: %d is less than %d", ErrInvalidStride, stride, want)
	}

	if opts == nil {
		opts = &Options{}
	}

	dst := make([]byte, Size(cf, b.Dx(), b.Dy(), stride))
	if err := t.encode(dst, m, stride, opts); err != nil {
		return nil, err
	}

	return dst, nil
}

// Decode converts src holding a width by height image in format cf with
// rows stride bytes long back to a canonical image. Any bytes beyond the
// size of the image are ignored.
func Decode(src []byte, cf colorformat.ColorFormat, width, height, stride int) (*image.NRGBA, error) {
	t, ok := transcoders[cf]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cf)
	}

	if want := cf.Stride(width, 1); stride < want {
		return nil, fmt.Errorf("%w: %d is less than %d", ErrInvalidStride, stride, want)
	}

	if n := Size(cf, width, height, stride); len(src) < n {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(src), n)
	}

	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := t.decode(m, src, stride); err != nil {
		return nil, err
	}

	return m, nil
}
