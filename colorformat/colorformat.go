/*
Package colorformat describes the pixel formats understood by embedded GUI
toolkits such as LVGL.

Each format is identified by the single byte tag that is stored in image
headers. The package only provides static attributes; it holds no state.
*/
package colorformat

import (
	"errors"
	"fmt"
	"strings"
)

// ColorFormat is the on-disk identifier of a pixel format.
type ColorFormat uint8

// Known color formats, numbered as they appear in image headers.
const (
	Unknown  ColorFormat = 0x00
	RAW      ColorFormat = 0x01
	RAWAlpha ColorFormat = 0x02
	L8       ColorFormat = 0x06
	I1       ColorFormat = 0x07
	I2       ColorFormat = 0x08
	I4       ColorFormat = 0x09
	I8       ColorFormat = 0x0a
	A1       ColorFormat = 0x0b
	A2       ColorFormat = 0x0c
	A4       ColorFormat = 0x0d
	A8       ColorFormat = 0x0e
	RGB888   ColorFormat = 0x0f
	ARGB8888 ColorFormat = 0x10
	XRGB8888 ColorFormat = 0x11
	RGB565   ColorFormat = 0x12
	ARGB8565 ColorFormat = 0x13
	RGB565A8 ColorFormat = 0x14
)

// ErrUnknownFormat is returned when a name or tag does not match any format.
var ErrUnknownFormat = errors.New("colorformat: unknown color format")

type attributes struct {
	name string
	bpp  int
}

// RGB565A8 is a two plane format; only the 16-bit color plane is counted in
// its bits per pixel, the trailing A8 plane is sized separately.
var table = map[ColorFormat]attributes{
	RAW:      {"RAW", 0},
	RAWAlpha: {"RAW_ALPHA", 0},
	L8:       {"L8", 8},
	I1:       {"I1", 1},
	I2:       {"I2", 2},
	I4:       {"I4", 4},
	I8:       {"I8", 8},
	A1:       {"A1", 1},
	A2:       {"A2", 2},
	A4:       {"A4", 4},
	A8:       {"A8", 8},
	RGB888:   {"RGB888", 24},
	ARGB8888: {"ARGB8888", 32},
	XRGB8888: {"XRGB8888", 32},
	RGB565:   {"RGB565", 16},
	ARGB8565: {"ARGB8565", 24},
	RGB565A8: {"RGB565A8", 16},
}

// Formats returns every known color format ordered by tag.
func Formats() []ColorFormat {
	formats := make([]ColorFormat, 0, len(table))
	for cf := RAW; cf <= RGB565A8; cf++ {
		if _, ok := table[cf]; ok {
			formats = append(formats, cf)
		}
	}
	return formats
}

// Valid reports whether cf is a known color format.
func (cf ColorFormat) Valid() bool {
	_, ok := table[cf]
	return ok
}

func (cf ColorFormat) String() string {
	if a, ok := table[cf]; ok {
		return a.name
	}
	return fmt.Sprintf("ColorFormat(0x%02x)", uint8(cf))
}

// BitsPerPixel returns the number of bits used by a single pixel.
func (cf ColorFormat) BitsPerPixel() int {
	return table[cf].bpp
}

// ByteSize returns the number of whole bytes needed to hold a single pixel.
func (cf ColorFormat) ByteSize() int {
	return (cf.BitsPerPixel() + 7) >> 3
}

// IsIndexed reports whether pixels are palette indices.
func (cf ColorFormat) IsIndexed() bool {
	return cf >= I1 && cf <= I8
}

// IsAlphaOnly reports whether pixels carry only an alpha value.
func (cf ColorFormat) IsAlphaOnly() bool {
	return cf >= A1 && cf <= A8
}

// PaletteSize returns the number of palette entries of an indexed format,
// otherwise zero.
func (cf ColorFormat) PaletteSize() int {
	if !cf.IsIndexed() {
		return 0
	}
	return 1 << uint(cf.BitsPerPixel())
}

// ValidAlign reports whether align is usable as a stride alignment, that is
// a power of two of at least one.
func ValidAlign(align int) bool {
	return align > 0 && align&(align-1) == 0
}

// Stride returns the length in bytes of a row of width pixels rounded up to
// a multiple of align. It panics if align is not a power of two.
func (cf ColorFormat) Stride(width, align int) int {
	if !ValidAlign(align) {
		panic(fmt.Sprintf("colorformat: invalid stride alignment %d", align))
	}
	stride := (width*cf.BitsPerPixel() + 7) >> 3
	return (stride + align - 1) &^ (align - 1)
}

// Parse returns the color format with the given name, ignoring case.
func Parse(name string) (ColorFormat, error) {
	for cf, a := range table {
		if strings.EqualFold(a.name, name) {
			return cf, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}
