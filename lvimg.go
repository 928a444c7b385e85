/*
Package lvimg converts images between common file formats and the pixel
formats and binary containers used by the LVGL embedded graphics library.

Input formats are detected by probing a fixed list of codecs in order; the
LVGL binary container is tried before the common raster formats.
*/
package lvimg

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/lvimg/container"
	"github.com/bodgit/lvimg/raster"
)

var (
	// ErrNoDecoder is returned when no codec recognises the input.
	ErrNoDecoder = errors.New("lvimg: no decoder found")
	// ErrSizeMismatch is returned when comparing images of different sizes.
	ErrSizeMismatch = errors.New("lvimg: image sizes differ")
)

// Info describes an encoded image.
type Info = container.Info

// Codec converts one family of file formats to and from canonical images.
type Codec interface {
	Name() string
	CanDecode(b []byte) bool
	Decode(b []byte) (*image.NRGBA, error)
	Encode(m *image.NRGBA, opts *Options) ([]byte, error)
	Info(b []byte) (Info, error)
}

// Options controls conversion.
type Options struct {
	// Output is "bin" for the LVGL container or the name of a raster format.
	Output string
	// Bin is used when writing the LVGL container.
	Bin container.Options
}

// BinCodec handles the LVGL binary container.
type BinCodec struct {
	c *container.Codec
}

// Name returns "bin".
func (BinCodec) Name() string { return "bin" }

// CanDecode reports whether b starts with a valid container header.
func (BinCodec) CanDecode(b []byte) bool { return container.CanDecode(b) }

// Decode returns the image held in the container b.
func (bc BinCodec) Decode(b []byte) (*image.NRGBA, error) { return bc.c.Decode(b) }

// Encode wraps m in a container.
func (bc BinCodec) Encode(m *image.NRGBA, opts *Options) ([]byte, error) {
	return bc.c.Encode(m, &opts.Bin)
}

// Info describes the container b.
func (bc BinCodec) Info(b []byte) (Info, error) { return bc.c.Info(b) }

// RasterCodec handles common formats such as PNG and JPEG.
type RasterCodec struct{}

// Name returns "raster".
func (RasterCodec) Name() string { return "raster" }

// CanDecode reports whether b is a recognised raster format.
func (RasterCodec) CanDecode(b []byte) bool { return raster.CanDecode(b) }

// Decode returns b as a canonical image.
func (RasterCodec) Decode(b []byte) (*image.NRGBA, error) {
	m, _, err := raster.Decode(b)
	return m, err
}

// Encode writes m in the raster format named by opts.Output.
func (RasterCodec) Encode(m *image.NRGBA, opts *Options) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := raster.Encode(buf, m, opts.Output); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Info describes the raster image b.
func (RasterCodec) Info(b []byte) (Info, error) {
	cfg, name, err := raster.DecodeConfig(b)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Width:      cfg.Width,
		Height:     cfg.Height,
		ByteSize:   len(b),
		FormatName: name,
		Fields: map[string]string{
			"color_model": fmt.Sprintf("%T", cfg.ColorModel),
		},
	}, nil
}

// Detect returns the first codec in codecs that accepts b.
func Detect(codecs []Codec, b []byte) (Codec, error) {
	for _, c := range codecs {
		if c.CanDecode(b) {
			return c, nil
		}
	}
	return nil, ErrNoDecoder
}
