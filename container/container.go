/*
Package container implements the LVGL binary image container.

A file is a header followed by the pixel payload. Version 8 files use a
packed 4 byte header holding the color format and 11-bit dimensions. Version
9 files start with the magic byte 0x19 and a 12 byte header that adds flags
and an explicit stride. When the compressed flag is set the payload is
preceded by a 12 byte compression header holding the method and the
compressed and decompressed sizes.

There is no length prefix; the payload runs to the end of the file.
*/
package container

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/ioutil"
	"log"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/palette"
	"github.com/bodgit/lvimg/pixel"
)

var (
	// ErrUnknownHeader is returned when a header cannot be classified.
	ErrUnknownHeader = errors.New("container: unknown header")
	// ErrUnsupportedCompression is returned for compression methods that
	// are recognised but cannot be handled.
	ErrUnsupportedCompression = errors.New("container: unsupported compression method")
	// ErrTooLarge is returned when dimensions do not fit the header.
	ErrTooLarge = errors.New("container: image too large for header")
	// ErrCorrupt is returned when a compressed payload is damaged.
	ErrCorrupt = errors.New("container: corrupt data")
	// ErrInvalidAlign is returned for stride alignments that are not a
	// power of two.
	ErrInvalidAlign = errors.New("container: invalid stride alignment")
	// ErrInvalidVersion is returned when asked to write an unknown version.
	ErrInvalidVersion = errors.New("container: invalid version")
)

// Options controls encoding.
type Options struct {
	Format colorformat.ColorFormat
	// Align is the stride alignment in bytes, a power of two. Version 8
	// always packs rows to 1 byte but still requires a valid value.
	Align       int
	Dither      bool
	Quality     palette.Quality
	Version     Version
	Compression Compression
	// Premultiplied stores color premultiplied by alpha for the formats
	// that support it.
	Premultiplied bool
}

// DefaultOptions are used when Encode is passed nil options.
var DefaultOptions = Options{
	Format:  colorformat.ARGB8888,
	Align:   1,
	Version: Version9,
}

// Descriptor is a parsed container; a header and its decompressed payload.
type Descriptor struct {
	Header Header
	Data   []byte
}

// Codec reads and writes containers, reporting integrity problems to its
// logger.
type Codec struct {
	logger *log.Logger
}

// New returns a Codec that logs to logger. A nil logger discards messages.
func New(logger *log.Logger) *Codec {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Codec{
		logger: logger,
	}
}

var defaultCodec = New(nil)

func canPremultiply(cf colorformat.ColorFormat) bool {
	return cf == colorformat.ARGB8888 || cf == colorformat.RGB565A8
}

func premultiply(m *image.NRGBA) {
	for i := 0; i < len(m.Pix); i += 4 {
		a := uint32(m.Pix[i+3])
		for j := 0; j < 3; j++ {
			m.Pix[i+j] = uint8((uint32(m.Pix[i+j])*a + 0x7f) / 0xff)
		}
	}
}

func unpremultiply(m *image.NRGBA) {
	for i := 0; i < len(m.Pix); i += 4 {
		a := uint32(m.Pix[i+3])
		if a == 0 {
			continue
		}
		for j := 0; j < 3; j++ {
			v := (uint32(m.Pix[i+j])*0xff + a/2) / a
			if v > 0xff {
				v = 0xff
			}
			m.Pix[i+j] = uint8(v)
		}
	}
}

// ExpectedSize returns the uncompressed payload size described by g.
func ExpectedSize(g Geometry) int {
	return pixel.Size(g.Format, g.Width, g.Height, g.Stride)
}

// Encode converts m and wraps it in a container.
func (c *Codec) Encode(m image.Image, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &DefaultOptions
	}

	if !colorformat.ValidAlign(opts.Align) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlign, opts.Align)
	}

	if !pixel.Supported(opts.Format) {
		return nil, fmt.Errorf("%w: %s", pixel.ErrUnsupported, opts.Format)
	}

	// Work on a private copy, premultiplication happens in place
	src := pixel.NRGBA(m)
	b := src.Bounds()

	var header Header
	var flags Flags
	stride := opts.Format.Stride(b.Dx(), opts.Align)

	switch opts.Version {
	case Version8:
		if opts.Compression != CompressNone {
			return nil, fmt.Errorf("%w: %s with v8 header", ErrUnsupportedCompression, opts.Compression)
		}
		stride = opts.Format.Stride(b.Dx(), 1)
		header = HeaderV8{Format: opts.Format, Width: b.Dx(), Height: b.Dy()}
	case Version9:
		if opts.Premultiplied && canPremultiply(opts.Format) {
			premultiply(src)
			flags |= FlagPremultiplied
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidVersion, opts.Version)
	}

	data, err := pixel.Encode(src, opts.Format, stride, &pixel.Options{
		Palette: palette.Options{
			Dither:  opts.Dither,
			Quality: opts.Quality,
		},
	})
	if err != nil {
		return nil, err
	}

	if opts.Version == Version9 && opts.Compression != CompressNone {
		compressed, err := compress(opts.Compression, opts.Format, data)
		if err != nil {
			return nil, err
		}

		if len(compressed)+compressedHeaderLen < len(data) {
			ch := compressedHeader{
				method:           opts.Compression,
				compressedSize:   uint32(len(compressed)),
				decompressedSize: uint32(len(data)),
			}
			data = append(ch.marshal(), compressed...)
			flags |= FlagCompressed
		} else {
			c.logger.Printf("%s compression saves nothing, storing %d bytes uncompressed\n", opts.Compression, len(data))
		}
	}

	if opts.Version == Version9 {
		header = HeaderV9{
			Format: opts.Format,
			Flags:  flags,
			Width:  b.Dx(),
			Height: b.Dy(),
			Stride: stride,
		}
	}

	hb, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return append(hb, data...), nil
}

// Parse splits b into a header and a decompressed payload. Bytes that do not
// start with a valid header give a Descriptor with an Unknown header and no
// data. A payload of the wrong size is logged, not rejected.
func (c *Codec) Parse(b []byte) (*Descriptor, error) {
	h := DecodeHeader(b)
	if h.Version() == VersionUnknown {
		c.logger.Println("unrecognised header, treating as empty image")
		return &Descriptor{Header: h}, nil
	}

	g := h.Geometry()
	if h9, ok := h.(HeaderV9); ok && h9.Stride == 0 {
		c.logger.Printf("header stride is zero, using %d\n", g.Stride)
	}

	data := b[h.Len():]
	expected := ExpectedSize(g)

	if g.Flags&FlagCompressed != 0 {
		ch, err := readCompressedHeader(data)
		if err != nil {
			return nil, err
		}
		data = data[compressedHeaderLen:]

		if n := int(ch.compressedSize); n > len(data) {
			return nil, fmt.Errorf("%w: compressed size %d exceeds %d remaining bytes", ErrCorrupt, n, len(data))
		} else if n < len(data) {
			c.logger.Printf("ignoring %d bytes after compressed data\n", len(data)-n)
			data = data[:n]
		}

		data, err = decompress(ch, g.Format, data)
		if err != nil {
			return nil, err
		}

		if len(data) != int(ch.decompressedSize) {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, len(data), ch.decompressedSize)
		}
	}

	if len(data) != expected {
		c.logger.Printf("data size mismatch, expected %d bytes, got %d\n", expected, len(data))
	}

	return &Descriptor{
		Header: h,
		Data:   data,
	}, nil
}

// maxPadding bounds how many missing payload bytes are made up with zeroes.
const maxPadding = 16 << 20

// Image decodes the payload to a canonical image. An Unknown header yields
// an empty image. A short payload is padded with zeroes unless the shortfall
// exceeds 16 MiB, which is reported as ErrCorrupt.
func (d *Descriptor) Image() (*image.NRGBA, error) {
	if d.Header.Version() == VersionUnknown {
		return image.NewNRGBA(image.Rectangle{}), nil
	}

	g := d.Header.Geometry()

	data := d.Data
	if n := ExpectedSize(g); len(data) < n {
		if n-len(data) > maxPadding {
			return nil, fmt.Errorf("%w: payload is %d bytes, header describes %d", ErrCorrupt, len(data), n)
		}
		data = append(append(make([]byte, 0, n), data...), make([]byte, n-len(data))...)
	}

	m, err := pixel.Decode(data, g.Format, g.Width, g.Height, g.Stride)
	if err != nil {
		return nil, err
	}

	if g.Flags&FlagPremultiplied != 0 && canPremultiply(g.Format) {
		unpremultiply(m)
	}

	return m, nil
}

// Decode parses b and returns the canonical image.
func (c *Codec) Decode(b []byte) (*image.NRGBA, error) {
	d, err := c.Parse(b)
	if err != nil {
		return nil, err
	}
	return d.Image()
}

// CanDecode reports whether b starts with a valid header.
func CanDecode(b []byte) bool {
	return DecodeHeader(b).Version() != VersionUnknown
}

// Info describes a container without decoding its pixels.
type Info struct {
	Width      int
	Height     int
	ByteSize   int
	FormatName string
	Fields     map[string]string
}

// Info returns a description of the container in b.
func (c *Codec) Info(b []byte) (Info, error) {
	h := DecodeHeader(b)
	g := h.Geometry()

	info := Info{
		Width:    g.Width,
		Height:   g.Height,
		ByteSize: len(b),
		Fields: map[string]string{
			"version": h.Version().String(),
		},
	}

	if h.Version() == VersionUnknown {
		info.FormatName = colorformat.Unknown.String()
		return info, nil
	}

	info.FormatName = g.Format.String()
	info.Fields["color_format"] = g.Format.String()
	info.Fields["stride"] = fmt.Sprint(g.Stride)
	info.Fields["data_size"] = fmt.Sprint(len(b) - h.Len())
	info.Fields["expected_size"] = fmt.Sprint(ExpectedSize(g))

	if h.Version() == Version9 {
		info.Fields["flags"] = fmt.Sprintf("%#04x", uint16(g.Flags))
		info.Fields["premultiplied"] = fmt.Sprint(g.Flags&FlagPremultiplied != 0)
		info.Fields["compression"] = CompressNone.String()
		if g.Flags&FlagCompressed != 0 {
			ch, err := readCompressedHeader(b[h.Len():])
			if err != nil {
				return info, err
			}
			info.Fields["compression"] = ch.method.String()
			info.Fields["compressed_size"] = fmt.Sprint(ch.compressedSize)
			info.Fields["decompressed_size"] = fmt.Sprint(ch.decompressedSize)
		}
	}

	if g.Format.IsIndexed() {
		info.Fields["palette_size"] = fmt.Sprint(g.Format.PaletteSize())
	}

	return info, nil
}

// Encode writes m to w as a container.
func Encode(w io.Writer, m image.Image, opts *Options) error {
	b, err := defaultCodec.Encode(m, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads a container from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return defaultCodec.Decode(b)
}

// DecodeConfig returns the color model and dimensions of a container
// without decoding the pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var b [headerV9Len]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return image.Config{}, err
	}

	h := DecodeHeader(b[:n])
	if h.Version() == VersionUnknown {
		return image.Config{}, ErrUnknownHeader
	}

	g := h.Geometry()
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      g.Width,
		Height:     g.Height,
	}, nil
}

func init() {
	image.RegisterFormat("lvbin", string([]byte{magicV9}), Decode, DecodeConfig)
}
