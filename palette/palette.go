/*
Package palette builds fixed size palettes for the indexed pixel formats and
maps every pixel of an image to a palette index.

Images with no more distinct colors than the palette can hold keep their
exact colors. Anything else is reduced with a median cut quantizer and
optionally dithered with Floyd-Steinberg error diffusion.

Pixels are mapped to indices by drawing into an *image.Paletted, which
compares premultiplied colors. Fully transparent colors are therefore
indistinguishable and all map to the first fully transparent palette entry,
even when the palette holds several of them with different color channels.
*/
package palette

import (
	"errors"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Quality selects the speed versus quality trade off of the quantizer.
type Quality int

const (
	// Best averages every color in a bucket to pick its representative.
	Best Quality = iota
	// Fast uses the most frequent color of a bucket.
	Fast
)

// Options controls palette generation.
type Options struct {
	Dither  bool
	Quality Quality
}

// ErrInvalidDepth is returned for palette depths other than 1, 2, 4 or 8 bits.
var ErrInvalidDepth = errors.New("palette: invalid depth")

var filler = color.NRGBA{0, 0, 0, 0}

// Size returns the number of palette entries for bpp bits per index.
func Size(bpp int) (int, error) {
	switch bpp {
	case 1, 2, 4, 8:
		return 1 << uint(bpp), nil
	}
	return 0, ErrInvalidDepth
}

// Distinct colors in first-occurrence order, giving up once more than max
// have been seen.
func uniqueColors(m *image.NRGBA, limit int) (color.Palette, bool) {
	b := m.Bounds()
	seen := make(map[color.NRGBA]struct{}, limit)
	p := make(color.Palette, 0, limit)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(p) == limit {
				return nil, false
			}
			seen[c] = struct{}{}
			p = append(p, c)
		}
	}
	return p, true
}

func pad(p color.Palette, n int) color.Palette {
	for len(p) < n {
		p = append(p, filler)
	}
	return p
}

// The quantizer works on premultiplied colors, the indexed formats store
// straight alpha.
func straight(p color.Palette) color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = color.NRGBAModel.Convert(c)
	}
	return out
}

// Generate returns a palette of exactly 2^bpp colors for m.
func Generate(m *image.NRGBA, bpp int, opts Options) (color.Palette, error) {
	n, err := Size(bpp)
	if err != nil {
		return nil, err
	}

	if p, ok := uniqueColors(m, n); ok {
		return pad(p, n), nil
	}

	q := quantize.MedianCutQuantizer{
		Aggregation: quantize.Mean,
	}
	if opts.Quality == Fast {
		q.Aggregation = quantize.Mode
	}

	return pad(straight(q.Quantize(make(color.Palette, 0, n), m)), n), nil
}

// Quantize reduces m to a paletted image using a palette of exactly 2^bpp
// colors. m is never modified; dithering happens while drawing into the
// returned image.
func Quantize(m *image.NRGBA, bpp int, opts Options) (*image.Paletted, error) {
	p, err := Generate(m, bpp, opts)
	if err != nil {
		return nil, err
	}

	b := m.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())
	pm := image.NewPaletted(r, p)

	if opts.Dither {
		draw.FloydSteinberg.Draw(pm, r, m, b.Min)
	} else {
		draw.Draw(pm, r, m, b.Min, draw.Src)
	}

	return pm, nil
}
