package pixel

import (
	"image"
	"image/color"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/palette"
)

// Stores v in the bpp bit wide slot of pixel i, first pixel in the most
// significant bits.
func pack(dst []byte, i, bpp int, v uint8) {
	ppb := 8 / bpp
	dst[i/ppb] |= v << uint((ppb-1-i%ppb)*bpp)
}

func unpack(src []byte, i, bpp int) uint8 {
	ppb := 8 / bpp
	return src[i/ppb] >> uint((ppb-1-i%ppb)*bpp) & (uint8(1)<<uint(bpp) - 1)
}

func alpha(bpp int) transcoder {
	top := uint32(1)<<uint(bpp) - 1

	return transcoder{
		encode: func(dst []byte, m *image.NRGBA, stride int, _ *Options) error {
			for y := 0; y < m.Bounds().Dy(); y++ {
				src := row(m, y)
				out := dst[y*stride : (y+1)*stride]
				for x := 0; x < len(src)>>2; x++ {
					pack(out, x, bpp, src[x<<2+3]>>uint(8-bpp))
				}
			}
			return nil
		},
		decode: func(m *image.NRGBA, src []byte, stride int) error {
			for y := 0; y < m.Bounds().Dy(); y++ {
				dst := row(m, y)
				in := src[y*stride : (y+1)*stride]
				for x := 0; x < len(dst)>>2; x++ {
					dst[x<<2+3] = uint8(uint32(unpack(in, x, bpp)) * 0xff / top)
				}
			}
			return nil
		},
	}
}

func encodePalette(dst []byte, p color.Palette) error {
	pm := image.NewNRGBA(image.Rect(0, 0, len(p), 1))
	for i, c := range p {
		pm.Set(i, 0, c)
	}

	b, err := Encode(pm, colorformat.ARGB8888, colorformat.ARGB8888.Stride(len(p), 1), nil)
	if err != nil {
		return err
	}
	copy(dst, b)

	return nil
}

func decodePalette(src []byte, n int) (color.Palette, error) {
	pm, err := Decode(src, colorformat.ARGB8888, n, 1, colorformat.ARGB8888.Stride(n, 1))
	if err != nil {
		return nil, err
	}

	p := make(color.Palette, n)
	for i := range p {
		p[i] = pm.NRGBAAt(i, 0)
	}

	return p, nil
}

func indexed(bpp int) transcoder {
	n := 1 << uint(bpp)

	return transcoder{
		encode: func(dst []byte, m *image.NRGBA, stride int, opts *Options) error {
			pm, err := palette.Quantize(m, bpp, opts.Palette)
			if err != nil {
				return err
			}

			if err := encodePalette(dst, pm.Palette); err != nil {
				return err
			}

			plane := dst[n*colorformat.ARGB8888.ByteSize():]
			for y := 0; y < pm.Bounds().Dy(); y++ {
				out := plane[y*stride : (y+1)*stride]
				for x := 0; x < pm.Bounds().Dx(); x++ {
					pack(out, x, bpp, pm.ColorIndexAt(x, y))
				}
			}
			return nil
		},
		decode: func(m *image.NRGBA, src []byte, stride int) error {
			p, err := decodePalette(src, n)
			if err != nil {
				return err
			}

			plane := src[n*colorformat.ARGB8888.ByteSize():]
			for y := 0; y < m.Bounds().Dy(); y++ {
				in := plane[y*stride : (y+1)*stride]
				for x := 0; x < m.Bounds().Dx(); x++ {
					m.Set(x, y, p[unpack(in, x, bpp)])
				}
			}
			return nil
		},
	}
}
