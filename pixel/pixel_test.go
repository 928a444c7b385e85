package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sizes = []int{1, 2, 3, 4, 17, 256}

func makeTestImage(w, h int, opaque bool) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: uint8(x*5 + y*3),
			}
			if opaque {
				c.A = 0xff
			}
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func TestRoundTripLossless(t *testing.T) {
	tables := []struct {
		cf     colorformat.ColorFormat
		opaque bool
	}{
		{colorformat.ARGB8888, false},
		{colorformat.XRGB8888, true},
		{colorformat.RGB888, true},
	}

	for _, table := range tables {
		for _, w := range sizes {
			for _, h := range sizes {
				for _, align := range []int{1, 4} {
					t.Run(fmt.Sprintf("%s/%dx%d/%d", table.cf, w, h, align), func(t *testing.T) {
						m := makeTestImage(w, h, table.opaque)
						stride := table.cf.Stride(w, align)

						b, err := Encode(m, table.cf, stride, nil)
						require.NoError(t, err)
						assert.Len(t, b, stride*h)

						got, err := Decode(b, table.cf, w, h, stride)
						require.NoError(t, err)
						assert.Equal(t, m.Pix, got.Pix)
					})
				}
			}
		}
	}
}

func TestRoundTripRGB565(t *testing.T) {
	for _, cf := range []colorformat.ColorFormat{colorformat.RGB565, colorformat.RGB565A8} {
		for _, w := range sizes {
			for _, h := range []int{1, 3, 17} {
				m := makeTestImage(w, h, false)
				stride := cf.Stride(w, 4)

				b, err := Encode(m, cf, stride, nil)
				require.NoError(t, err)

				got, err := Decode(b, cf, w, h, stride)
				require.NoError(t, err)

				again, err := Encode(got, cf, stride, nil)
				require.NoError(t, err)
				assert.Equal(t, b, again, "%s %dx%d", cf, w, h)

				for i := 0; i < len(m.Pix); i += 4 {
					assert.Equal(t, m.Pix[i]&0xf8, got.Pix[i]&0xf8)
					assert.Equal(t, m.Pix[i+1]&0xfc, got.Pix[i+1]&0xfc)
					assert.Equal(t, m.Pix[i+2]&0xf8, got.Pix[i+2]&0xf8)
					if cf == colorformat.RGB565A8 {
						assert.Equal(t, m.Pix[i+3], got.Pix[i+3])
					} else {
						assert.Equal(t, uint8(0xff), got.Pix[i+3])
					}
				}
			}
		}
	}
}

func TestRGB565Layout(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0xff, 0x00, 0x00, 0xff})
	m.SetNRGBA(1, 0, color.NRGBA{0x00, 0x00, 0xff, 0x80})

	b, err := Encode(m, colorformat.RGB565, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xf8, 0x1f, 0x00, 0, 0, 0, 0}, b)

	b, err = Encode(m, colorformat.RGB565A8, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xf8, 0x1f, 0x00, 0xff, 0x80}, b)
}

func TestRGB565A8AlphaPlane(t *testing.T) {
	m := makeTestImage(3, 2, false)
	stride := 8

	b, err := Encode(m, colorformat.RGB565A8, stride, nil)
	require.NoError(t, err)
	require.Len(t, b, stride*2+3*2)

	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, m.NRGBAAt(x, y).A, b[stride*2+y*3+x])
		}
		// Padding past the packed row
		assert.Equal(t, []byte{0, 0}, b[y*stride+6:(y+1)*stride])
	}
}

func TestByteOrder(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0x11, 0x22, 0x33, 0x44})

	tables := map[colorformat.ColorFormat][]byte{
		colorformat.RGB888:   {0x33, 0x22, 0x11},
		colorformat.ARGB8888: {0x33, 0x22, 0x11, 0x44},
		colorformat.XRGB8888: {0x33, 0x22, 0x11, 0x44},
		colorformat.A8:       {0x44},
		colorformat.L8:       {uint8(((3*0x11 + 0x33 + 4*0x22) >> 3) * 0x44 / 0xff)},
	}

	for cf, want := range tables {
		b, err := Encode(m, cf, cf.Stride(1, 1), nil)
		require.NoError(t, err)
		assert.Equal(t, want, b, cf.String())
	}

	got, err := Decode([]byte{0x33, 0x22, 0x11, 0x44}, colorformat.XRGB8888, 1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x11, 0x22, 0x33, 0xff}, got.NRGBAAt(0, 0))

	got, err = Decode([]byte{0x80}, colorformat.L8, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x80, 0x80, 0x80, 0xff}, got.NRGBAAt(0, 0))
}

func TestAlphaPacking(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 5, 1))
	for x, a := range []uint8{0xff, 0x00, 0x80, 0x40, 0xc0} {
		m.SetNRGBA(x, 0, color.NRGBA{0, 0, 0, a})
	}

	tables := []struct {
		cf   colorformat.ColorFormat
		want []byte
	}{
		{colorformat.A1, []byte{0xa8}},             // 1 0 1 0 1
		{colorformat.A2, []byte{0xc9, 0xc0}},       // 11 00 10 01 | 11
		{colorformat.A4, []byte{0xf0, 0x84, 0xc0}}, // f 0 8 4 | c
		{colorformat.A8, []byte{0xff, 0x00, 0x80, 0x40, 0xc0}},
	}

	for _, table := range tables {
		b, err := Encode(m, table.cf, table.cf.Stride(5, 1), nil)
		require.NoError(t, err)
		assert.Equal(t, table.want, b, table.cf.String())

		got, err := Decode(b, table.cf, 5, 1, table.cf.Stride(5, 1))
		require.NoError(t, err)
		for x := 0; x < 5; x++ {
			c := got.NRGBAAt(x, 0)
			assert.Equal(t, uint8(0), c.R)
			bpp := uint(table.cf.BitsPerPixel())
			assert.Equal(t, m.NRGBAAt(x, 0).A>>(8-bpp), c.A>>(8-bpp))
		}
	}
}

func TestAlphaRoundTripSizes(t *testing.T) {
	for _, cf := range []colorformat.ColorFormat{colorformat.A1, colorformat.A2, colorformat.A4, colorformat.A8} {
		for _, w := range sizes {
			for _, h := range []int{1, 2, 17} {
				m := makeTestImage(w, h, false)
				stride := cf.Stride(w, 4)

				b, err := Encode(m, cf, stride, nil)
				require.NoError(t, err)
				require.Len(t, b, stride*h)

				got, err := Decode(b, cf, w, h, stride)
				require.NoError(t, err)

				again, err := Encode(got, cf, stride, nil)
				require.NoError(t, err)
				assert.Equal(t, b, again, "%s %dx%d", cf, w, h)
			}
		}
	}
}

func TestIndexedTwoColors(t *testing.T) {
	c1 := color.NRGBA{0x10, 0x80, 0xf0, 0xff}
	c2 := color.NRGBA{0xf0, 0x20, 0x00, 0x7f}

	for _, cf := range []colorformat.ColorFormat{colorformat.I1, colorformat.I2, colorformat.I4, colorformat.I8} {
		for _, w := range []int{1, 3, 17} {
			m := image.NewNRGBA(image.Rect(0, 0, w, 5))
			for y := 0; y < 5; y++ {
				for x := 0; x < w; x++ {
					if (x*y)%2 == 0 {
						m.SetNRGBA(x, y, c1)
					} else {
						m.SetNRGBA(x, y, c2)
					}
				}
			}

			stride := cf.Stride(w, 1)
			b, err := Encode(m, cf, stride, nil)
			require.NoError(t, err)
			require.Len(t, b, PaletteBytes(cf)+stride*5)

			got, err := Decode(b, cf, w, 5, stride)
			require.NoError(t, err)
			assert.Equal(t, m.Pix, got.Pix, "%s width=%d", cf, w)
		}
	}
}

func TestIndexedPaletteBlock(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0x11, 0x22, 0x33, 0xff})
	m.SetNRGBA(1, 0, color.NRGBA{0x44, 0x55, 0x66, 0xff})

	b, err := Encode(m, colorformat.I1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x33, 0x22, 0x11, 0xff,
		0x66, 0x55, 0x44, 0xff,
		0x40, // 0 then 1
	}, b)
}

func TestIndexedQuantized(t *testing.T) {
	m := makeTestImage(17, 17, true)

	for _, cf := range []colorformat.ColorFormat{colorformat.I2, colorformat.I4, colorformat.I8} {
		for _, dither := range []bool{false, true} {
			stride := cf.Stride(17, 4)
			b, err := Encode(m, cf, stride, &Options{Palette: palette.Options{Dither: dither}})
			require.NoError(t, err)

			got, err := Decode(b, cf, 17, 17, stride)
			require.NoError(t, err)

			p, err := decodePalette(b, cf.PaletteSize())
			require.NoError(t, err)
			for y := 0; y < 17; y++ {
				for x := 0; x < 17; x++ {
					assert.Contains(t, p, color.Color(got.NRGBAAt(x, y)))
				}
			}
		}
	}
}

func TestUnsupported(t *testing.T) {
	m := makeTestImage(2, 2, true)

	for _, cf := range []colorformat.ColorFormat{colorformat.RAW, colorformat.RAWAlpha, colorformat.ARGB8565, colorformat.Unknown} {
		assert.False(t, Supported(cf))

		_, err := Encode(m, cf, 16, nil)
		assert.True(t, errors.Is(err, ErrUnsupported), cf.String())

		_, err = Decode(make([]byte, 64), cf, 2, 2, 16)
		assert.True(t, errors.Is(err, ErrUnsupported), cf.String())
	}
}

func TestInvalidStride(t *testing.T) {
	_, err := Encode(makeTestImage(3, 3, true), colorformat.RGB888, 8, nil)
	assert.True(t, errors.Is(err, ErrInvalidStride))

	_, err = Decode(make([]byte, 64), colorformat.RGB565, 3, 3, 4)
	assert.True(t, errors.Is(err, ErrInvalidStride))
}

func TestShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, 17), colorformat.RGB565, 3, 3, 6)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	_, err = Decode(make([]byte, 8), colorformat.I1, 8, 1, 1)
	assert.True(t, errors.Is(err, ErrShortBuffer))
}

func TestSubImage(t *testing.T) {
	m := makeTestImage(8, 8, false).SubImage(image.Rect(2, 3, 6, 5)).(*image.NRGBA)

	b, err := Encode(m, colorformat.ARGB8888, 16, nil)
	require.NoError(t, err)

	got, err := Decode(b, colorformat.ARGB8888, 4, 2, 16)
	require.NoError(t, err)
	assert.Equal(t, NRGBA(m).Pix, got.Pix)
	assert.Equal(t, m.NRGBAAt(2, 3), got.NRGBAAt(0, 0))
}

func TestSize(t *testing.T) {
	assert.Equal(t, 20, Size(colorformat.RGB565, 3, 2, 10))
	assert.Equal(t, 26, Size(colorformat.RGB565A8, 3, 2, 10))
	assert.Equal(t, 8+4, Size(colorformat.I1, 8, 4, 1))
	assert.Equal(t, 1024+2, Size(colorformat.I8, 2, 1, 2))
}
