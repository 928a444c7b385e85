package container

import (
	"errors"
	"testing"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderV9RoundTrip(t *testing.T) {
	h := HeaderV9{
		Format: colorformat.RGB565,
		Width:  100,
		Height: 50,
		Stride: 200,
	}

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 12)
	assert.Equal(t, byte(0x19), b[0])
	assert.Equal(t, []byte{0x19, 0x12, 0x00, 0x00, 100, 0, 50, 0, 200, 0, 0, 0}, b)

	got := DecodeHeader(b)
	assert.Equal(t, Version9, got.Version())
	assert.Equal(t, h, got)
}

func TestHeaderV9Flags(t *testing.T) {
	h := HeaderV9{
		Format: colorformat.ARGB8888,
		Flags:  FlagCompressed | FlagPremultiplied | FlagUser8,
		Width:  65535,
		Height: 1,
		Stride: 65535,
	}

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, h, DecodeHeader(b))
}

func TestHeaderV9StrideZero(t *testing.T) {
	b := []byte{0x19, byte(colorformat.RGB888), 0, 0, 10, 0, 2, 0, 0, 0, 0, 0}

	h := DecodeHeader(b)
	require.Equal(t, Version9, h.Version())
	assert.Equal(t, 0, h.(HeaderV9).Stride)
	assert.Equal(t, 30, h.Geometry().Stride)
}

func TestHeaderV9TooLarge(t *testing.T) {
	_, err := HeaderV9{Format: colorformat.A8, Width: 70000, Height: 1, Stride: 70000}.MarshalBinary()
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestHeaderV8RoundTrip(t *testing.T) {
	h := HeaderV8{
		Format: colorformat.I4,
		Width:  2047,
		Height: 1234,
	}

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 4)
	assert.Equal(t, byte(colorformat.I4), b[0])

	got := DecodeHeader(b)
	assert.Equal(t, Version8, got.Version())
	assert.Equal(t, h, got)
	assert.Equal(t, Geometry{Format: colorformat.I4, Width: 2047, Height: 1234, Stride: 1024}, got.Geometry())
}

func TestHeaderV8TooLarge(t *testing.T) {
	_, err := HeaderV8{Format: colorformat.A8, Width: 2048, Height: 1}.MarshalBinary()
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestHeaderUnknown(t *testing.T) {
	tables := map[string][]byte{
		"empty":          nil,
		"v8 reserved":    {byte(colorformat.RGB565), 0x01, 0x00, 0x00},
		"v8 reserved2":   {byte(colorformat.RGB565), 0x02, 0x00, 0x00},
		"v8 bad format":  {0x03, 0x00, 0x00, 0x00},
		"v8 short":       {byte(colorformat.RGB565), 0x00},
		"v9 reserved":    {0x19, byte(colorformat.RGB565), 0, 0, 1, 0, 1, 0, 2, 0, 0, 1},
		"v9 bad format":  {0x19, 0x05, 0, 0, 1, 0, 1, 0, 2, 0, 0, 0},
		"v9 short":       {0x19, byte(colorformat.RGB565), 0, 0},
		"magic too high": {0x20, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}

	for name, b := range tables {
		t.Run(name, func(t *testing.T) {
			h := DecodeHeader(b)
			assert.Equal(t, VersionUnknown, h.Version())
			assert.Equal(t, Geometry{}, h.Geometry())
			_, err := h.MarshalBinary()
			assert.Equal(t, ErrUnknownHeader, err)
		})
	}
}
