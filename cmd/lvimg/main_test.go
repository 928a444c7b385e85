package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/lvimg/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffTolerance(t *testing.T) {
	assert.Equal(t, 1.0, diffTolerance(0))
	assert.Equal(t, 1.0, diffTolerance(-5))
	assert.Equal(t, 1.0, diffTolerance(0.5))
	assert.Equal(t, 12.0, diffTolerance(12))
}

func TestDiffSinglePixel(t *testing.T) {
	lhs := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	rhs := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.NRGBA{uint8(x * 20), uint8(y * 20), 0x80, 0xff}
			lhs.SetNRGBA(x, y, c)
			rhs.SetNRGBA(x, y, c)
		}
	}
	rhs.SetNRGBA(3, 4, color.NRGBA{0, 0x50, 0x80, 0xff})

	r := diff.Compare(lhs, rhs)
	require.NotNil(t, r)

	// A zero tolerance from the command line only reports the changed pixel
	tolerance := diffTolerance(0)
	assert.Equal(t, 1, r.Count(tolerance))

	m := r.Mask(tolerance, highlight)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x == 3 && y == 4 {
				assert.Equal(t, highlight, m.NRGBAAt(x, y))
			} else {
				assert.Equal(t, color.NRGBA{}, m.NRGBAAt(x, y))
			}
		}
	}

	b := diff.Blend(r, 0, tolerance, highlight)
	assert.Equal(t, lhs.NRGBAAt(0, 0), b.NRGBAAt(0, 0))
	assert.Equal(t, highlight, b.NRGBAAt(3, 4))
}
