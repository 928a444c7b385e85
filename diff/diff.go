/*
Package diff compares two canonical images pixel by pixel.

The magnitude of a pixel difference is the largest absolute difference of
its four channels. A Result keeps every pixel so that different tolerances
can be applied without comparing the images again.
*/
package diff

import (
	"image"
	"image/color"
	"iter"
	"math"
)

// Pixel is the difference at a single position.
type Pixel struct {
	X, Y  int
	Left  color.NRGBA
	Right color.NRGBA
	// Delta is left minus right for R, G, B and A.
	Delta [4]float64
}

// Magnitude returns the largest absolute channel difference.
func (p Pixel) Magnitude() float64 {
	var m float64
	for _, d := range p.Delta {
		m = math.Max(m, math.Abs(d))
	}
	return m
}

// Result holds the comparison of two images of the same size.
type Result struct {
	Width, Height int
	// Pixels are in row-major order.
	Pixels []Pixel
	// Min and Max are the smallest and largest pixel magnitudes.
	Min, Max float64
}

// Compare returns the per-pixel difference of lhs and rhs, or nil if their
// sizes differ or they are identical.
func Compare(lhs, rhs *image.NRGBA) *Result {
	lb, rb := lhs.Bounds(), rhs.Bounds()
	if lb.Size() != rb.Size() {
		return nil
	}

	r := &Result{
		Width:  lb.Dx(),
		Height: lb.Dy(),
		Pixels: make([]Pixel, 0, lb.Dx()*lb.Dy()),
		Min:    math.Inf(1),
	}

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			p := Pixel{
				X:     x,
				Y:     y,
				Left:  lhs.NRGBAAt(lb.Min.X+x, lb.Min.Y+y),
				Right: rhs.NRGBAAt(rb.Min.X+x, rb.Min.Y+y),
			}
			p.Delta = [4]float64{
				float64(p.Left.R) - float64(p.Right.R),
				float64(p.Left.G) - float64(p.Right.G),
				float64(p.Left.B) - float64(p.Right.B),
				float64(p.Left.A) - float64(p.Right.A),
			}

			m := p.Magnitude()
			r.Min = math.Min(r.Min, m)
			r.Max = math.Max(r.Max, m)

			r.Pixels = append(r.Pixels, p)
		}
	}

	if r.Max == 0 {
		return nil
	}

	return r
}

// Filter yields the pixels whose magnitude is at least tolerance, in
// row-major order. The sequence can be iterated any number of times.
func (r *Result) Filter(tolerance float64) iter.Seq[Pixel] {
	return func(yield func(Pixel) bool) {
		for _, p := range r.Pixels {
			if p.Magnitude() < tolerance {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Count returns the number of pixels whose magnitude is at least tolerance.
func (r *Result) Count(tolerance float64) int {
	var n int
	for range r.Filter(tolerance) {
		n++
	}
	return n
}

// Mask returns a transparent image with c painted wherever the magnitude is
// at least tolerance.
func (r *Result) Mask(tolerance float64, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for p := range r.Filter(tolerance) {
		m.SetNRGBA(p.X, p.Y, c)
	}
	return m
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a)*(1-t) + float64(b)*t))
}

func mix(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: lerp(a.R, b.R, t),
		G: lerp(a.G, b.G, t),
		B: lerp(a.B, b.B, t),
		A: lerp(a.A, b.A, t),
	}
}

// Blend renders the left image blended towards the right image by t in
// [0, 1]. Pixels at or above tolerance are then tinted towards highlight,
// strongest when t is at either end.
func Blend(r *Result, t, tolerance float64, highlight color.NRGBA) *image.NRGBA {
	t = math.Max(0, math.Min(1, t))
	tint := math.Abs(t-0.5) / 0.5

	m := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for _, p := range r.Pixels {
		c := mix(p.Left, p.Right, t)
		if p.Magnitude() >= tolerance {
			c = mix(c, highlight, tint)
		}
		m.SetNRGBA(p.X, p.Y, c)
	}
	return m
}
