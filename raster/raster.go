/*
Package raster converts common image file formats to and from canonical
images. Decoding is delegated to the standard library and golang.org/x/image
decoders, writing is supported for PNG, JPEG, GIF, BMP and TIFF.
*/
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/bodgit/lvimg/pixel"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnknownFormat is returned when asked to write an unsupported format.
var ErrUnknownFormat = errors.New("raster: unknown output format")

// Formats lists the names accepted by Encode.
var Formats = []string{"png", "jpeg", "gif", "bmp", "tiff"}

// CanDecode reports whether b is in a format one of the registered decoders
// recognises.
func CanDecode(b []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(b))
	return err == nil
}

// Decode returns b as a canonical image along with the name of the format.
func Decode(b []byte) (*image.NRGBA, string, error) {
	m, name, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", err
	}
	return pixel.NRGBA(m), name, nil
}

// DecodeConfig returns the dimensions and format name of b.
func DecodeConfig(b []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(b))
}

// Encode writes m to w in the named format.
func Encode(w io.Writer, m image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png", "":
		return png.Encode(w, m)
	case "jpeg", "jpg":
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
	case "gif":
		return gif.Encode(w, m, nil)
	case "bmp":
		return bmp.Encode(w, m)
	case "tiff", "tif":
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
