package container

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/lvimg/colorformat"
)

// Version identifies the header layout.
type Version int

// Header layouts. Unknown means the bytes did not parse as any header.
const (
	VersionUnknown Version = iota
	Version8
	Version9
)

func (v Version) String() string {
	switch v {
	case Version8:
		return "v8"
	case Version9:
		return "v9"
	}
	return "unknown"
}

// Flags is the V9 header flag bitset.
type Flags uint16

// Header flags.
const (
	FlagPremultiplied Flags = 0x0001
	FlagCompressed    Flags = 0x0008
	FlagAllocated     Flags = 0x0010
	FlagModifiable    Flags = 0x0020
	FlagUser1         Flags = 0x0100
	FlagUser2         Flags = 0x0200
	FlagUser3         Flags = 0x0400
	FlagUser4         Flags = 0x0800
	FlagUser5         Flags = 0x1000
	FlagUser6         Flags = 0x2000
	FlagUser7         Flags = 0x4000
	FlagUser8         Flags = 0x8000
)

const (
	magicV9    = 0x19
	maxMagicV8 = 0x18

	headerV8Len = 4
	headerV9Len = 12

	maxV8Dimension = 1<<11 - 1
	maxV9Dimension = 1<<16 - 1
)

// Geometry is the image description common to every header version.
type Geometry struct {
	Format colorformat.ColorFormat
	Flags  Flags
	Width  int
	Height int
	Stride int
}

// Header is one of HeaderV8, HeaderV9 or Unknown.
type Header interface {
	Version() Version
	// Len returns the encoded size of the header in bytes.
	Len() int
	Geometry() Geometry
	MarshalBinary() ([]byte, error)
}

// HeaderV8 is the packed 4 byte header. The stride is not stored and always
// derived from the width with an alignment of one.
type HeaderV8 struct {
	Format colorformat.ColorFormat
	Width  int
	Height int
}

// Version returns Version8.
func (HeaderV8) Version() Version { return Version8 }

// Len returns 4.
func (HeaderV8) Len() int { return headerV8Len }

// Geometry returns the header fields with the derived stride.
func (h HeaderV8) Geometry() Geometry {
	return Geometry{
		Format: h.Format,
		Width:  h.Width,
		Height: h.Height,
		Stride: h.Format.Stride(h.Width, 1),
	}
}

// MarshalBinary packs the header as a little-endian 32-bit word: format in
// bits 0-7, two reserved bits, then 11 bits each of width and height.
func (h HeaderV8) MarshalBinary() ([]byte, error) {
	if h.Width > maxV8Dimension || h.Height > maxV8Dimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds v8 limit of %d", ErrTooLarge, h.Width, h.Height, maxV8Dimension)
	}
	if h.Width < 0 || h.Height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions", ErrTooLarge)
	}

	v := uint32(h.Format) | uint32(h.Width)<<10 | uint32(h.Height)<<21

	b := make([]byte, headerV8Len)
	binary.LittleEndian.PutUint32(b, v)

	return b, nil
}

// HeaderV9 is the 12 byte header introduced with version 9.
type HeaderV9 struct {
	Format colorformat.ColorFormat
	Flags  Flags
	Width  int
	Height int
	// Stride may be zero in damaged files, Geometry then derives it.
	Stride int
}

// Version returns Version9.
func (HeaderV9) Version() Version { return Version9 }

// Len returns 12.
func (HeaderV9) Len() int { return headerV9Len }

// Geometry returns the header fields, substituting a derived stride when
// none is stored.
func (h HeaderV9) Geometry() Geometry {
	g := Geometry{
		Format: h.Format,
		Flags:  h.Flags,
		Width:  h.Width,
		Height: h.Height,
		Stride: h.Stride,
	}
	if g.Stride == 0 && h.Format.Valid() {
		g.Stride = h.Format.Stride(h.Width, 1)
	}
	return g
}

// MarshalBinary writes the magic byte, format, flags, width, height, stride
// and two reserved bytes.
func (h HeaderV9) MarshalBinary() ([]byte, error) {
	for _, v := range []int{h.Width, h.Height, h.Stride} {
		if v < 0 || v > maxV9Dimension {
			return nil, fmt.Errorf("%w: %d exceeds v9 limit of %d", ErrTooLarge, v, maxV9Dimension)
		}
	}

	b := make([]byte, headerV9Len)
	b[0] = magicV9
	b[1] = byte(h.Format)
	binary.LittleEndian.PutUint16(b[2:], uint16(h.Flags))
	binary.LittleEndian.PutUint16(b[4:], uint16(h.Width))
	binary.LittleEndian.PutUint16(b[6:], uint16(h.Height))
	binary.LittleEndian.PutUint16(b[8:], uint16(h.Stride))

	return b, nil
}

// Unknown is the result of decoding bytes that are not a valid header.
type Unknown struct{}

// Version returns VersionUnknown.
func (Unknown) Version() Version { return VersionUnknown }

// Len returns 0.
func (Unknown) Len() int { return 0 }

// Geometry returns the zero Geometry.
func (Unknown) Geometry() Geometry { return Geometry{} }

// MarshalBinary always fails.
func (Unknown) MarshalBinary() ([]byte, error) {
	return nil, ErrUnknownHeader
}

func decodeV8(b []byte) Header {
	if len(b) < headerV8Len {
		return Unknown{}
	}

	v := binary.LittleEndian.Uint32(b)
	cf := colorformat.ColorFormat(v)
	if !cf.Valid() || v>>8&0x3 != 0 {
		return Unknown{}
	}

	return HeaderV8{
		Format: cf,
		Width:  int(v >> 10 & maxV8Dimension),
		Height: int(v >> 21 & maxV8Dimension),
	}
}

func decodeV9(b []byte) Header {
	if len(b) < headerV9Len {
		return Unknown{}
	}

	cf := colorformat.ColorFormat(b[1])
	if !cf.Valid() || binary.LittleEndian.Uint16(b[10:]) != 0 {
		return Unknown{}
	}

	return HeaderV9{
		Format: cf,
		Flags:  Flags(binary.LittleEndian.Uint16(b[2:])),
		Width:  int(binary.LittleEndian.Uint16(b[4:])),
		Height: int(binary.LittleEndian.Uint16(b[6:])),
		Stride: int(binary.LittleEndian.Uint16(b[8:])),
	}
}

// DecodeHeader classifies and parses the header at the start of b. The
// first byte selects the version: 0x19 is version 9, anything up to 0x18 is
// a version 8 color format. Headers with an unknown color format or with
// reserved bits set decode as Unknown.
func DecodeHeader(b []byte) Header {
	switch {
	case len(b) == 0:
		return Unknown{}
	case b[0] == magicV9:
		return decodeV9(b)
	case b[0] <= maxMagicV8:
		return decodeV8(b)
	}
	return Unknown{}
}
