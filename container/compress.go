package container

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/rle"
	"github.com/klauspost/compress/zstd"
)

// Compression is the method recorded in the compression sub-header.
type Compression uint8

// Compression methods. Zstd is an extension not understood by LVGL itself.
const (
	CompressNone Compression = iota
	CompressRLE
	CompressLZ4
	CompressZstd
)

var compressionNames = map[Compression]string{
	CompressNone: "none",
	CompressRLE:  "rle",
	CompressLZ4:  "lz4",
	CompressZstd: "zstd",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

// ParseCompression returns the compression method with the given name.
func ParseCompression(name string) (Compression, error) {
	for c, s := range compressionNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return CompressNone, fmt.Errorf("%w: %q", ErrUnsupportedCompression, name)
}

const compressedHeaderLen = 12

type compressedHeader struct {
	method           Compression
	compressedSize   uint32
	decompressedSize uint32
}

func (h compressedHeader) marshal() []byte {
	b := make([]byte, compressedHeaderLen)
	binary.LittleEndian.PutUint32(b[0:], uint32(h.method)&0xf)
	binary.LittleEndian.PutUint32(b[4:], h.compressedSize)
	binary.LittleEndian.PutUint32(b[8:], h.decompressedSize)
	return b
}

// The method occupies the low four bits of the first word, the remaining
// bits are reserved.
func readCompressedHeader(b []byte) (compressedHeader, error) {
	if len(b) < compressedHeaderLen {
		return compressedHeader{}, fmt.Errorf("%w: truncated compression header", ErrCorrupt)
	}

	v := binary.LittleEndian.Uint32(b)
	if v>>4 != 0 {
		return compressedHeader{}, fmt.Errorf("%w: reserved compression header bits set", ErrCorrupt)
	}

	return compressedHeader{
		method:           Compression(v & 0xf),
		compressedSize:   binary.LittleEndian.Uint32(b[4:]),
		decompressedSize: binary.LittleEndian.Uint32(b[8:]),
	}, nil
}

// Direct color formats compress whole pixels when the payload divides
// evenly, everything else is compressed byte by byte.
func rleBlockSize(cf colorformat.ColorFormat, n int) int {
	if cf.IsIndexed() || cf == colorformat.RGB565A8 {
		return 1
	}
	if size := cf.ByteSize(); size > 1 && n%size == 0 {
		return size
	}
	return 1
}

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func compress(method Compression, cf colorformat.ColorFormat, data []byte) ([]byte, error) {
	switch method {
	case CompressRLE:
		c, err := rle.New(rleBlockSize(cf, len(data)))
		if err != nil {
			return nil, err
		}
		return c.Encode(data)
	case CompressZstd:
		enc := zstdEncPool.Get().(*zstd.Encoder)
		defer zstdEncPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, method)
}

func decompress(h compressedHeader, cf colorformat.ColorFormat, data []byte) ([]byte, error) {
	switch h.method {
	case CompressNone:
		return data, nil
	case CompressRLE:
		c, err := rle.New(rleBlockSize(cf, int(h.decompressedSize)))
		if err != nil {
			return nil, err
		}
		return c.Decode(data)
	case CompressZstd:
		dec := zstdDecPool.Get().(*zstd.Decoder)
		defer zstdDecPool.Put(dec)
		return dec.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, h.method)
}
