/*
Package rle implements the block based run-length encoding used to compress
image payloads.

The stream is a sequence of packets, each starting with a control byte. If
the top bit is clear the low seven bits are a repeat count and a single block
follows which is to be repeated that many times. If the top bit is set the
low seven bits are a count of literal blocks that follow verbatim.
*/
package rle

import (
	"bytes"
	"errors"
)

const (
	literalFlag = 0x80
	maxCount    = 0x7f

	// Runs shorter than this are cheaper to store as literals.
	threshold = 16
)

var (
	// ErrInvalidBlockSize is returned when creating a codec with a zero
	// block size.
	ErrInvalidBlockSize = errors.New("rle: invalid block size")
	// ErrInvalidInput is returned when the input is not a whole number of
	// blocks or the encoded stream is truncated.
	ErrInvalidInput = errors.New("rle: invalid input")
)

// Codec encodes and decodes streams of fixed size blocks.
type Codec struct {
	blockSize int
}

// New returns a codec for blocks of blockSize bytes.
func New(blockSize int) (*Codec, error) {
	if blockSize < 1 {
		return nil, ErrInvalidBlockSize
	}
	return &Codec{blockSize: blockSize}, nil
}

// BlockSize returns the block size of the codec.
func (c *Codec) BlockSize() int {
	return c.blockSize
}

func (c *Codec) block(b []byte, i int) []byte {
	return b[i*c.blockSize : (i+1)*c.blockSize]
}

// Count the identical blocks starting at block i, stopping at limit.
func (c *Codec) run(b []byte, i, n, limit int) int {
	first := c.block(b, i)
	count := 1
	for j := i + 1; j < n && count < limit; j++ {
		if !bytes.Equal(first, c.block(b, j)) {
			break
		}
		count++
	}
	return count
}

// Encode compresses b which must be a whole number of blocks.
func (c *Codec) Encode(b []byte) ([]byte, error) {
	if len(b)%c.blockSize != 0 {
		return nil, ErrInvalidInput
	}

	n := len(b) / c.blockSize
	out := new(bytes.Buffer)

	for i := 0; i < n; {
		if count := c.run(b, i, n, maxCount); count >= threshold {
			out.WriteByte(byte(count))
			out.Write(c.block(b, i))
			i += count
			continue
		}

		// Gather literals until the next long run begins
		j := i
		for j < n && j-i < maxCount {
			if j > i && c.run(b, j, n, threshold) >= threshold {
				break
			}
			j++
		}

		out.WriteByte(literalFlag | byte(j-i))
		out.Write(b[i*c.blockSize : j*c.blockSize])
		i = j
	}

	return out.Bytes(), nil
}

// Decode expands b produced by Encode.
func (c *Codec) Decode(b []byte) ([]byte, error) {
	out := new(bytes.Buffer)

	for i := 0; i < len(b); {
		ctrl := b[i]
		i++

		count := int(ctrl & maxCount)
		if ctrl&literalFlag != 0 {
			n := count * c.blockSize
			if i+n > len(b) {
				return nil, ErrInvalidInput
			}
			out.Write(b[i : i+n])
			i += n
			continue
		}

		if i+c.blockSize > len(b) {
			return nil, ErrInvalidInput
		}
		block := b[i : i+c.blockSize]
		for j := 0; j < count; j++ {
			out.Write(block)
		}
		i += c.blockSize
	}

	return out.Bytes(), nil
}
