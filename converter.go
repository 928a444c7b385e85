package lvimg

import (
	"fmt"
	"image"
	"io/ioutil"
	"log"
	"strings"

	"github.com/bodgit/lvimg/container"
	"github.com/bodgit/lvimg/diff"
	"github.com/bodgit/lvimg/raster"
)

// Converter converts images between formats, optionally consulting a cache
// of previous conversions.
type Converter struct {
	codecs []Codec
	cache  *Cache
	logger *log.Logger
}

// New returns a Converter. cache may be nil.
func New(logger *log.Logger, cache *Cache) *Converter {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Converter{
		codecs: []Codec{
			BinCodec{container.New(logger)},
			RasterCodec{},
		},
		cache:  cache,
		logger: logger,
	}
}

// Codecs returns the codecs in detection order.
func (c *Converter) Codecs() []Codec {
	return c.codecs
}

// Detect returns the codec that accepts b.
func (c *Converter) Detect(b []byte) (Codec, error) {
	return Detect(c.codecs, b)
}

// Decode detects the format of b and returns it as a canonical image.
func (c *Converter) Decode(b []byte) (*image.NRGBA, error) {
	codec, err := c.Detect(b)
	if err != nil {
		return nil, err
	}
	return codec.Decode(b)
}

// Info describes b using whichever codec accepts it.
func (c *Converter) Info(b []byte) (Info, error) {
	codec, err := c.Detect(b)
	if err != nil {
		return Info{}, err
	}
	return codec.Info(b)
}

func (c *Converter) encoder(output string) (Codec, error) {
	if output == "bin" {
		return c.codecs[0], nil
	}
	for _, f := range raster.Formats {
		if strings.EqualFold(f, output) {
			return c.codecs[1], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", raster.ErrUnknownFormat, output)
}

// Encode writes m in the format named by opts.Output.
func (c *Converter) Encode(m *image.NRGBA, opts *Options) ([]byte, error) {
	codec, err := c.encoder(opts.Output)
	if err != nil {
		return nil, err
	}
	return codec.Encode(m, opts)
}

// Convert decodes b and re-encodes it according to opts.
func (c *Converter) Convert(b []byte, opts *Options) ([]byte, error) {
	if c.cache != nil {
		out, err := c.cache.Get(b, opts)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}

	m, err := c.Decode(b)
	if err != nil {
		return nil, err
	}

	out, err := c.Encode(m, opts)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(b, opts, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Diff decodes both inputs and compares them. A nil result means the images
// are identical.
func (c *Converter) Diff(lhs, rhs []byte) (*diff.Result, error) {
	l, err := c.Decode(lhs)
	if err != nil {
		return nil, err
	}
	r, err := c.Decode(rhs)
	if err != nil {
		return nil, err
	}
	if l.Bounds().Size() != r.Bounds().Size() {
		return nil, fmt.Errorf("%w: %v and %v", ErrSizeMismatch, l.Bounds().Size(), r.Bounds().Size())
	}
	return diff.Compare(l, r), nil
}
