package main

import (
	"context"
	"fmt"
	"image/color"
	"io/ioutil"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/lvimg"
	"github.com/bodgit/lvimg/colorformat"
	"github.com/bodgit/lvimg/container"
	"github.com/bodgit/lvimg/diff"
	"github.com/bodgit/lvimg/palette"
	"github.com/bodgit/lvimg/raster"
	"github.com/urfave/cli/v2"
)

var highlight = color.NRGBA{0xff, 0, 0xff, 0xff}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "print-version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var encodeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "format",
		Value: colorformat.ARGB8888.String(),
		Usage: "LVGL color format to write",
	},
	&cli.IntFlag{
		Name:  "align",
		Value: 1,
		Usage: "stride alignment in bytes",
	},
	&cli.BoolFlag{
		Name:  "dither",
		Usage: "dither when reducing to a palette",
	},
	&cli.BoolFlag{
		Name:  "fast",
		Usage: "trade palette quality for speed",
	},
	&cli.IntFlag{
		Name:  "version",
		Value: 9,
		Usage: "container version, 8 or 9",
	},
	&cli.StringFlag{
		Name:  "compress",
		Value: container.CompressNone.String(),
		Usage: "compression method, none, rle or zstd",
	},
	&cli.BoolFlag{
		Name:  "premultiply",
		Usage: "store color premultiplied by alpha",
	},
	&cli.StringFlag{
		Name:  "output-format",
		Usage: "output file format, bin or one of " + strings.Join(raster.Formats, ", "),
	},
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConverter(c *cli.Context) (*lvimg.Converter, func(), error) {
	logger := newLogger(c)

	if c.String("db") == "" {
		return lvimg.New(logger, nil), func() {}, nil
	}

	cache, err := lvimg.OpenCache(c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	return lvimg.New(logger, cache), func() { cache.Close() }, nil
}

func outputFormat(c *cli.Context, file string) string {
	if f := c.String("output-format"); f != "" {
		return strings.ToLower(f)
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), ".")); ext {
	case "":
		return "bin"
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return ext
	}
}

func options(c *cli.Context, output string) (*lvimg.Options, error) {
	cf, err := colorformat.Parse(c.String("format"))
	if err != nil {
		return nil, err
	}

	method, err := container.ParseCompression(c.String("compress"))
	if err != nil {
		return nil, err
	}

	var version container.Version
	switch c.Int("version") {
	case 8:
		version = container.Version8
	case 9:
		version = container.Version9
	default:
		return nil, fmt.Errorf("%w: %d", container.ErrInvalidVersion, c.Int("version"))
	}

	quality := palette.Best
	if c.Bool("fast") {
		quality = palette.Fast
	}

	return &lvimg.Options{
		Output: output,
		Bin: container.Options{
			Format:        cf,
			Align:         c.Int("align"),
			Dither:        c.Bool("dither"),
			Quality:       quality,
			Version:       version,
			Compression:   method,
			Premultiplied: c.Bool("premultiply"),
		},
	}, nil
}

// diffTolerance raises t to 1 so unchanged pixels are never reported.
func diffTolerance(t float64) float64 {
	return math.Max(t, 1)
}

func main() {
	app := cli.NewApp()

	app.Name = "lvimg"
	app.Usage = "LVGL image conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"LVIMG_DB"},
			Usage:   "path to conversion cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image",
			Description: "The output format is taken from --output-format or the output file extension, a .bin extension writes an LVGL container.",
			ArgsUsage:   "INPUT OUTPUT",
			Flags:       encodeFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, closeFunc, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closeFunc()

				opts, err := options(c, outputFormat(c, c.Args().Get(1)))
				if err != nil {
					return cli.Exit(err, 1)
				}

				b, err := ioutil.ReadFile(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				out, err := m.Convert(b, opts)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := ioutil.WriteFile(c.Args().Get(1), out, 0666); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "Describe images",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m := lvimg.New(newLogger(c), nil)

				for _, file := range c.Args().Slice() {
					b, err := ioutil.ReadFile(file)
					if err != nil {
						return cli.Exit(err, 1)
					}

					info, err := m.Info(b)
					if err != nil {
						return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
					}

					fmt.Printf("%s: %s %dx%d, %d bytes\n", file, info.FormatName, info.Width, info.Height, info.ByteSize)

					keys := make([]string, 0, len(info.Fields))
					for k := range info.Fields {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Printf("  %s: %s\n", k, info.Fields[k])
					}
				}

				return nil
			},
		},
		{
			Name:        "diff",
			Usage:       "Compare two images",
			Description: "Exits with status 1 if any pixel differs by at least the tolerance.",
			ArgsUsage:   "FILE FILE",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  "tolerance",
					Value: 1,
					Usage: "report pixels whose largest channel difference is at least this value, values below 1 count as 1",
				},
				&cli.StringFlag{
					Name:  "mask",
					Usage: "write a PNG marking the differing pixels",
				},
				&cli.Float64Flag{
					Name:  "blend",
					Usage: "write the mask as a blend of both images instead, 0 is the first and 1 the second",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m := lvimg.New(newLogger(c), nil)

				lhs, err := ioutil.ReadFile(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}
				rhs, err := ioutil.ReadFile(c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				r, err := m.Diff(lhs, rhs)
				if err != nil {
					return cli.Exit(err, 1)
				}
				if r == nil {
					fmt.Println("No differences")
					return nil
				}

				tolerance := diffTolerance(c.Float64("tolerance"))
				n := r.Count(tolerance)
				fmt.Printf("%d of %d pixels differ, max delta %g\n", n, len(r.Pixels), r.Max)

				if file := c.String("mask"); file != "" {
					f, err := os.Create(file)
					if err != nil {
						return cli.Exit(err, 1)
					}
					defer f.Close()

					out := r.Mask(tolerance, highlight)
					if c.IsSet("blend") {
						out = diff.Blend(r, c.Float64("blend"), tolerance, highlight)
					}

					if err := raster.Encode(f, out, "png"); err != nil {
						return cli.Exit(err, 1)
					}
				}

				if n > 0 {
					return cli.Exit("", 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Convert every image in a directory tree",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  "output",
					Usage: "directory to write into, defaults to alongside each source",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 10,
					Usage: "number of concurrent conversions",
				},
			}, encodeFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, closeFunc, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closeFunc()

				output := c.String("output-format")
				if output == "" {
					output = "bin"
				}

				opts, err := options(c, strings.ToLower(output))
				if err != nil {
					return cli.Exit(err, 1)
				}

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				if err := m.Scan(ctx, c.Args().First(), &lvimg.ScanOptions{
					Dir:     c.String("output"),
					Workers: c.Int("workers"),
					Options: *opts,
				}); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
