package lvimg

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultWorkers = 10

var inputExtensions = map[string]struct{}{
	".bin":  {},
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// ScanOptions controls a batch conversion.
type ScanOptions struct {
	// Dir is the directory to write into, the tree below the scanned
	// directory is recreated beneath it. If empty, files are written
	// alongside their source.
	Dir string
	// Workers is the number of concurrent conversions, defaulting to 10.
	Workers int
	Options
}

func extension(output string) string {
	switch o := strings.ToLower(output); o {
	case "jpeg":
		return ".jpg"
	default:
		return "." + o
	}
}

type job struct {
	src, dst string
}

func (c *Converter) findFiles(ctx context.Context, base string, opts *ScanOptions) (<-chan job, <-chan error, error) {
	ext := extension(opts.Output)
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			if _, ok := inputExtensions[strings.ToLower(filepath.Ext(file))]; !ok {
				return nil
			}

			// Never convert a file into its own format, this also stops a
			// scan picking up its own output
			if strings.EqualFold(filepath.Ext(file), ext) {
				return nil
			}

			rel, err := filepath.Rel(base, file)
			if err != nil {
				return err
			}
			dst := strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
			if opts.Dir != "" {
				dst = filepath.Join(opts.Dir, dst)
			} else {
				dst = filepath.Join(base, dst)
			}

			select {
			case out <- job{file, dst}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) convertFile(j job, opts *Options) error {
	b, err := ioutil.ReadFile(j.src)
	if err != nil {
		return err
	}

	out, err := c.Convert(b, opts)
	if err != nil {
		if errors.Is(err, ErrNoDecoder) {
			c.logger.Printf("Skipping \"%s\", unrecognised format\n", j.src)
			return nil
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(j.dst), 0777); err != nil {
		return err
	}

	if err := ioutil.WriteFile(j.dst, out, 0666); err != nil {
		return err
	}

	c.logger.Printf("Converted \"%s\" to \"%s\"\n", j.src, j.dst)

	return nil
}

func (c *Converter) fileWorker(ctx context.Context, in <-chan job, opts *Options) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			if ctx.Err() != nil {
				return
			}
			if err := c.convertFile(j, opts); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan converts every recognised image below path. The first error stops
// the scan.
func (c *Converter) Scan(ctx context.Context, path string, opts *ScanOptions) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if _, err := c.encoder(opts.Output); err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir, opts)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	for i := 0; i < workers; i++ {
		errc, err := c.fileWorker(ctx, files, &opts.Options)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
