package dump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ContainerExt is the file extension of containers
const ContainerExt = ".ncm"

// Source is one container to decode
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Recorder receives the outcome of every decode
type Recorder interface {
	Record(res *Result, decodeErr error) error
}

// FileSource is a container on the local file system
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string {
	return s.Path
}

func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	if err := CheckInput(s.Path); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

// ScanDir returns every container below dir in lexical order
func ScanDir(dir string) (sources []Source, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ContainerExt) {
			return nil
		}
		sources = append(sources, &FileSource{Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return sources, nil
}

// Batch decodes many containers concurrently. A failed container does not stop the others.
// Containers resolving to the same output name are written to numbered files, which one
// keeps the plain name depends on scheduling.
type Batch struct {
	Concurrency int
	OutputDir   string
	LimitRate   uint64
	SkipTags    bool
	Recorder    Recorder
	Logger      *log.Entry
}

// Run decodes every source. Results keep the order of sources, failed entries are nil and
// their errors are joined into the returned error.
func (b *Batch) Run(ctx context.Context, sources []Source) ([]*Result, error) {
	logger := b.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	concurrency := b.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if err := PrepareOutputDir(b.OutputDir); err != nil {
		return nil, err
	}

	names := newOutputNames()
	results := make([]*Result, len(sources))
	errs := make([]error, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range sources {
		if gctx.Err() != nil {
			errs[i] = gctx.Err()
			continue
		}
		g.Go(func() error {
			res, err := b.runOne(gctx, src, logger, names)
			if err != nil {
				logger.WithField("input", src.Name()).WithError(err).Error("unbox failed")
				errs[i] = err
			} else {
				results[i] = res
			}
			if b.Recorder != nil {
				if rerr := b.Recorder.Record(res, err); rerr != nil {
					logger.WithField("input", src.Name()).WithError(rerr).Warn("record result failed")
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

func (b *Batch) runOne(ctx context.Context, src Source, logger *log.Entry, names *outputNames) (*Result, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return &Result{Input: src.Name()}, err
	}
	defer rc.Close()
	opts := []Option{
		WithContext(ctx),
		WithLogger(logger),
		WithRateLimit(b.LimitRate),
		withOutputNames(names),
	}
	if b.SkipTags {
		opts = append(opts, WithoutTags())
	}
	res, err := unbox(src.Name(), rc, b.OutputDir, newOptions(opts))
	if err != nil {
		if res == nil {
			res = &Result{Input: src.Name()}
		}
		return res, err
	}
	return res, nil
}
