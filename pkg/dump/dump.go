package dump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/zing22845/go-ncm/internal/utils"
	"github.com/zing22845/go-ncm/pkg/ncm"
	"github.com/zing22845/go-ncm/pkg/tag"
)

// CheckInput verifies that input exists and is not a directory
func CheckInput(input string) error {
	fi, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInputNotExist, "input: %q", input)
		}
		return errors.Wrapf(err, "stat input %q", input)
	}
	if fi.IsDir() {
		return errors.Wrapf(ErrInputIsDir, "input: %q", input)
	}
	return nil
}

// PrepareOutputDir rejects an output path that is a regular file and creates missing directories
func PrepareOutputDir(outputDir string) error {
	fi, err := os.Stat(outputDir)
	if err == nil {
		if !fi.IsDir() {
			return errors.Wrapf(ErrOutputIsFile, "output: %q", outputDir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat output %q", outputDir)
	}
	if err = os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "create output directory %q", outputDir)
	}
	return nil
}

// OutputName returns "<music name> - <artists>.<format>"
func OutputName(meta *ncm.Metadata) string {
	return utils.SanitizeFilename(fmt.Sprintf("%s - %s.%s", meta.MusicName, meta.JoinedArtists(), meta.Format))
}

// Unbox decodes the container at input into outputDir and tags the result
func Unbox(input, outputDir string, opts ...Option) (*Result, error) {
	if err := CheckInput(input); err != nil {
		return nil, err
	}
	if err := PrepareOutputDir(outputDir); err != nil {
		return nil, err
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, errors.Wrapf(err, "open input %q", input)
	}
	defer f.Close()
	return unbox(input, f, outputDir, newOptions(opts))
}

// UnboxReader decodes a container read from r. name identifies it in results and logs.
func UnboxReader(name string, r io.Reader, outputDir string, opts ...Option) (*Result, error) {
	if err := PrepareOutputDir(outputDir); err != nil {
		return nil, err
	}
	return unbox(name, r, outputDir, newOptions(opts))
}

func unbox(name string, r io.Reader, outputDir string, o *options) (res *Result, err error) {
	logger := o.logger.WithField("input", name)
	nr := ncm.NewReader(r)
	c, err := nr.ReadHeader()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	if !c.ValidMagic {
		logger.Warnf("unexpected magic %q", c.Magic)
	}

	res = &Result{
		Input:     name,
		Output:    filepath.Join(outputDir, OutputName(c.Metadata)),
		Metadata:  c.Metadata,
		CoverMIME: c.CoverMIME(),
	}
	if o.names != nil {
		res.Output = o.names.claim(res.Output)
	}
	logger = logger.WithField("output", res.Output)

	res.AudioSize, err = writeAudio(o, nr, res.Output, logger)
	res.InputSize = nr.ReadSize
	if err != nil {
		return res, err
	}
	logger.Debugf("decrypted %d audio bytes from %d input bytes", res.AudioSize, res.InputSize)

	if o.skipTags {
		return res, nil
	}
	if err = WriteTags(res.Output, c.Metadata, c.Image); err != nil {
		return res, err
	}
	logger.WithField("format", c.Metadata.Format).Info("unboxed")
	return res, nil
}

func writeAudio(o *options, nr *ncm.Reader, path string, logger *log.Entry) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteAudio, err)
	}
	defer func() {
		cerr := f.Close()
		if cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWriteAudio, cerr)
		}
	}()
	w := utils.NewRateLimitedWriter(o.ctx, f, o.limitRate)
	var written int64
	n, err = nr.DecryptAudio(w, func(size int) {
		written += int64(size)
		logger.Tracef("written %d audio bytes", written)
	})
	if err != nil {
		return n, err
	}
	return n, nil
}

// WriteTags embeds title, album, artists and cover into an already written audio file
func WriteTags(path string, meta *ncm.Metadata, image []byte) error {
	t, err := tag.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTag, err)
	}
	defer t.Close()

	t.SetTitle(meta.MusicName)
	t.SetAlbum(meta.Album)
	for _, artist := range meta.ArtistNames() {
		t.AddArtist(artist)
	}
	t.SetCover(image, ncm.ImageMIME(image))
	if err = t.Save(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTag, err)
	}
	return nil
}

// Inspect reads the blocks in front of the audio payload without writing anything
func Inspect(input string) (*ncm.Container, error) {
	if err := CheckInput(input); err != nil {
		return nil, err
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, errors.Wrapf(err, "open input %q", input)
	}
	defer f.Close()
	c, err := ncm.NewReader(f).ReadHeader()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", input)
	}
	return c, nil
}
