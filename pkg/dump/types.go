package dump

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zing22845/go-ncm/pkg/ncm"
)

// precondition errors
var (
	ErrInputNotExist = errors.New("input does not exist")
	ErrInputIsDir    = errors.New("input is a directory")
	ErrOutputIsFile  = errors.New("output is a file")
	ErrWriteAudio    = errors.New("write audio failed")
	ErrWriteTag      = errors.New("write tag failed")
)

// Result describes one decoded container
type Result struct {
	Input     string
	Output    string
	Metadata  *ncm.Metadata
	CoverMIME string
	AudioSize int64
	// bytes read from the container
	InputSize int64
}

type options struct {
	ctx       context.Context
	logger    *log.Entry
	limitRate uint64
	skipTags  bool
	names     *outputNames
}

// Option configures Unbox
type Option func(*options)

// WithLogger sets the logger entry used for progress messages
func WithLogger(entry *log.Entry) Option {
	return func(o *options) {
		o.logger = entry
	}
}

// WithRateLimit throttles audio writes to bytesPerSecond, 0 disables it
func WithRateLimit(bytesPerSecond uint64) Option {
	return func(o *options) {
		o.limitRate = bytesPerSecond
	}
}

// WithContext bounds rate limited writes
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithoutTags leaves the decrypted audio untagged
func WithoutTags() Option {
	return func(o *options) {
		o.skipTags = true
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		ctx:    context.Background(),
		logger: log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// withOutputNames makes concurrent decodes of one batch write to distinct files
func withOutputNames(names *outputNames) Option {
	return func(o *options) {
		o.names = names
	}
}

// outputNames hands out output paths that are unique within one batch run. A path already
// taken gets " (1)", " (2)", ... before its extension.
type outputNames struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func newOutputNames() *outputNames {
	return &outputNames{taken: make(map[string]struct{})}
}

func (n *outputNames) claim(path string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; ; i++ {
		// case-insensitive file systems treat "Song" and "song" as one file
		key := strings.ToLower(candidate)
		if _, ok := n.taken[key]; !ok {
			n.taken[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
}
