package utils

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

const (
	rateLimitBurst     = 1024 * 1024
	rateLimitWriteSize = 512 * 1024
)

// RateLimitedWriter 限速写入器，用于包装文件写入并应用限速
type RateLimitedWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

// NewRateLimitedWriter bytesPerSecond为0时不限速
func NewRateLimitedWriter(ctx context.Context, w io.Writer, bytesPerSecond uint64) *RateLimitedWriter {
	var limiter *rate.Limiter
	if bytesPerSecond > 0 {
		// 令牌桶容量为1MB，每秒填充速率为指定字节数
		limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), rateLimitBurst)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &RateLimitedWriter{
		ctx:     ctx,
		w:       w,
		limiter: limiter,
	}
}

func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	if w.limiter == nil {
		return w.w.Write(p)
	}

	var written int
	for written < len(p) {
		// 每次最多写入512KB
		size := rateLimitWriteSize
		if remaining := len(p) - written; remaining < size {
			size = remaining
		}

		if err = w.limiter.WaitN(w.ctx, size); err != nil {
			return written, err
		}

		nw, err := w.w.Write(p[written : written+size])
		written += nw
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
