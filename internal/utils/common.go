package utils

import (
	"io"
	"strings"
)

// ChunkedCopy 以指定大小的块从源复制到目标
// 每个块在写入前都会被填满(最后一块除外), 所以块边界只取决于chunkSize, 与src的单次Read长度无关
// 如果提供了transform, 则在写入前对块原地变换; 如果提供了进度通知函数, 则在每个块复制后调用
func ChunkedCopy(
	dst io.Writer,
	src io.Reader,
	chunkSize int,
	transform func([]byte),
	progressFn func(int),
) (written int64, err error) {
	buf := make([]byte, chunkSize)

	for {
		nr, er := io.ReadFull(src, buf)
		if nr > 0 {
			if transform != nil {
				transform(buf[:nr])
			}
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if ew != nil {
				err = ew
				break
			}
			if nr != nw {
				err = io.ErrShortWrite
				break
			}
			if progressFn != nil {
				progressFn(nr)
			}
		}
		if er != nil {
			if er != io.EOF && er != io.ErrUnexpectedEOF {
				err = er
			}
			break
		}
	}
	return written, err
}

// SanitizeFilename 将文件名中的路径分隔符替换为下划线, 保证文件落在目标目录内
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}
