/*
 * Copyright (C) 2017 Sean McGrail
 * Copyright (C) 2011-2017 Percona LLC and/or its affiliates.
 *
 * This program is free software; you can redistribute it and/or
 * modify it under the terms of the GNU General Public License
 * as published by the Free Software Foundation; either version 2
 * of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *
 * GNU General Public License for more details.
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.
 */

package ncm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/zing22845/go-ncm/internal/utils"
)

// Reader provides sequential access to the blocks of a container. The blocks must be read
// in their stored order: header, key, metadata, image, then the audio payload.
type Reader struct {
	reader   io.Reader
	cipher   *Cipher
	ReadSize int64
}

func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	r.ReadSize += int64(n)
	return n, err
}

// NewReader creates a new Reader by wrapping the provided reader
func NewReader(reader io.Reader) *Reader {
	return &Reader{reader: reader}
}

// readFull reads exactly len(p) bytes, an early end of stream is io.ErrUnexpectedEOF
func (r *Reader) readFull(p []byte) error {
	_, err := io.ReadFull(r, p)
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (r *Reader) readBlock() (block []byte, err error) {
	lenBytes := make([]byte, LengthBytesLen)
	if err = r.readFull(lenBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadLength, err)
	}
	blockLen := binary.LittleEndian.Uint32(lenBytes)
	block = make([]byte, blockLen)
	if err = r.readFull(block); err != nil {
		return nil, errors.Wrapf(err, "read %d bytes", blockLen)
	}
	return block, nil
}

// SkipHeader consumes the magic and version bytes. A wrong magic is reported, not rejected.
func (r *Reader) SkipHeader() (magic []byte, valid bool, err error) {
	header := make([]byte, HeaderLen)
	if err = r.readFull(header); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrReadHeader, err)
	}
	magic = header[:MagicLen]
	return magic, bytes.Equal(magic, Magic), nil
}

// NextKey reads the key block and returns the session key. The audio cipher is prepared from it.
func (r *Reader) NextKey() (key []byte, err error) {
	block, err := r.readBlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadKey, err)
	}
	key, err = UnwrapKey(block)
	if err != nil {
		return nil, err
	}
	r.cipher, err = NewCipher(key)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// NextMetadata reads the metadata block and the gap after it
func (r *Reader) NextMetadata() (meta *Metadata, err error) {
	block, err := r.readBlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadMetadata, err)
	}
	_, err = io.CopyN(io.Discard, r, MetaGapLen)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %w", ErrReadMetadata, err)
	}
	return UnwrapMetadata(block)
}

// NextImage reads the unencrypted cover image
func (r *Reader) NextImage() (image []byte, err error) {
	image, err = r.readBlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadImage, err)
	}
	return image, nil
}

// ReadHeader reads every block in front of the audio payload
func (r *Reader) ReadHeader() (c *Container, err error) {
	c = new(Container)
	c.Magic, c.ValidMagic, err = r.SkipHeader()
	if err != nil {
		return nil, err
	}
	c.SessionKey, err = r.NextKey()
	if err != nil {
		return nil, err
	}
	c.Metadata, err = r.NextMetadata()
	if err != nil {
		return nil, err
	}
	c.Image, err = r.NextImage()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DecryptAudio decrypts the rest of the stream into w, one AudioChunkSize chunk at a time.
// progressFn, when set, gets the size of every chunk written.
func (r *Reader) DecryptAudio(w io.Writer, progressFn func(int)) (n int64, err error) {
	if r.cipher == nil {
		return 0, errors.Wrap(ErrReadAudio, "session key not read")
	}
	n, err = utils.ChunkedCopy(w, r, AudioChunkSize, r.cipher.XORChunk, progressFn)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrReadAudio, err)
	}
	return n, nil
}
