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

package ncm_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zing22845/go-ncm/internal/ncmtest"
	"github.com/zing22845/go-ncm/pkg/ncm"
)

var (
	sessionKey = []byte("58917829350212E7fT49x7dof9OKCgg9cdvhEuezy3iZCL1nFvBFd1T4uSktAJKmwZXsijPbijliionVUXXg9plTbXEclAE9Lb")
	songJSON   = []byte(`{"format":"mp3","musicName":"Song","artist":[["Artist",1]],"album":"Album"}`)
)

func testAudio(size int) []byte {
	audio := make([]byte, size)
	for i := range audio {
		audio[i] = byte(i*31 + i/256)
	}
	return audio
}

func TestReaderHeader(t *testing.T) {
	b := &ncmtest.Builder{
		Header:     append([]byte(ncm.MagicStr), 0x01, 0x70),
		SessionKey: sessionKey,
		MetaJSON:   songJSON,
		Image:      ncm.PNGSignature,
		Audio:      testAudio(10),
	}
	r := ncm.NewReader(bytes.NewReader(b.Bytes()))
	c, err := r.ReadHeader()
	require.NoError(t, err)
	assert.True(t, c.ValidMagic)
	assert.Equal(t, sessionKey, c.SessionKey)
	assert.Equal(t, "Song", c.Metadata.MusicName)
	assert.Equal(t, "mp3", c.Metadata.Format)
	assert.Equal(t, "Album", c.Metadata.Album)
	assert.Equal(t, "Artist", c.Metadata.JoinedArtists())
	assert.Equal(t, ncm.PNGSignature, c.Image)
	assert.Equal(t, ncm.MIMEPNG, c.CoverMIME())
}

func TestReaderZeroHeader(t *testing.T) {
	b := &ncmtest.Builder{SessionKey: sessionKey, MetaJSON: songJSON}
	c, err := ncm.NewReader(bytes.NewReader(b.Bytes())).ReadHeader()
	require.NoError(t, err)
	assert.False(t, c.ValidMagic)
	assert.Empty(t, c.Image)
	assert.Equal(t, ncm.MIMEJPEG, c.CoverMIME())
}

func TestReaderDecryptAudio(t *testing.T) {
	for _, size := range []int{0, 1, 255, ncm.AudioChunkSize, ncm.AudioChunkSize + 1, 3*ncm.AudioChunkSize + 777} {
		audio := testAudio(size)
		b := &ncmtest.Builder{SessionKey: sessionKey, MetaJSON: songJSON, Image: []byte{0xff, 0xd8}, Audio: audio}
		r := ncm.NewReader(bytes.NewReader(b.Bytes()))
		_, err := r.ReadHeader()
		require.NoError(t, err)

		out := bytes.NewBuffer(nil)
		n, err := r.DecryptAudio(out, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(size), n)
		assert.Equal(t, audio, out.Bytes(), "size %d", size)
	}
}

func TestReaderShortReads(t *testing.T) {
	// chunk boundaries must not depend on how the source splits its reads
	audio := testAudio(2*ncm.AudioChunkSize + 100)
	b := &ncmtest.Builder{SessionKey: sessionKey, MetaJSON: songJSON, Audio: audio}
	r := ncm.NewReader(iotest.HalfReader(bytes.NewReader(b.Bytes())))
	_, err := r.ReadHeader()
	require.NoError(t, err)
	out := bytes.NewBuffer(nil)
	_, err = r.DecryptAudio(out, nil)
	require.NoError(t, err)
	assert.Equal(t, audio, out.Bytes())
}

func TestReaderDecryptBeforeKey(t *testing.T) {
	r := ncm.NewReader(bytes.NewReader(nil))
	_, err := r.DecryptAudio(io.Discard, nil)
	assert.ErrorIs(t, err, ncm.ErrReadAudio)
}

func TestReaderTruncated(t *testing.T) {
	b := &ncmtest.Builder{SessionKey: sessionKey, MetaJSON: songJSON, Image: ncm.PNGSignature}
	full := b.Bytes()
	keyEnd := ncm.HeaderLen + ncm.LengthBytesLen + len(ncmtest.KeyBlock(sessionKey))
	imageStart := len(full) - ncm.LengthBytesLen - len(ncm.PNGSignature)
	// every cut inside the header blocks is an I/O error carrying the sentinel of its block
	cases := []struct {
		cut  int
		errs []error
	}{
		{0, []error{ncm.ErrReadHeader}},
		{5, []error{ncm.ErrReadHeader}},
		{ncm.HeaderLen + 2, []error{ncm.ErrReadKey, ncm.ErrReadLength}},
		{ncm.HeaderLen + 20, []error{ncm.ErrReadKey}},
		{keyEnd + 2, []error{ncm.ErrReadMetadata, ncm.ErrReadLength}},
		{keyEnd + 10, []error{ncm.ErrReadMetadata}},
		{imageStart - 4, []error{ncm.ErrReadMetadata}},
		{imageStart + 2, []error{ncm.ErrReadImage, ncm.ErrReadLength}},
		{len(full) - 1, []error{ncm.ErrReadImage}},
	}
	for _, c := range cases {
		_, err := ncm.NewReader(bytes.NewReader(full[:c.cut])).ReadHeader()
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut %d", c.cut)
		for _, target := range c.errs {
			assert.ErrorIs(t, err, target, "cut %d", c.cut)
		}
	}
}

func TestReaderProgress(t *testing.T) {
	audio := testAudio(2*ncm.AudioChunkSize + 10)
	b := &ncmtest.Builder{SessionKey: sessionKey, MetaJSON: songJSON, Audio: audio}
	container := b.Bytes()
	r := ncm.NewReader(bytes.NewReader(container))
	_, err := r.ReadHeader()
	require.NoError(t, err)

	var chunks []int
	n, err := r.DecryptAudio(io.Discard, func(size int) {
		chunks = append(chunks, size)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(audio)), n)
	assert.Equal(t, []int{ncm.AudioChunkSize, ncm.AudioChunkSize, 10}, chunks)
	assert.Equal(t, int64(len(container)), r.ReadSize)
}

func rawBlock(data []byte) []byte {
	out := make([]byte, ncm.LengthBytesLen, ncm.LengthBytesLen+len(data))
	binary.LittleEndian.PutUint32(out, uint32(len(data)))
	return append(out, data...)
}

func readKey(stream []byte) ([]byte, error) {
	r := ncm.NewReader(bytes.NewReader(stream))
	if _, _, err := r.SkipHeader(); err != nil {
		return nil, err
	}
	return r.NextKey()
}

func base64Encode(data []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(data))
}

func TestReaderKeyErrors(t *testing.T) {
	header := make([]byte, ncm.HeaderLen)

	// not a multiple of the block size
	stream := append(append([]byte{}, header...), rawBlock(make([]byte, 20))...)
	_, err := readKey(stream)
	assert.ErrorIs(t, err, ncm.ErrDecrypt)

	// last plaintext byte 0x00 is never valid padding
	bad := ncmtest.XOR(ncmtest.EncryptBlocks(ncm.CodeKey, make([]byte, 32)), ncm.KeyXOR)
	stream = append(append([]byte{}, header...), rawBlock(bad)...)
	_, err = readKey(stream)
	assert.ErrorIs(t, err, ncm.ErrPadding)

	// prefix only
	short := ncmtest.XOR(ncmtest.EncryptECB(ncm.CodeKey, ncmtest.KeyPrefix), ncm.KeyXOR)
	stream = append(append([]byte{}, header...), rawBlock(short)...)
	_, err = readKey(stream)
	assert.ErrorIs(t, err, ncm.ErrEmptySessionKey)

	tooShort := ncmtest.XOR(ncmtest.EncryptECB(ncm.CodeKey, []byte("neteasecloud")), ncm.KeyXOR)
	stream = append(append([]byte{}, header...), rawBlock(tooShort)...)
	_, err = readKey(stream)
	assert.ErrorIs(t, err, ncm.ErrKeyTooShort)
}

func TestUnwrapMetadataErrors(t *testing.T) {
	_, err := ncm.UnwrapMetadata(ncmtest.XOR([]byte("163 key"), ncm.MetaXOR))
	assert.ErrorIs(t, err, ncm.ErrMetadataTooShort)

	notBase64 := append(append([]byte{}, ncmtest.MetaPrefix...), "!!!not base64!!!"...)
	_, err = ncm.UnwrapMetadata(ncmtest.XOR(notBase64, ncm.MetaXOR))
	assert.ErrorIs(t, err, ncm.ErrDecodeBase64)

	wrongKey := ncmtest.EncryptECB(ncm.CodeKey, append([]byte("music:"), songJSON...))
	block := append(append([]byte{}, ncmtest.MetaPrefix...), base64Encode(wrongKey)...)
	_, err = ncm.UnwrapMetadata(ncmtest.XOR(block, ncm.MetaXOR))
	assert.Error(t, err)

	missing := ncmtest.MetaBlock([]byte(`{"format":"mp3","musicName":"Song","artist":[]}`))
	_, err = ncm.UnwrapMetadata(missing)
	assert.ErrorIs(t, err, ncm.ErrMissingField)

	meta, err := ncm.UnwrapMetadata(ncmtest.MetaBlock(songJSON))
	require.NoError(t, err)
	assert.Equal(t, "Song", meta.MusicName)
}
