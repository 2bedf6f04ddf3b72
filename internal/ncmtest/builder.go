// Package ncmtest builds synthetic containers for tests.
package ncmtest

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"encoding/binary"

	"github.com/zing22845/go-ncm/pkg/ncm"
)

var (
	KeyPrefix  = []byte("neteasecloudmusic")
	MetaPrefix = []byte("163 key(Don't modify):")
	JSONPrefix = []byte("music:")
)

// Builder assembles a container from plaintext parts
type Builder struct {
	Header     []byte // defaults to 10 zero bytes
	SessionKey []byte
	MetaJSON   []byte
	Image      []byte
	Audio      []byte
}

// EncryptECB pads with PKCS7 and encrypts with AES-128 ECB
func EncryptECB(key [ncm.AESBlockSize]byte, plaintext []byte) []byte {
	padLen := ncm.AESBlockSize - len(plaintext)%ncm.AESBlockSize
	padded := append(bytes.Clone(plaintext), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
	return EncryptBlocks(key, padded)
}

// EncryptBlocks encrypts whole blocks with AES-128 ECB, without padding
func EncryptBlocks(key [ncm.AESBlockSize]byte, data []byte) []byte {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	if len(data)%ncm.AESBlockSize != 0 {
		panic("data is not a multiple of the block size")
	}
	out := make([]byte, len(data))
	for bs := 0; bs < len(data); bs += ncm.AESBlockSize {
		block.Encrypt(out[bs:bs+ncm.AESBlockSize], data[bs:bs+ncm.AESBlockSize])
	}
	return out
}

// XOR returns a masked copy of data
func XOR(data []byte, mask byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ mask
	}
	return out
}

// EncryptAudio applies the audio cipher chunk by chunk
func EncryptAudio(key, plain []byte) []byte {
	c, err := ncm.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := bytes.Clone(plain)
	for start := 0; start < len(out); start += ncm.AudioChunkSize {
		end := min(start+ncm.AudioChunkSize, len(out))
		c.XORChunk(out[start:end])
	}
	return out
}

// KeyBlock returns the obfuscated key block for a session key
func KeyBlock(sessionKey []byte) []byte {
	plaintext := append(bytes.Clone(KeyPrefix), sessionKey...)
	return XOR(EncryptECB(ncm.CodeKey, plaintext), ncm.KeyXOR)
}

// MetaBlock returns the obfuscated metadata block for a JSON text
func MetaBlock(metaJSON []byte) []byte {
	plaintext := append(bytes.Clone(JSONPrefix), metaJSON...)
	encoded := base64.StdEncoding.EncodeToString(EncryptECB(ncm.MetaKey, plaintext))
	return XOR(append(bytes.Clone(MetaPrefix), encoded...), ncm.MetaXOR)
}

func writeBlock(buf *bytes.Buffer, block []byte) {
	lenBytes := make([]byte, ncm.LengthBytesLen)
	binary.LittleEndian.PutUint32(lenBytes, uint32(len(block)))
	buf.Write(lenBytes)
	buf.Write(block)
}

// Bytes returns the whole container
func (b *Builder) Bytes() []byte {
	buf := bytes.NewBuffer(nil)
	header := b.Header
	if header == nil {
		header = make([]byte, ncm.HeaderLen)
	}
	buf.Write(header)
	writeBlock(buf, KeyBlock(b.SessionKey))
	writeBlock(buf, MetaBlock(b.MetaJSON))
	buf.Write(make([]byte, ncm.MetaGapLen))
	writeBlock(buf, b.Image)
	buf.Write(EncryptAudio(b.SessionKey, b.Audio))
	return buf.Bytes()
}
