package ncm

import (
	"errors"
)

// container layout
const (
	MagicStr          = "CTENFDAM"
	MagicLen          = len(MagicStr)
	VersionLen        = 2
	HeaderLen         = MagicLen + VersionLen
	LengthBytesLen    = 4
	KeyXOR            = 0x64
	MetaXOR           = 0x63
	KeyPrefixLen      = 17 // "neteasecloudmusic"
	MetaPrefixLen     = 22 // "163 key(Don't modify):"
	MetaJSONPrefixLen = 6  // "music:"
	MetaGapLen        = 9
	KeyBoxSize        = 256
	AudioChunkSize    = 0x8000
	AESBlockSize      = 16
)

// fixed AES-128 keys of the format
var (
	CodeKey = [AESBlockSize]byte{
		0x68, 0x7A, 0x48, 0x52, 0x41, 0x6D, 0x73, 0x6F,
		0x35, 0x6B, 0x49, 0x6E, 0x62, 0x61, 0x78, 0x57,
	}
	MetaKey = [AESBlockSize]byte{
		0x23, 0x31, 0x34, 0x6C, 0x6A, 0x6B, 0x5F, 0x21,
		0x5C, 0x5D, 0x26, 0x30, 0x55, 0x3C, 0x27, 0x28,
	}
	PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	Magic        = []byte(MagicStr)
)

// cover mime types
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// errors
var (
	ErrReadHeader       = errors.New("read header failed")
	ErrReadLength       = errors.New("read block length failed")
	ErrReadKey          = errors.New("read key block failed")
	ErrReadMetadata     = errors.New("read metadata block failed")
	ErrReadImage        = errors.New("read image block failed")
	ErrReadAudio        = errors.New("read audio block failed")
	ErrDecrypt          = errors.New("decrypt failed")
	ErrPadding          = errors.New("invalid pkcs7 padding")
	ErrKeyTooShort      = errors.New("decrypted key block too short")
	ErrEmptySessionKey  = errors.New("empty session key")
	ErrMetadataTooShort = errors.New("metadata block too short")
	ErrDecodeBase64     = errors.New("decode metadata base64 failed")
	ErrParseMetadata    = errors.New("parse metadata failed")
	ErrMissingField     = errors.New("missing metadata field")
)

// Container holds everything read ahead of the audio block. None of it outlives one decode.
type Container struct {
	Magic      []byte
	ValidMagic bool
	SessionKey []byte
	Metadata   *Metadata
	Image      []byte
}

// CoverMIME returns the sniffed mime type of the cover image
func (c *Container) CoverMIME() string {
	return ImageMIME(c.Image)
}
