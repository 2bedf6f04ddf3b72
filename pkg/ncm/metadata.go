package ncm

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Artist is one [name, id] pair of the metadata record
type Artist []interface{}

// Name returns the first element of the pair when it is a string
func (a Artist) Name() (string, bool) {
	if len(a) == 0 {
		return "", false
	}
	name, ok := a[0].(string)
	return name, ok
}

// Metadata is the JSON record stored in the metadata block. Only format, musicName, artist
// and album are checked; ids, duration and mp3DocId vary in type between files and are kept raw.
type Metadata struct {
	Format     string          `json:"format"`
	MusicName  string          `json:"musicName"`
	Artist     []Artist        `json:"artist"`
	Album      string          `json:"album"`
	Bitrate    *int64          `json:"bitrate,omitempty"`
	TransNames []string        `json:"transNames,omitempty"`
	AlbumPic   *string         `json:"albumPic,omitempty"`
	MusicID    json.RawMessage `json:"musicId,omitempty"`
	AlbumID    json.RawMessage `json:"albumId,omitempty"`
	Duration   json.RawMessage `json:"duration,omitempty"`
	MP3DocID   json.RawMessage `json:"mp3DocId,omitempty"`
}

type rawMetadata struct {
	Format     *string         `json:"format"`
	MusicName  *string         `json:"musicName"`
	Artist     *[]Artist       `json:"artist"`
	Album      *string         `json:"album"`
	Bitrate    *int64          `json:"bitrate"`
	TransNames []string        `json:"transNames"`
	AlbumPic   *string         `json:"albumPic"`
	MusicID    json.RawMessage `json:"musicId"`
	AlbumID    json.RawMessage `json:"albumId"`
	Duration   json.RawMessage `json:"duration"`
	MP3DocID   json.RawMessage `json:"mp3DocId"`
}

// ArtistNames projects the artist pairs onto their names, skipping pairs whose first
// element is not a string
func (m *Metadata) ArtistNames() []string {
	names := make([]string, 0, len(m.Artist))
	for _, artist := range m.Artist {
		if name, ok := artist.Name(); ok {
			names = append(names, name)
		}
	}
	return names
}

// JoinedArtists returns the artist names joined by a comma
func (m *Metadata) JoinedArtists() string {
	return strings.Join(m.ArtistNames(), ",")
}

// ParseMetadata parses the decrypted JSON text. format, musicName, artist and album are required.
func ParseMetadata(data []byte) (*Metadata, error) {
	if !utf8.Valid(data) {
		return nil, errors.Wrap(ErrParseMetadata, "invalid utf-8")
	}
	raw := &rawMetadata{}
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, errors.Wrap(ErrParseMetadata, err.Error())
	}
	switch {
	case raw.Format == nil:
		return nil, errors.Wrap(ErrMissingField, "format")
	case raw.MusicName == nil:
		return nil, errors.Wrap(ErrMissingField, "musicName")
	case raw.Artist == nil:
		return nil, errors.Wrap(ErrMissingField, "artist")
	case raw.Album == nil:
		return nil, errors.Wrap(ErrMissingField, "album")
	}
	return &Metadata{
		Format:     *raw.Format,
		MusicName:  *raw.MusicName,
		Artist:     *raw.Artist,
		Album:      *raw.Album,
		Bitrate:    raw.Bitrate,
		TransNames: raw.TransNames,
		AlbumPic:   raw.AlbumPic,
		MusicID:    raw.MusicID,
		AlbumID:    raw.AlbumID,
		Duration:   raw.Duration,
		MP3DocID:   raw.MP3DocID,
	}, nil
}

// UnwrapMetadata decodes the raw metadata block (without its trailing gap). The block is
// modified in place.
func UnwrapMetadata(block []byte) (*Metadata, error) {
	xorBytes(block, MetaXOR)
	if len(block) < MetaPrefixLen {
		return nil, errors.Wrapf(ErrMetadataTooShort, "got %d bytes", len(block))
	}
	encoded := block[MetaPrefixLen:]
	ciphertext := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(ciphertext, encoded)
	if err != nil {
		return nil, errors.Wrap(ErrDecodeBase64, err.Error())
	}
	plaintext, err := decryptECB(MetaKey, ciphertext[:n])
	if err != nil {
		return nil, errors.Wrap(err, "unwrap metadata")
	}
	if len(plaintext) < MetaJSONPrefixLen {
		return nil, errors.Wrapf(ErrMetadataTooShort, "decrypted %d bytes", len(plaintext))
	}
	return ParseMetadata(plaintext[MetaJSONPrefixLen:])
}
