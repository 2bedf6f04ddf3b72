package tag

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// errors
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrOpenTag           = errors.New("open tag failed")
	ErrSaveTag           = errors.New("save tag failed")
)

// picture description written next to the cover
const CoverDescription = "Front cover"

// Tag edits the tag frames of an audio file. Title, album, artists and cover replace any
// value already present in the file; nothing is written before Save.
type Tag interface {
	SetTitle(title string)
	SetAlbum(album string)
	AddArtist(artist string)
	SetCover(data []byte, mime string)
	Save() error
	Close() error
}

// Open reads the tags of path, choosing the tag format from the file extension
func Open(path string) (Tag, error) {
	var (
		t   Tag
		err error
	)
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "mp3":
		t, err = openID3(path)
	case "flac":
		t, err = openFLAC(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
