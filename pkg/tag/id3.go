package tag

import (
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/pkg/errors"
)

// id3Tag collects the artists and writes them as one TPE1 frame on Save, since id3v2 keeps a
// single frame per text frame id
type id3Tag struct {
	tag     *id3v2.Tag
	artists []string
}

func openID3(path string) (*id3Tag, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, errors.Wrapf(ErrOpenTag, "%s: %v", path, err)
	}
	if t.Version() == 4 {
		t.SetDefaultEncoding(id3v2.EncodingUTF8)
	} else {
		t.SetDefaultEncoding(id3v2.EncodingUTF16)
	}
	return &id3Tag{tag: t}, nil
}

func (t *id3Tag) SetTitle(title string) {
	t.tag.SetTitle(title)
}

func (t *id3Tag) SetAlbum(album string) {
	t.tag.SetAlbum(album)
}

func (t *id3Tag) AddArtist(artist string) {
	t.artists = append(t.artists, artist)
}

func (t *id3Tag) SetCover(data []byte, mime string) {
	t.tag.DeleteFrames(t.tag.CommonID("Attached picture"))
	t.tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    t.tag.DefaultEncoding(),
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: CoverDescription,
		Picture:     data,
	})
}

func (t *id3Tag) Save() error {
	if len(t.artists) > 0 {
		// v2.4 separates multiple values with a null byte, v2.3 readers expect a slash
		sep := "/"
		if t.tag.Version() == 4 {
			sep = "\x00"
		}
		t.tag.SetArtist(strings.Join(t.artists, sep))
	}
	if err := t.tag.Save(); err != nil {
		return errors.Wrap(ErrSaveTag, err.Error())
	}
	return nil
}

func (t *id3Tag) Close() error {
	return t.tag.Close()
}
