package tag

import (
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/pkg/errors"
)

type flacTag struct {
	path         string
	file         *flac.File
	comments     *flacvorbis.MetaDataBlockVorbisComment
	artistsReset bool
}

func openFLAC(path string) (*flacTag, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenTag, "%s: %v", path, err)
	}
	t := &flacTag{path: path, file: f}
	for _, m := range f.Meta {
		if m.Type == flac.VorbisComment {
			t.comments, err = flacvorbis.ParseFromMetaDataBlock(*m)
			if err != nil {
				return nil, errors.Wrapf(ErrOpenTag, "%s: %v", path, err)
			}
			break
		}
	}
	if t.comments == nil {
		t.comments = flacvorbis.New()
	}
	return t, nil
}

// deleteField drops every comment of the given field name
func (t *flacTag) deleteField(field string) {
	prefix := strings.ToUpper(field) + "="
	kept := t.comments.Comments[:0]
	for _, cmt := range t.comments.Comments {
		if !strings.HasPrefix(strings.ToUpper(cmt), prefix) {
			kept = append(kept, cmt)
		}
	}
	t.comments.Comments = kept
}

func (t *flacTag) replaceField(field, value string) {
	t.deleteField(field)
	_ = t.comments.Add(field, value)
}

func (t *flacTag) SetTitle(title string) {
	t.replaceField(flacvorbis.FIELD_TITLE, title)
}

func (t *flacTag) SetAlbum(album string) {
	t.replaceField(flacvorbis.FIELD_ALBUM, album)
}

// AddArtist appends one ARTIST comment; the ones read from the file are dropped on first use
func (t *flacTag) AddArtist(artist string) {
	if !t.artistsReset {
		t.deleteField(flacvorbis.FIELD_ARTIST)
		t.artistsReset = true
	}
	_ = t.comments.Add(flacvorbis.FIELD_ARTIST, artist)
}

func (t *flacTag) SetCover(data []byte, mime string) {
	pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, CoverDescription, data, mime)
	if err != nil {
		// image data that does not decode is still stored as is
		pic = &flacpicture.MetadataBlockPicture{
			PictureType: flacpicture.PictureTypeFrontCover,
			MIME:        mime,
			Description: CoverDescription,
			ImageData:   data,
		}
	}
	meta := make([]*flac.MetaDataBlock, 0, len(t.file.Meta)+1)
	for _, m := range t.file.Meta {
		if m.Type != flac.Picture {
			meta = append(meta, m)
		}
	}
	block := pic.Marshal()
	t.file.Meta = append(meta, &block)
}

func (t *flacTag) Save() error {
	block := t.comments.Marshal()
	replaced := false
	for i, m := range t.file.Meta {
		if m.Type == flac.VorbisComment {
			t.file.Meta[i] = &block
			replaced = true
			break
		}
	}
	if !replaced {
		t.file.Meta = append(t.file.Meta, &block)
	}
	if err := t.file.Save(t.path); err != nil {
		return errors.Wrap(ErrSaveTag, err.Error())
	}
	return nil
}

func (t *flacTag) Close() error {
	return nil
}
