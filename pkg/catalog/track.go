package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/zing22845/go-ncm/pkg/dump"
)

var regInvalidDocID = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// TrackRecord is the catalog row of one decoded container
type TrackRecord struct {
	gorm.Model
	Input     string `gorm:"column:input;type:varchar(4096);uniqueIndex:uk_input"`
	Output    string `gorm:"column:output;type:varchar(4096)"`
	Format    string `gorm:"column:format;type:varchar(16)"`
	Title     string `gorm:"column:title;type:text"`
	Album     string `gorm:"column:album;type:text"`
	Artists   string `gorm:"column:artists;type:text"`
	CoverMIME string `gorm:"column:cover_mime;type:varchar(32)"`
	AudioSize int64  `gorm:"column:audio_size;type:bigint"`
	DecodeErr string `gorm:"column:decode_err;type:text"`
}

func (TrackRecord) TableName() string {
	return "track_records"
}

// NewTrackRecord flattens a decode result, res may be partial when decodeErr is set
func NewTrackRecord(res *dump.Result, decodeErr error) *TrackRecord {
	tr := &TrackRecord{
		Input:     res.Input,
		Output:    res.Output,
		CoverMIME: res.CoverMIME,
		AudioSize: res.AudioSize,
	}
	if res.Metadata != nil {
		tr.Format = res.Metadata.Format
		tr.Title = res.Metadata.MusicName
		tr.Album = res.Metadata.Album
		tr.Artists = res.Metadata.JoinedArtists()
	}
	if decodeErr != nil {
		tr.DecodeErr = decodeErr.Error()
	}
	return tr
}

// MeiliSearchDoc converts the record to a search document merged with defaultDoc.
// defaultDoc must carry a non empty "id_prefix".
func (tr *TrackRecord) MeiliSearchDoc(
	defaultDoc map[string]interface{},
) (
	meilisearchDoc map[string]interface{},
	err error,
) {
	meilisearchDoc = make(map[string]interface{})
	idPrefix := ""
	for k, v := range defaultDoc {
		if k == "id_prefix" {
			idPrefix, _ = v.(string)
			continue
		}
		meilisearchDoc[k] = v
	}
	if idPrefix == "" {
		return nil, fmt.Errorf("id_prefix is empty")
	}
	meilisearchDoc["id"] = DocumentID(idPrefix, tr.Input)
	meilisearchDoc["input"] = tr.Input
	meilisearchDoc["output"] = tr.Output
	meilisearchDoc["format"] = tr.Format
	meilisearchDoc["title"] = tr.Title
	meilisearchDoc["album"] = tr.Album
	meilisearchDoc["artists"] = tr.Artists
	meilisearchDoc["cover_mime"] = tr.CoverMIME
	meilisearchDoc["audio_size"] = tr.AudioSize
	meilisearchDoc["decode_error"] = tr.DecodeErr
	return meilisearchDoc, nil
}

// DocumentID returns a search document id for input: the sanitized prefix and the hex sha256
// of input. Distinct inputs never share an id and the id length does not grow with the path.
func DocumentID(idPrefix, input string) string {
	sum := sha256.Sum256([]byte(input))
	return SanitizeString(idPrefix) + "_" + hex.EncodeToString(sum[:])
}

// SanitizeString replaces every character a document id may not hold with '-'
func SanitizeString(input string) string {
	return regInvalidDocID.ReplaceAllString(input, "-")
}
