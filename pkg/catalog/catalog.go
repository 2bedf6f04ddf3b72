// Package catalog keeps a sqlite record of decoded containers and can push them to a
// Meilisearch index.
package catalog

import (
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zing22845/go-ncm/pkg/dump"
)

var ErrRecordNotFound = errors.New("track record not found")

// Catalog stores TrackRecords. It is safe for concurrent use.
type Catalog struct {
	db *gorm.DB
	// sqlite allows one writer at a time
	mu sync.Mutex
}

// Open opens or creates the catalog database at dbPath
func Open(dbPath string) (*Catalog, error) {
	db, err := NewConnection(dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", dbPath)
	}
	if err = db.AutoMigrate(&TrackRecord{}); err != nil {
		CloseConnection(db)
		return nil, errors.Wrap(err, "migrate track_records")
	}
	return &Catalog{db: db}, nil
}

// Save inserts tr, or replaces the record holding the same input
func (c *Catalog) Save(tr *TrackRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "input"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "output", "format", "title", "album",
			"artists", "cover_mime", "audio_size", "decode_err",
		}),
	}).Create(tr).Error
	return errors.Wrapf(err, "save track record %s", tr.Input)
}

// Record implements dump.Recorder
func (c *Catalog) Record(res *dump.Result, decodeErr error) error {
	if res == nil {
		return nil
	}
	return c.Save(NewTrackRecord(res, decodeErr))
}

// Find returns the record of input
func (c *Catalog) Find(input string) (*TrackRecord, error) {
	tr := new(TrackRecord)
	err := c.db.Where("input = ?", input).First(tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrRecordNotFound, "input: %q", input)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find track record %s", input)
	}
	return tr, nil
}

// List returns every record ordered by input
func (c *Catalog) List() (records []*TrackRecord, err error) {
	err = c.db.Order("input").Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "list track records")
	}
	return records, nil
}

func (c *Catalog) Close() {
	CloseConnection(c.db)
}
