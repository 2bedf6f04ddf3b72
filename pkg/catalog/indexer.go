package catalog

import (
	"github.com/meilisearch/meilisearch-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultIndexBatchSize = 100

// DocumentAdder is the part of a Meilisearch index the Indexer needs
type DocumentAdder interface {
	AddDocuments(documentsPtr interface{}, primaryKey ...string) (*meilisearch.TaskInfo, error)
}

// Indexer pushes catalog records to a Meilisearch index
type Indexer struct {
	Index     DocumentAdder
	IDPrefix  string
	BatchSize int
}

// NewIndexer connects to the Meilisearch server at host
func NewIndexer(host, apiKey, indexUID, idPrefix string) *Indexer {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &Indexer{
		Index:     client.Index(indexUID),
		IDPrefix:  idPrefix,
		BatchSize: defaultIndexBatchSize,
	}
}

// Push sends records in batches and returns the number of documents sent
func (i *Indexer) Push(records []*TrackRecord) (n int, err error) {
	batchSize := i.BatchSize
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}
	defaultDoc := map[string]interface{}{"id_prefix": i.IDPrefix}
	docs := make([]map[string]interface{}, 0, batchSize)
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		task, err := i.Index.AddDocuments(docs, "id")
		if err != nil {
			return errors.Wrapf(err, "add %d documents", len(docs))
		}
		if task != nil {
			log.Debugf("meilisearch task %d enqueued with %d documents", task.TaskUID, len(docs))
		}
		n += len(docs)
		docs = make([]map[string]interface{}, 0, batchSize)
		return nil
	}
	for _, tr := range records {
		doc, err := tr.MeiliSearchDoc(defaultDoc)
		if err != nil {
			return n, err
		}
		docs = append(docs, doc)
		if len(docs) >= batchSize {
			if err = flush(); err != nil {
				return n, err
			}
		}
	}
	return n, flush()
}
