package index

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/errors"
)

// textAnalyzerName is the bleve analyzer matching Tokenize.
const textAnalyzerName = "rustpress_text"

// BleveIndex ranks with bleve's TF-IDF scoring, one text field per document
// field, each boosted by its configured weight. Bleve keys documents by
// corpus position.
type BleveIndex struct {
	mu    sync.RWMutex
	cfg   Config
	index bleve.Index
	ids   []string
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex returns an unbuilt bleve index. The in-memory bleve index
// itself is created on Build.
func NewBleveIndex(cfg Config) *BleveIndex {
	return &BleveIndex{cfg: cfg}
}

func (b *BleveIndex) createMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomAnalyzer(textAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     bleveunicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	im.DefaultAnalyzer = textAnalyzerName

	dm := bleve.NewDocumentMapping()
	dm.Dynamic = false
	for _, f := range b.cfg.Fields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = textAnalyzerName
		fm.Store = false
		fm.IncludeInAll = false
		dm.AddFieldMappingsAt(f.Name, fm)
	}
	im.DefaultMapping = dm

	return im, nil
}

// Build replaces the bleve index with a fresh in-memory one holding docs.
func (b *BleveIndex) Build(ctx context.Context, docs []corpus.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closeLocked()

	im, err := b.createMapping()
	if err != nil {
		return buildFailed(BackendBleve, err)
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return buildFailed(BackendBleve, err)
	}

	batch := idx.NewBatch()
	ids := make([]string, len(docs))
	for pos, doc := range docs {
		if err := ctx.Err(); err != nil {
			_ = idx.Close()
			return buildFailed(BackendBleve, err)
		}
		ids[pos] = doc.ID

		fields := make(map[string]interface{}, len(b.cfg.Fields))
		for _, f := range b.cfg.Fields {
			fields[f.Name] = fieldValues(doc, f.Name)
		}
		if err := batch.Index(strconv.Itoa(pos), fields); err != nil {
			_ = idx.Close()
			return buildFailed(BackendBleve, fmt.Errorf("failed to index document %s: %w", doc.ID, err))
		}
	}
	if batch.Size() == 0 {
		b.index = idx
		b.ids = ids
		return nil
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return buildFailed(BackendBleve, fmt.Errorf("failed to execute batch: %w", err))
	}

	b.index = idx
	b.ids = ids
	return nil
}

// Search runs one boosted match query per field, joined in a disjunction.
func (b *BleveIndex) Search(ctx context.Context, q string) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return nil, errors.IndexNotBuilt(BackendBleve)
	}
	if len(uniqueTokens(q)) == 0 || len(b.ids) == 0 {
		return []Hit{}, nil
	}

	queries := make([]query.Query, 0, len(b.cfg.Fields))
	for _, f := range b.cfg.Fields {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(f.Name)
		mq.SetBoost(f.Weight)
		queries = append(queries, mq)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), len(b.ids), 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil || pos < 0 || pos >= len(b.ids) || h.Score <= 0 {
			continue
		}
		hits = append(hits, Hit{DocID: b.ids[pos], Position: pos, Score: h.Score})
	}
	SortHits(hits)
	return hits, nil
}

// Stats implements Index.
func (b *BleveIndex) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := Stats{Backend: BackendBleve, Built: b.index != nil}
	if b.index != nil {
		if n, err := b.index.DocCount(); err == nil {
			st.Documents = int(n)
		}
	}
	return st
}

// Close releases the bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *BleveIndex) closeLocked() error {
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil
	b.ids = nil
	return err
}
