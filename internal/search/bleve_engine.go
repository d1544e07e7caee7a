package search

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"github.com/pders01/feedcore/internal/feed"
)

// BleveEngine indexes feed images with bleve.
type BleveEngine struct {
	idx bleve.Index
}

var (
	_ Searcher     = (*BleveEngine)(nil)
	_ Indexer      = (*BleveEngine)(nil)
	_ DebugStatser = (*BleveEngine)(nil)
)

// NewBleveEngine opens or creates the index at indexPath. An empty path
// keeps the index in memory.
func NewBleveEngine(indexPath string) (*BleveEngine, error) {
	if indexPath == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &BleveEngine{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}
	return &BleveEngine{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true
	desc.IncludeTermVectors = true

	location := bleve.NewTextFieldMapping()
	location.Analyzer = standard.Name
	location.Store = true

	u := bleve.NewTextFieldMapping()
	u.Analyzer = standard.Name
	u.Store = true

	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("location", location)
	dm.AddFieldMappingsAt("url", u)

	im.DefaultMapping = dm
	return im
}

// Index replaces the indexed snapshot with images.
func (b *BleveEngine) Index(images []feed.Image) error {
	batch := b.idx.NewBatch()

	stale, err := b.allIDs()
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(images))
	for _, img := range images {
		keep[img.ID.String()] = struct{}{}
	}
	for _, id := range stale {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}

	for _, img := range images {
		var u string
		if img.URL != nil {
			u = img.URL.String()
		}
		if err := batch.Index(img.ID.String(), map[string]any{
			"description": img.Description,
			"location":    img.Location,
			"url":         u,
		}); err != nil {
			return fmt.Errorf("indexing image %s: %w", img.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) allIDs() ([]string, error) {
	var ids []string
	from, size := 0, 1000
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, from, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return nil, fmt.Errorf("listing indexed images: %w", err)
		}
		for _, h := range res.Hits {
			ids = append(ids, h.ID)
		}
		if len(res.Hits) < size {
			return ids, nil
		}
		from += size
	}
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range []struct {
			name  string
			boost float64
		}{{"description", 2.0}, {"location", 1.5}, {"url", 0.5}} {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"description", "location", "url"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		img := feed.Image{ID: id}
		if d, ok := h.Fields["description"].(string); ok {
			img.Description = d
		}
		if l, ok := h.Fields["location"].(string); ok {
			img.Location = l
		}
		if s, ok := h.Fields["url"].(string); ok {
			img.URL, _ = url.Parse(s)
		}
		out = append(out, &Result{Image: img, Score: h.Score})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

// tokenize lowercases text and splits it on anything that is not a
// letter or digit, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}
