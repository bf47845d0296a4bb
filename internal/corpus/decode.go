package corpus

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rixingyike/rustpress/internal/errors"
)

// rawDocument mirrors Document with pointer fields so missing and null
// values can be told apart from empty ones.
type rawDocument struct {
	ID         json.RawMessage `json:"id"`
	Title      *string         `json:"title"`
	Content    *string         `json:"content"`
	Tags       *[]string       `json:"tags"`
	Categories *[]string       `json:"categories"`
	URL        *string         `json:"url"`
	Date       *string         `json:"date"`
	Slug       *string         `json:"slug"`
}

// Decode parses a search.json array. Any entry missing a required field
// (title, content, tags, categories, url) fails the whole decode with
// ERR_201_CORPUS_MALFORMED; input that is not JSON fails with
// ERR_202_CORPUS_LOAD_FAILED. A missing id defaults to the entry position.
func Decode(r io.Reader) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.CorpusLoadFailed("failed to read corpus", err)
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) ([]Document, error) {
	if !json.Valid(data) {
		return nil, errors.CorpusLoadFailed("corpus is not valid JSON", nil)
	}

	var raws []rawDocument
	if err := json.Unmarshal(data, &raws); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.CorpusMalformed("corpus has the wrong shape", err).
				WithDetail("field", typeErr.Field)
		}
		return nil, errors.CorpusLoadFailed("failed to decode corpus", err)
	}
	if raws == nil && !bytes.Equal(bytes.TrimSpace(data), []byte("[]")) {
		return nil, errors.CorpusMalformed("corpus must be a JSON array", nil)
	}

	docs := make([]Document, 0, len(raws))
	for i, raw := range raws {
		doc, err := raw.document(i)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r rawDocument) document(pos int) (Document, error) {
	missing := func(field string) error {
		return errors.CorpusMalformed(fmt.Sprintf("entry %d has no %s", pos, field), nil).
			WithDetail("position", strconv.Itoa(pos)).
			WithDetail("field", field)
	}

	switch {
	case r.Title == nil:
		return Document{}, missing("title")
	case r.Content == nil:
		return Document{}, missing("content")
	case r.Tags == nil:
		return Document{}, missing("tags")
	case r.Categories == nil:
		return Document{}, missing("categories")
	case r.URL == nil:
		return Document{}, missing("url")
	}

	id, err := decodeID(r.ID, pos)
	if err != nil {
		return Document{}, errors.CorpusMalformed(fmt.Sprintf("entry %d has an invalid id", pos), err).
			WithDetail("position", strconv.Itoa(pos)).
			WithDetail("field", "id")
	}

	doc := Document{
		ID:         id,
		Title:      *r.Title,
		Content:    *r.Content,
		Tags:       *r.Tags,
		Categories: *r.Categories,
		URL:        *r.URL,
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Slug != nil {
		doc.Slug = *r.Slug
	}
	return doc, nil
}

// decodeID accepts a JSON number or string. Absent or null ids fall back to
// the entry position, which is what the generator writes anyway.
func decodeID(raw json.RawMessage, pos int) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return strconv.Itoa(pos), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", err
		}
		return strings.TrimSpace(n.String()), nil
	}
}
