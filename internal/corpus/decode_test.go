package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rixingyike/rustpress/internal/errors"
)

const generatorOutput = `[
  {
    "id": 0,
    "title": "Rust 入门",
    "content": "学习 Rust 的所有权系统",
    "tags": ["rust", "教程"],
    "categories": ["tech"],
    "slug": "rust-intro",
    "date": "2024-01-02",
    "url": "/tech/rust-intro.html"
  },
  {
    "id": 1,
    "title": "About",
    "content": "",
    "tags": [],
    "categories": [],
    "slug": "about",
    "date": "",
    "url": "/about.html"
  }
]`

func TestDecode_GeneratorOutput(t *testing.T) {
	// Given: search.json as the site generator writes it
	// When: decoding
	docs, err := Decode(strings.NewReader(generatorOutput))

	// Then: every field is carried over and numeric ids become strings
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, Document{
		ID:         "0",
		Title:      "Rust 入门",
		Content:    "学习 Rust 的所有权系统",
		Tags:       []string{"rust", "教程"},
		Categories: []string{"tech"},
		URL:        "/tech/rust-intro.html",
		Date:       "2024-01-02",
		Slug:       "rust-intro",
	}, docs[0])
	assert.Equal(t, "1", docs[1].ID)
	assert.Empty(t, docs[1].Tags)
	assert.NotNil(t, docs[1].Tags)
}

func TestDecode_IDForms(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"number", `"id": 42,`, "42"},
		{"string", `"id": "post-a",`, "post-a"},
		{"null falls back to position", `"id": null,`, "0"},
		{"missing falls back to position", ``, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `[{` + tt.id + `"title":"t","content":"c","tags":[],"categories":[],"url":"/u"}]`

			docs, err := Decode(strings.NewReader(input))

			require.NoError(t, err)
			assert.Equal(t, tt.want, docs[0].ID)
		})
	}
}

func TestDecode_MissingRequiredField(t *testing.T) {
	fields := []string{"title", "content", "tags", "categories", "url"}
	full := map[string]string{
		"title":      `"title":"t"`,
		"content":    `"content":"c"`,
		"tags":       `"tags":["a"]`,
		"categories": `"categories":["b"]`,
		"url":        `"url":"/u"`,
	}

	for _, missing := range fields {
		t.Run(missing, func(t *testing.T) {
			// Given: a second entry lacking one required field
			var parts []string
			for _, f := range fields {
				if f != missing {
					parts = append(parts, full[f])
				}
			}
			good := `{"id":0,` + strings.Join(orderedFields(full, fields), ",") + `}`
			bad := `{"id":1,` + strings.Join(parts, ",") + `}`

			// When: decoding
			docs, err := Decode(strings.NewReader("[" + good + "," + bad + "]"))

			// Then: the whole load fails as malformed, naming entry and field
			require.Error(t, err)
			assert.Nil(t, docs)
			assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
			se, ok := err.(*errors.SearchError)
			require.True(t, ok)
			assert.Equal(t, "1", se.Details["position"])
			assert.Equal(t, missing, se.Details["field"])
		})
	}
}

func orderedFields(full map[string]string, order []string) []string {
	out := make([]string, 0, len(order))
	for _, f := range order {
		out = append(out, full[f])
	}
	return out
}

func TestDecode_NullFieldIsMalformed(t *testing.T) {
	input := `[{"id":0,"title":null,"content":"c","tags":[],"categories":[],"url":"/u"}]`

	_, err := Decode(strings.NewReader(input))

	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
}

func TestDecode_WrongTypeIsMalformed(t *testing.T) {
	input := `[{"id":0,"title":7,"content":"c","tags":[],"categories":[],"url":"/u"}]`

	_, err := Decode(strings.NewReader(input))

	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
}

func TestDecode_BadIDIsMalformed(t *testing.T) {
	input := `[{"id":true,"title":"t","content":"c","tags":[],"categories":[],"url":"/u"}]`

	_, err := Decode(strings.NewReader(input))

	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
}

func TestDecode_NotAnArray(t *testing.T) {
	for _, input := range []string{`{"posts":[]}`, `null`, `"x"`} {
		t.Run(input, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))

			assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
		})
	}
}

func TestDecode_InvalidJSONIsLoadFailure(t *testing.T) {
	// Given: a truncated response body
	_, err := Decode(strings.NewReader(`[{"id":0,"title":"t"`))

	// Then: it is a load failure, not a shape error
	assert.ErrorIs(t, err, errors.ErrCorpusLoadFailed)
	assert.True(t, errors.IsFatal(err))
}

func TestDecode_EmptyArray(t *testing.T) {
	docs, err := Decode(strings.NewReader(" [] "))

	require.NoError(t, err)
	assert.Empty(t, docs)
}
