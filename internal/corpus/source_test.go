package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rixingyike/rustpress/internal/errors"
)

func TestLoadSource_File(t *testing.T) {
	// Given: search.json on disk
	path := filepath.Join(t.TempDir(), "search.json")
	require.NoError(t, os.WriteFile(path, []byte(generatorOutput), 0o644))

	// When: loading it
	docs, err := LoadSource(context.Background(), path, FetchOptions{})

	// Then: documents are decoded
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestLoadSource_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")

	_, err := LoadSource(context.Background(), path, FetchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorpusLoadFailed)
	se := err.(*errors.SearchError)
	assert.Equal(t, path, se.Details["source"])
	assert.NotEmpty(t, se.Suggestion)
}

func TestLoadSource_HTTP(t *testing.T) {
	// Given: a server publishing search.json
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generatorOutput))
	}))
	defer srv.Close()

	// When: loading from the URL
	docs, err := LoadSource(context.Background(), srv.URL+"/search.json", FetchOptions{Client: srv.Client()})

	// Then: documents are decoded
	require.NoError(t, err)
	assert.Equal(t, "/tech/rust-intro.html", docs[0].URL)
}

func TestFetch_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL+"/search.json", FetchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorpusLoadFailed)
	assert.Equal(t, "404", err.(*errors.SearchError).Details["status"])
}

func TestFetch_Timeout(t *testing.T) {
	// Given: a server slower than the timeout
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	// When: fetching with a short timeout
	_, err := Fetch(context.Background(), srv.URL, FetchOptions{Timeout: 50 * time.Millisecond})

	// Then: the fetch fails as a load failure
	assert.ErrorIs(t, err, errors.ErrCorpusLoadFailed)
}

func TestFetch_MaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.json")
	require.NoError(t, os.WriteFile(path, []byte(generatorOutput), 0o644))

	_, err := Fetch(context.Background(), path, FetchOptions{MaxBytes: 10})

	assert.ErrorIs(t, err, errors.ErrCorpusLoadFailed)
}

func TestLoadSource_MalformedBodyCarriesSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":0}]`))
	}))
	defer srv.Close()

	_, err := LoadSource(context.Background(), srv.URL, FetchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorpusMalformed)
	assert.Equal(t, srv.URL, err.(*errors.SearchError).Details["source"])
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/search.json"))
	assert.True(t, IsURL("http://localhost:1111/search.json"))
	assert.False(t, IsURL("public/search.json"))
	assert.False(t, IsURL("ftp://example.com/search.json"))
}
