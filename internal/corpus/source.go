package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rixingyike/rustpress/internal/errors"
)

// DefaultMaxBytes caps the size of a fetched corpus.
const DefaultMaxBytes = 64 << 20

// FetchOptions configures Fetch.
type FetchOptions struct {
	// Timeout bounds the whole fetch. Zero means no timeout beyond ctx.
	Timeout time.Duration
	// Client is used for http(s) sources; nil means http.DefaultClient.
	Client *http.Client
	// MaxBytes caps the body size; zero means DefaultMaxBytes.
	MaxBytes int64
}

// IsURL reports whether source names an http(s) corpus.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch reads the raw corpus from a local path or an http(s) URL. Every
// failure is reported as ERR_202_CORPUS_LOAD_FAILED.
func Fetch(ctx context.Context, source string, opts FetchOptions) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if IsURL(source) {
		return fetchHTTP(ctx, source, opts.Client, maxBytes)
	}
	return readFile(ctx, source, maxBytes)
}

func fetchHTTP(ctx context.Context, url string, client *http.Client, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, loadFailed(url, "invalid corpus URL", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, loadFailed(url, "failed to fetch corpus", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, loadFailed(url, fmt.Sprintf("corpus request returned %s", resp.Status), nil).
			WithDetail("status", strconv.Itoa(resp.StatusCode))
	}

	return readLimited(resp.Body, url, maxBytes)
}

func readFile(ctx context.Context, path string, maxBytes int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadFailed(path, "corpus load cancelled", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, loadFailed(path, "failed to open corpus", err).
			WithSuggestion("Build the site first so search.json exists")
	}
	defer f.Close()
	return readLimited(f, path, maxBytes)
}

func readLimited(r io.Reader, source string, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, loadFailed(source, "failed to read corpus", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, loadFailed(source, fmt.Sprintf("corpus exceeds %d bytes", maxBytes), nil)
	}
	return data, nil
}

func loadFailed(source, msg string, cause error) *errors.SearchError {
	return errors.CorpusLoadFailed(msg, cause).WithDetail("source", source)
}

// LoadSource fetches and decodes a corpus.
func LoadSource(ctx context.Context, source string, opts FetchOptions) ([]Document, error) {
	data, err := Fetch(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeBytes(data)
	if err != nil {
		if se, ok := err.(*errors.SearchError); ok {
			se.WithDetail("source", source)
		}
		return nil, err
	}
	return docs, nil
}
