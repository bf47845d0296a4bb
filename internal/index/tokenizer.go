package index

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

var (
	wordTokenizer = bleveunicode.NewUnicodeTokenizer()
	lowerFilter   = lowercase.NewLowerCaseFilter()
)

// Tokenize splits text on Unicode word boundaries (UAX#29) and lowercases
// the result. Punctuation and whitespace are dropped; each CJK ideograph is
// its own token. There is no stemming and no stop-word removal.
//
// The bleve backend registers the same tokenizer and filter as its
// analyzer, so every backend sees identical terms.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	stream := lowerFilter.Filter(wordTokenizer.Tokenize([]byte(text)))
	return terms(stream)
}

func terms(stream analysis.TokenStream) []string {
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// uniqueTokens tokenizes a query and drops repeated terms, keeping first
// occurrence order.
func uniqueTokens(query string) []string {
	toks := Tokenize(query)
	seen := make(map[string]struct{}, len(toks))
	out := toks[:0]
	for _, t := range toks {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
