package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace", "   ", []string{}},
		{"lowercases", "Rust Guide", []string{"rust", "guide"}},
		{"drops punctuation", "hello, world!", []string{"hello", "world"}},
		{"no stemming", "running runs", []string{"running", "runs"}},
		{"ideographs split per rune", "搜索", []string{"搜", "索"}},
		{"mixed scripts", "Rust 入门", []string{"rust", "入", "门"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUniqueTokens_KeepsFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, uniqueTokens("b A a B"))
}
