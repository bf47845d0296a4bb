package index

import (
	"fmt"

	"github.com/rixingyike/rustpress/internal/errors"
)

// Field names of a corpus document that can be indexed.
const (
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldTags       = "tags"
	FieldCategories = "categories"
)

// FieldSpec describes how one document field contributes to a score.
type FieldSpec struct {
	Name   string
	Weight float64
	// Presence scores the weight once per document when any token of the
	// field matches, instead of once per occurrence.
	Presence bool
}

// Config is the index configuration. It is a plain value: backends read it
// at construction and never mutate it.
type Config struct {
	Fields []FieldSpec
	// Stemming is not supported; Validate rejects it so that CJK and
	// English text are matched exactly as tokenized.
	Stemming bool
}

// DefaultConfig returns the fixed boost table: title 10, content 5, tags 8,
// categories 6, with tags and categories scored by presence.
func DefaultConfig() Config {
	return Config{
		Fields: []FieldSpec{
			{Name: FieldTitle, Weight: 10},
			{Name: FieldContent, Weight: 5},
			{Name: FieldTags, Weight: 8, Presence: true},
			{Name: FieldCategories, Weight: 6, Presence: true},
		},
	}
}

// Validate checks that every field is known, listed once, and positively
// weighted.
func (c Config) Validate() error {
	if c.Stemming {
		return errors.ConfigError("stemming is not supported by the index", nil)
	}
	if len(c.Fields) == 0 {
		return errors.ConfigError("index config has no fields", nil)
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		switch f.Name {
		case FieldTitle, FieldContent, FieldTags, FieldCategories:
		default:
			return errors.ConfigError(fmt.Sprintf("unknown index field %q", f.Name), nil)
		}
		if seen[f.Name] {
			return errors.ConfigError(fmt.Sprintf("index field %q listed twice", f.Name), nil)
		}
		seen[f.Name] = true
		if f.Weight <= 0 {
			return errors.ConfigError(fmt.Sprintf("index field %q needs a positive weight, got %v", f.Name, f.Weight), nil)
		}
	}
	return nil
}

// Weight returns the configured weight of a field, or 0 if it is not indexed.
func (c Config) Weight(name string) float64 {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Weight
		}
	}
	return 0
}
