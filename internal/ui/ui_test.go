package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/index"
	"github.com/rixingyike/rustpress/internal/search"
)

func guideEngine(t *testing.T) *search.Engine {
	t.Helper()
	e, err := search.NewEngine(corpus.NewStore(), index.NewMemoryIndex(index.DefaultConfig()))
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background(), []corpus.Document{
		{ID: "1", Title: "Rust Guide", Content: "Learn Rust today", Tags: []string{"rust"}, Categories: []string{}, URL: "/a", Date: "2024"},
		{ID: "2", Title: "Cooking", Content: "rust removal tips", Tags: []string{}, Categories: []string{"home"}, URL: "/b", Date: "2023"},
	}))
	return e
}

func TestNewConfig_BufferIsNotColored(t *testing.T) {
	// Given: a non-TTY writer
	cfg := NewConfig(&bytes.Buffer{})

	// Then: color is off
	assert.True(t, cfg.NoColor)
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(&bytes.Buffer{}, WithNoColor(false), WithSource("public/search.json"))

	assert.False(t, cfg.NoColor)
	assert.Equal(t, "public/search.json", cfg.Source)
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")

	assert.True(t, DetectCI())
}

func TestGetStyles(t *testing.T) {
	plain := GetStyles(true)

	assert.Equal(t, "x", plain.Mark.Render("x"))
	assert.Equal(t, "x", plain.Header.Render("x"))
}
