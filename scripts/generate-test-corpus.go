//go:build ignore

// Package main generates a synthetic search.json corpus for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -posts 5000 -output testdata/bench/search.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numPosts   = flag.Int("posts", 1000, "Number of posts to generate")
	outputPath = flag.String("output", "testdata/bench/search.json", "Output file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
	cjkShare   = flag.Float64("cjk", 0.3, "Share of posts written in Chinese")
)

var (
	topics = []string{"rust", "tokio", "async", "wasm", "cargo", "serde", "axum", "lifetimes",
		"traits", "macros", "testing", "tracing", "sqlx", "leptos", "yew", "clippy"}
	categories = []string{"tech", "rust", "web", "tools", "notes", "life"}
	words      = []string{"the", "a", "guide", "to", "with", "using", "for", "building", "fast",
		"safe", "services", "handbook", "tips", "deep", "dive", "into", "notes", "on", "why", "how"}
	cjkWords = []string{"入门", "教程", "异步", "编程", "笔记", "实践", "性能", "安全", "并发", "工具", "开发", "总结"}
)

type post struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	URL        string   `json:"url"`
	Date       string   `json:"date"`
	Slug       string   `json:"slug"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	posts := make([]post, 0, *numPosts)
	for i := 0; i < *numPosts; i++ {
		posts = append(posts, generatePost(rng, i))
	}

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}
	data, err := json.Marshal(posts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode corpus: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write corpus: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d posts (%d bytes) to %s\n", len(posts), len(data), *outputPath)
}

func generatePost(rng *rand.Rand, id int) post {
	topic := pick(rng, topics)
	cat := pick(rng, categories)
	slug := fmt.Sprintf("%s-%d", topic, id)

	var title, content string
	if rng.Float64() < *cjkShare {
		title = topic + " " + sentence(rng, cjkWords, 2, 4, "")
		content = paragraph(rng, cjkWords, "", "。")
	} else {
		title = capitalize(sentence(rng, words, 2, 5, " ")) + " " + topic
		content = paragraph(rng, words, " ", ". ")
	}

	tags := []string{topic}
	if rng.Intn(2) == 0 {
		tags = append(tags, pick(rng, topics))
	}

	return post{
		ID:         id,
		Title:      title,
		Content:    content,
		Tags:       tags,
		Categories: []string{cat},
		URL:        fmt.Sprintf("/%s/%s.html", cat, slug),
		Date:       fmt.Sprintf("20%02d-%02d-%02d", 18+rng.Intn(7), 1+rng.Intn(12), 1+rng.Intn(28)),
		Slug:       slug,
	}
}

func paragraph(rng *rand.Rand, vocab []string, sep, end string) string {
	var sb strings.Builder
	for s := 0; s < 5+rng.Intn(20); s++ {
		sb.WriteString(sentence(rng, vocab, 6, 16, sep))
		if rng.Intn(4) == 0 {
			sb.WriteString(sep + pick(rng, topics))
		}
		sb.WriteString(end)
	}
	return sb.String()
}

func sentence(rng *rand.Rand, vocab []string, min, max int, sep string) string {
	n := min + rng.Intn(max-min+1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(rng, vocab)
	}
	return strings.Join(parts, sep)
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
