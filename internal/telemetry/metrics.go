// Package telemetry keeps in-process query metrics for a running search
// session: outcome counts, latency buckets, popular terms and recent queries
// that matched nothing. Nothing leaves the process and nothing is persisted.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rixingyike/rustpress/internal/index"
)

// Outcome classifies how a query was answered.
type Outcome string

const (
	OutcomePrimary  Outcome = "primary"
	OutcomeFallback Outcome = "fallback"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeFailed   Outcome = "failed"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP1    LatencyBucket = "p1"    // <1ms
	BucketP10   LatencyBucket = "p10"   // 1-10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP1000 LatencyBucket = "p1000" // >=100ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketP1
	case d < 10*time.Millisecond:
		return BucketP10
	case d < 50*time.Millisecond:
		return BucketP50
	case d < 100*time.Millisecond:
		return BucketP100
	default:
		return BucketP1000
	}
}

// QueryEvent is one evaluated query.
type QueryEvent struct {
	Query       string
	Outcome     Outcome
	ResultCount int
	Latency     time.Duration
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer holding at most capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 50
	}
	return &CircularBuffer[T]{items: make([]T, capacity), capacity: capacity}
}

// Add appends item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, b.size)
	if b.size < b.capacity {
		copy(out, b.items[:b.size])
		return out
	}
	n := copy(out, b.items[b.head:])
	copy(out[n:], b.items[:b.head])
	return out
}

// Len returns the number of buffered items.
func (b *CircularBuffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// TermCount is a query term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	TotalQueries        int64                   `json:"total_queries"`
	Outcomes            map[Outcome]int64       `json:"outcomes"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms            []TermCount             `json:"top_terms"`
	NoMatchQueries      []string                `json:"no_match_queries"`
	RepeatCount         int64                   `json:"repeat_count"`
	Since               time.Time               `json:"since"`
}

// NoMatchRate returns the share of queries that matched nothing, in [0, 1].
func (s Snapshot) NoMatchRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.Outcomes[OutcomeNoMatch]) / float64(s.TotalQueries)
}

// Config bounds the memory the metrics use.
type Config struct {
	TopTermsCapacity      int // default 100
	NoMatchCapacity       int // default 50
	RecentQueriesCapacity int // default 500
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config {
	return Config{TopTermsCapacity: 100, NoMatchCapacity: 50, RecentQueriesCapacity: 500}
}

// QueryMetrics aggregates query events. Safe for concurrent use.
type QueryMetrics struct {
	mu        sync.Mutex
	total     int64
	outcomes  map[Outcome]int64
	latencies map[LatencyBucket]int64
	terms     *lru.Cache[string, int64]
	recent    *lru.Cache[string, struct{}]
	repeats   int64
	noMatch   *CircularBuffer[string]
	since     time.Time
}

// NewQueryMetrics creates a collector. Zero capacities take the defaults.
func NewQueryMetrics(cfg Config) *QueryMetrics {
	def := DefaultConfig()
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = def.TopTermsCapacity
	}
	if cfg.NoMatchCapacity <= 0 {
		cfg.NoMatchCapacity = def.NoMatchCapacity
	}
	if cfg.RecentQueriesCapacity <= 0 {
		cfg.RecentQueriesCapacity = def.RecentQueriesCapacity
	}

	terms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	return &QueryMetrics{
		outcomes:  make(map[Outcome]int64),
		latencies: make(map[LatencyBucket]int64),
		terms:     terms,
		recent:    recent,
		noMatch:   NewCircularBuffer[string](cfg.NoMatchCapacity),
		since:     time.Now(),
	}
}

// Record adds one query event.
func (m *QueryMetrics) Record(event QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.outcomes[event.Outcome]++
	m.latencies[LatencyToBucket(event.Latency)]++

	seen := make(map[string]bool)
	for _, term := range index.Tokenize(event.Query) {
		if seen[term] {
			continue
		}
		seen[term] = true
		count, _ := m.terms.Get(term)
		m.terms.Add(term, count+1)
	}

	if event.Outcome == OutcomeNoMatch {
		m.noMatch.Add(event.Query)
	}

	key := strings.ToLower(strings.TrimSpace(event.Query))
	if _, ok := m.recent.Get(key); ok {
		m.repeats++
	}
	m.recent.Add(key, struct{}{})
}

// Snapshot copies the current metrics. TopTerms is ordered by count
// descending, then term.
func (m *QueryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make(map[Outcome]int64, len(m.outcomes))
	for k, v := range m.outcomes {
		outcomes[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	terms := make([]TermCount, 0, m.terms.Len())
	for _, term := range m.terms.Keys() {
		if count, ok := m.terms.Peek(term); ok {
			terms = append(terms, TermCount{Term: term, Count: count})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})

	return Snapshot{
		TotalQueries:        m.total,
		Outcomes:            outcomes,
		LatencyDistribution: latencies,
		TopTerms:            terms,
		NoMatchQueries:      m.noMatch.Items(),
		RepeatCount:         m.repeats,
		Since:               m.since,
	}
}
