package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced event")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "/site/public/search.json", Operation: OpModify, Timestamp: time.Now()})

	// Then: it passes through after the window
	events := waitBatch(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, "/site/public/search.json", events[0].Path)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestDebouncer_ChunkedWrites_Coalesce(t *testing.T) {
	// Given: a generator writing the corpus in several chunks
	d := NewDebouncer(80 * time.Millisecond)
	defer d.Stop()

	for range 5 {
		d.Add(FileEvent{Path: "search.json", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	// Then: one event comes out
	events := waitBatch(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{"create then modify stays create", []Operation{OpCreate, OpModify}, OpCreate},
		{"modify then delete is delete", []Operation{OpModify, OpDelete}, OpDelete},
		{"delete then create is a replace", []Operation{OpDelete, OpCreate}, OpModify},
		{"rename then create is a replace", []Operation{OpRename, OpCreate}, OpModify},
		{"modify then modify", []Operation{OpModify, OpModify}, OpModify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(20 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "search.json", Operation: op, Timestamp: time.Now()})
			}

			events := waitBatch(t, d)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: a temp file that appears and vanishes within the window
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "search.json.tmp", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "search.json.tmp", Operation: OpDelete, Timestamp: time.Now()})

	// Then: nothing is emitted
	select {
	case events := <-d.Output():
		t.Fatalf("unexpected batch: %v", events)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_DifferentFiles_KeepFirstSeenOrder(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "search.json", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: ".rustpress-search.yaml", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "search.json", Operation: OpModify, Timestamp: time.Now()})

	events := waitBatch(t, d)
	require.Len(t, events, 2)
	assert.Equal(t, "search.json", events[0].Path)
	assert.Equal(t, ".rustpress-search.yaml", events[1].Path)
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "search.json", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok, "channel should be closed")
}
