package search

import "sync"

// Navigator tracks the keyboard selection over the latest result list.
// Selected is -1 when nothing is selected. It is safe for concurrent use.
type Navigator struct {
	mu       sync.Mutex
	results  []Result
	selected int
}

// NewNavigator returns an empty navigator with no selection.
func NewNavigator() *Navigator {
	return &Navigator{selected: -1}
}

// SetResults replaces the result list and clears the selection.
func (n *Navigator) SetResults(results []Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = results
	n.selected = -1
}

// Reset clears the selection and keeps the result list.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selected = -1
}

// Next moves the selection down, wrapping from the last result to the first.
// With no selection it selects the first result. It returns the new index,
// or -1 if there are no results.
func (n *Navigator) Next() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.results) == 0 {
		return -1
	}
	n.selected = (n.selected + 1) % len(n.results)
	return n.selected
}

// Prev moves the selection up, wrapping from the first result to the last.
// With no selection it selects the last result.
func (n *Navigator) Prev() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.results) == 0 {
		return -1
	}
	if n.selected <= 0 {
		n.selected = len(n.results) - 1
	} else {
		n.selected--
	}
	return n.selected
}

// Activate returns the URL of the selected result. ok is false when nothing
// is selected, in which case the caller should do nothing.
func (n *Navigator) Activate() (url string, ok bool) {
	r, ok := n.Current()
	if !ok {
		return "", false
	}
	return r.URL, true
}

// Current returns the selected result.
func (n *Navigator) Current() (Result, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.selected < 0 || n.selected >= len(n.results) {
		return Result{}, false
	}
	return n.results[n.selected], true
}

// Selected returns the selected index, or -1.
func (n *Navigator) Selected() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selected
}

// Len returns the number of results.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

// Results returns a copy of the current result list.
func (n *Navigator) Results() []Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Result, len(n.results))
	copy(out, n.results)
	return out
}
