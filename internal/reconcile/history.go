package reconcile

import "sync"

// History is a bounded, thread-safe record of recent runs. When full, the
// oldest run is dropped.
type History struct {
	mu       sync.Mutex
	results  []Result
	head     int // next write position
	count    int
	capacity int
}

// NewHistory creates a history holding up to capacity runs.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 32
	}
	return &History{
		results:  make([]Result, capacity),
		capacity: capacity,
	}
}

// Add records a run, dropping the oldest if necessary.
func (h *History) Add(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results[h.head] = r
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// Recent returns the recorded runs, newest first.
func (h *History) Recent() []Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Result, 0, h.count)
	for i := 1; i <= h.count; i++ {
		idx := (h.head - i + h.capacity) % h.capacity
		out = append(out, h.results[idx])
	}
	return out
}

// Len returns the number of recorded runs.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
