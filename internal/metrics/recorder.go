package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of metrics kept when none is given.
const DefaultCapacity = 1000

// Recorder keeps the most recent metrics in memory. Once full, the oldest
// metric is overwritten. Safe for concurrent use; a nil Recorder discards
// everything.
type Recorder struct {
	mu    sync.RWMutex
	buf   []Metric
	next  int
	full  bool
	total int
}

// NewRecorder creates a recorder holding up to capacity metrics.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{buf: make([]Metric, capacity)}
}

// Record stores m, assigning an ID and timestamp when missing, and returns
// the ID.
func (r *Recorder) Record(m Metric) string {
	if r == nil {
		return ""
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = m
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.total++
	return m.ID
}

// Len returns the number of metrics currently held.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Total returns the number of metrics ever recorded, including evicted ones.
func (r *Recorder) Total() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// List returns metrics matching f, newest first. limit <= 0 means no limit.
func (r *Recorder) List(f Filter, limit int) []Metric {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}

	result := make([]Metric, 0, min(n, max(limit, 0)))
	for i := 1; i <= n; i++ {
		m := r.buf[(r.next-i+len(r.buf))%len(r.buf)]
		if !f.matches(m) {
			continue
		}
		result = append(result, m)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}
