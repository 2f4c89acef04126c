package engine

import (
	"sync"

	"github.com/eventscout-project/eventscout/internal/core"
)

// RecordRing is a fixed-size ring buffer over discovered records, backing
// the API's recent-records endpoint. Old records are overwritten once the
// buffer wraps.
type RecordRing struct {
	mu      sync.RWMutex
	records []core.EventRecord
	maxSize int
	pos     int
	full    bool
}

// NewRecordRing creates a ring that holds up to maxSize records.
func NewRecordRing(maxSize int) *RecordRing {
	if maxSize < 1 {
		maxSize = 1
	}
	return &RecordRing{
		records: make([]core.EventRecord, maxSize),
		maxSize: maxSize,
	}
}

// Push appends records, overwriting the oldest once full.
func (r *RecordRing) Push(recs ...core.EventRecord) {
	r.mu.Lock()
	for _, rec := range recs {
		r.records[r.pos] = rec
		r.pos = (r.pos + 1) % r.maxSize
		if r.pos == 0 {
			r.full = true
		}
	}
	r.mu.Unlock()
}

// Recent returns the most recent n records in insertion order.
func (r *RecordRing) Recent(n int) []core.EventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := r.pos
	if r.full {
		total = r.maxSize
	}
	if n > total {
		n = total
	}
	if n <= 0 {
		return []core.EventRecord{}
	}

	result := make([]core.EventRecord, n)
	start := r.pos - n
	if start < 0 {
		start += r.maxSize
	}
	for i := 0; i < n; i++ {
		result[i] = r.records[(start+i)%r.maxSize]
	}
	return result
}

// Len returns how many records the ring currently holds.
func (r *RecordRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return r.maxSize
	}
	return r.pos
}
