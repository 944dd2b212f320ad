package domain

import (
	"container/heap"
	"sync"
	"time"
)

// TTLMarker schedules a key for expiry at DeathTime.
type TTLMarker struct {
	Key       string
	DeathTime time.Time
}

// Less orders markers by death time, then by key.
func (m TTLMarker) Less(other TTLMarker) bool {
	if m.DeathTime.Equal(other.DeathTime) {
		return m.Key < other.Key
	}
	return m.DeathTime.Before(other.DeathTime)
}

type markerHeap []TTLMarker

func (h markerHeap) Len() int           { return len(h) }
func (h markerHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h markerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *markerHeap) Push(x any) {
	*h = append(*h, x.(TTLMarker))
}

func (h *markerHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// ExpiryQueue is a concurrent-safe min-heap of TTL markers.
//
// Markers are never removed when a key is overwritten or persisted; the
// consumer must compare a popped marker with the key's current death time
// and ignore stale ones.
type ExpiryQueue struct {
	mu sync.Mutex
	h  markerHeap
}

// NewExpiryQueue creates an empty queue.
func NewExpiryQueue() *ExpiryQueue {
	return &ExpiryQueue{}
}

// Push schedules m.
func (q *ExpiryQueue) Push(m TTLMarker) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.h, m)
}

// Peek returns the earliest marker without removing it.
func (q *ExpiryQueue) Peek() (TTLMarker, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return TTLMarker{}, false
	}
	return q.h[0], true
}

// PopDue removes and returns, in order, every marker whose death time is
// not after now.
func (q *ExpiryQueue) PopDue(now time.Time) []TTLMarker {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []TTLMarker
	for len(q.h) > 0 && !q.h[0].DeathTime.After(now) {
		due = append(due, heap.Pop(&q.h).(TTLMarker))
	}
	return due
}

// Len returns the number of scheduled markers.
func (q *ExpiryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}
