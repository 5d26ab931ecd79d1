package streaming

import "container/heap"

// DefaultMaxQueueSize caps the number of pending streaming requests.
const DefaultMaxQueueSize = 256

// Request asks for one LOD of one chunk to be streamed in. Lower Priority is more urgent.
type Request struct {
	Chunk    int
	LOD      int
	Priority float32
}

// less orders requests by priority, then chunk index, then LOD.
func (r Request) less(o Request) bool {
	if r.Priority != o.Priority {
		return r.Priority < o.Priority
	}
	if r.Chunk != o.Chunk {
		return r.Chunk < o.Chunk
	}
	return r.LOD < o.LOD
}

// RequestQueue is a bounded min-priority queue of streaming requests.
type RequestQueue interface {
	// Push enqueues a request. It returns false, leaving the queue unchanged, when the queue is full.
	Push(req Request) bool

	// Pop removes and returns the most urgent request.
	Pop() (Request, bool)

	// PopMany removes and returns up to n requests, most urgent first.
	PopMany(n int) []Request

	// Drain removes and returns every queued request, most urgent first.
	Drain() []Request

	// Len returns the number of queued requests.
	Len() int

	// Cap returns the maximum number of queued requests.
	Cap() int
}

type requestQueueImpl struct {
	items   requestHeap
	maxSize int
}

var _ RequestQueue = &requestQueueImpl{}

// NewRequestQueue creates an empty queue holding at most maxSize requests.
// A non-positive maxSize selects DefaultMaxQueueSize.
func NewRequestQueue(maxSize int) RequestQueue {
	if maxSize <= 0 {
		maxSize = DefaultMaxQueueSize
	}
	return &requestQueueImpl{
		items:   make(requestHeap, 0, maxSize),
		maxSize: maxSize,
	}
}

func (q *requestQueueImpl) Push(req Request) bool {
	if len(q.items) >= q.maxSize {
		return false
	}
	heap.Push(&q.items, req)
	return true
}

func (q *requestQueueImpl) Pop() (Request, bool) {
	if len(q.items) == 0 {
		return Request{}, false
	}
	return heap.Pop(&q.items).(Request), true
}

func (q *requestQueueImpl) PopMany(n int) []Request {
	n = min(n, len(q.items))
	if n <= 0 {
		return nil
	}
	out := make([]Request, 0, n)
	for range n {
		out = append(out, heap.Pop(&q.items).(Request))
	}
	return out
}

func (q *requestQueueImpl) Drain() []Request {
	return q.PopMany(len(q.items))
}

func (q *requestQueueImpl) Len() int {
	return len(q.items)
}

func (q *requestQueueImpl) Cap() int {
	return q.maxSize
}

type requestHeap []Request

func (h requestHeap) Len() int           { return len(h) }
func (h requestHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h requestHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) {
	*h = append(*h, x.(Request))
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
