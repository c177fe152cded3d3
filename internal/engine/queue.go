package engine

import "sync"

// TaskQueue is an unordered bag of directory paths waiting to be archived.
// It is safe for concurrent use by multiple producers and consumers.
type TaskQueue struct {
	mu    sync.Mutex
	head  int
	items []string
}

func NewTaskQueue(paths ...string) *TaskQueue {
	q := &TaskQueue{}
	q.Push(paths...)
	return q
}

func (q *TaskQueue) Push(paths ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, paths...)
}

// Pop removes one path from the queue. It returns false when the queue is empty.
func (q *TaskQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return "", false
	}

	path := q.items[q.head]
	q.items[q.head] = ""
	q.head++

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}

	return path, true
}

func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *TaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Drain moves every pending path into a new queue and leaves q empty.
func (q *TaskQueue) Drain() *TaskQueue {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := &TaskQueue{items: append([]string(nil), q.items[q.head:]...)}
	q.items = nil
	q.head = 0

	return snapshot
}
