// Package scancode carries raw keyboard bytes from the keyboard interrupt
// handler to the cooperative loop.
//
// Queue is a fixed ring with a single producer (interrupt context) and a
// single consumer (the loop). It takes no locks: the consumer masks
// interrupts around Pop, which is all the exclusion a uniprocessor needs.
// When the ring is full new bytes are dropped, never blocked on.
package scancode

import "fmt"

// DefaultCapacity is the ring size used when none is configured.
const DefaultCapacity = 8

// Queue is a bounded, lossy FIFO of scancode bytes.
type Queue struct {
	buf     []byte
	head    int // Next slot to pop
	n       int
	dropped uint64
}

// NewQueue returns an empty queue holding up to capacity bytes.
func NewQueue(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("scancode: capacity must be positive, got %d", capacity)
	}
	return &Queue{buf: make([]byte, capacity)}, nil
}

// Push appends b. A full queue drops b and reports false.
func (q *Queue) Push(b byte) bool {
	if q.n == len(q.buf) {
		q.dropped++
		return false
	}
	q.buf[(q.head+q.n)%len(q.buf)] = b
	q.n++
	return true
}

// Pop removes the oldest byte.
func (q *Queue) Pop() (byte, bool) {
	if q.n == 0 {
		return 0, false
	}
	b := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return b, true
}

func (q *Queue) Len() int { return q.n }

func (q *Queue) Cap() int { return len(q.buf) }

// Dropped is the number of bytes lost to a full queue.
func (q *Queue) Dropped() uint64 { return q.dropped }
