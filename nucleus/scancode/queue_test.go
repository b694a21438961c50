package scancode_test

import (
	"testing"

	"example.com/vesper-nucleus/nucleus/scancode"
)

func mustQueue(t *testing.T, capacity int) *scancode.Queue {
	t.Helper()
	q, err := scancode.NewQueue(capacity)
	if err != nil {
		t.Fatalf("NewQueue(%d): %v", capacity, err)
	}
	return q
}

func drain(q *scancode.Queue) []byte {
	var out []byte
	for {
		b, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestNewQueueRejectsZeroCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := scancode.NewQueue(c); err == nil {
			t.Errorf("NewQueue(%d) succeeded", c)
		}
	}
}

func TestQueueFIFOAcrossWrap(t *testing.T) {
	q := mustQueue(t, 3)
	var got []byte
	for i := byte(1); i <= 10; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) dropped with %d queued", i, q.Len())
		}
		if i%2 == 0 {
			got = append(got, drain(q)...)
		}
	}
	for i, b := range got {
		if b != byte(i+1) {
			t.Fatalf("order broken: got %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("popped %d bytes, want 10", len(got))
	}
}

func TestQueueEmptyPop(t *testing.T) {
	q := mustQueue(t, scancode.DefaultCapacity)
	if _, ok := q.Pop(); ok {
		t.Fatalf("Pop on empty queue succeeded")
	}
	if q.Cap() != 8 || q.Len() != 0 {
		t.Fatalf("Cap/Len = %d/%d, want 8/0", q.Cap(), q.Len())
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := mustQueue(t, 8)
	for i := byte(0); i < 10; i++ {
		q.Push(0x10 + i)
	}
	if q.Len() != 8 {
		t.Fatalf("Len = %d, want 8", q.Len())
	}
	if q.Dropped() != 2 {
		t.Fatalf("Dropped = %d, want 2", q.Dropped())
	}
	got := drain(q)
	want := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}
	if string(got) != string(want) {
		t.Fatalf("drained % x, want % x", got, want)
	}
}

// Twelve bytes arrive before the loop runs; only the first eight survive and
// the loop sees them in arrival order.
func TestQueueBurstBeforeConsumerRuns(t *testing.T) {
	q := mustQueue(t, scancode.DefaultCapacity)
	burst := []byte{0x1E, 0x9E, 0x30, 0xB0, 0x2E, 0xAE, 0x20, 0xA0, 0x12, 0x92, 0x21, 0xA1}
	accepted := 0
	for _, b := range burst {
		if q.Push(b) {
			accepted++
		}
	}
	if accepted != 8 || q.Dropped() != 4 {
		t.Fatalf("accepted %d, dropped %d; want 8, 4", accepted, q.Dropped())
	}
	if got := drain(q); string(got) != string(burst[:8]) {
		t.Fatalf("drained % x, want % x", got, burst[:8])
	}
}

func TestQueueKeepsFirstEightOfTen(t *testing.T) {
	q := mustQueue(t, 8)
	for b := byte(1); b <= 10; b++ {
		q.Push(b)
	}
	var got []byte
	for i := 0; i < 8; i++ {
		b, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		got = append(got, b)
	}
	if string(got) != string([]byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("popped %v, want 1..8", got)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("bytes 9 and 10 were not dropped")
	}
}
