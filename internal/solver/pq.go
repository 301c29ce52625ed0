package solver

import (
	"container/heap"

	"github.com/awmpietro/algotrace/internal/trace"
)

type pqEntry[T any] struct {
	key   int
	seq   int
	value T
}

// minQueue is a stable min-heap: equal keys pop in push order (or explicit
// seq order). Comparisons and swaps are charged to the recorder.
type minQueue[T any] struct {
	entries []pqEntry[T]
	next    int
	rec     *trace.Recorder
}

func newMinQueue[T any](rec *trace.Recorder) *minQueue[T] {
	return &minQueue[T]{rec: rec}
}

func (q *minQueue[T]) Len() int { return len(q.entries) }

func (q *minQueue[T]) Less(i, j int) bool {
	q.rec.Compare(1)
	a, b := q.entries[i], q.entries[j]
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

func (q *minQueue[T]) Swap(i, j int) {
	q.rec.Swap(1)
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
}

func (q *minQueue[T]) Push(x any) { q.entries = append(q.entries, x.(pqEntry[T])) }

func (q *minQueue[T]) Pop() any {
	n := len(q.entries)
	e := q.entries[n-1]
	q.entries = q.entries[:n-1]
	return e
}

// push orders by (key, insertion order).
func (q *minQueue[T]) push(key int, v T) {
	heap.Push(q, pqEntry[T]{key: key, seq: q.next, value: v})
	q.next++
}

// pushSeq orders by (key, seq) with a caller-supplied tie-breaker.
func (q *minQueue[T]) pushSeq(key, seq int, v T) {
	heap.Push(q, pqEntry[T]{key: key, seq: seq, value: v})
}

func (q *minQueue[T]) pop() (int, T) {
	e := heap.Pop(q).(pqEntry[T])
	return e.key, e.value
}
