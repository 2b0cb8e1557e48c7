package ranker

import "container/heap"

type candidate struct {
	row   int
	score float64
}

// topK keeps the k best candidates seen. Higher score wins; on equal score
// the lower row wins.
type topK struct {
	limit int
	h     candidateHeap
}

func newTopK(limit int) *topK {
	return &topK{limit: limit, h: make(candidateHeap, 0, limit+1)}
}

func (t *topK) offer(row int, score float64) {
	c := candidate{row: row, score: score}
	if t.h.Len() < t.limit {
		heap.Push(&t.h, c)
		return
	}
	if worse(t.h[0], c) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// sorted drains the heap best first.
func (t *topK) sorted() []candidate {
	out := make([]candidate, t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(candidate)
	}
	return out
}

func worse(a, b candidate) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.row > b.row
}

// candidateHeap is a min-heap with the worst candidate at the root.
type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
