package consensus

import "container/heap"

// pair is one registry entry: the superimposition of observation b onto
// observation a.
type pair struct {
	id   int
	a, b int
	sup  *Superimposition

	// index is the entry's position in the heap, maintained by pairHeap.
	index int
}

// pairHeap orders pairs by (RMSD, id) ascending.
type pairHeap []*pair

func (h pairHeap) Len() int { return len(h) }

func (h pairHeap) Less(i, j int) bool {
	if h[i].sup.RMSD != h[j].sup.RMSD {
		return h[i].sup.RMSD < h[j].sup.RMSD
	}
	return h[i].id < h[j].id
}

func (h pairHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pairHeap) Push(x any) {
	p := x.(*pair)
	p.index = len(*h)
	*h = append(*h, p)
}

func (h *pairHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	p.index = -1
	*h = old[:n-1]
	return p
}

// registry holds the pending superimposition of every pair of active
// observations, ordered by RMSD. Pairs with equal RMSD are ordered by
// insertion.
type registry struct {
	heap   pairHeap
	byObs  map[int]map[int]*pair
	nextID int
}

func newRegistry(capacity int) *registry {
	return &registry{
		heap:  make(pairHeap, 0, capacity),
		byObs: make(map[int]map[int]*pair),
	}
}

// Len returns the number of pending pairs.
func (r *registry) Len() int { return len(r.heap) }

// Insert adds the superimposition of observation b onto observation a.
func (r *registry) Insert(a, b int, sup *Superimposition) {
	p := &pair{id: r.nextID, a: a, b: b, sup: sup}
	r.nextID++
	heap.Push(&r.heap, p)
	r.index(a, p)
	r.index(b, p)
}

func (r *registry) index(obs int, p *pair) {
	m, ok := r.byObs[obs]
	if !ok {
		m = make(map[int]*pair)
		r.byObs[obs] = m
	}
	m[p.id] = p
}

// Min removes and returns the pair with the lowest RMSD. The returned pair
// remains indexed until RemoveTouching is called for its observations.
func (r *registry) Min() (*pair, bool) {
	if len(r.heap) == 0 {
		return nil, false
	}
	return heap.Pop(&r.heap).(*pair), true
}

// RemoveTouching removes every pair referencing observation obs and
// returns how many were still pending.
func (r *registry) RemoveTouching(obs int) int {
	removed := 0
	for id, p := range r.byObs[obs] {
		if p.index >= 0 {
			heap.Remove(&r.heap, p.index)
			removed++
		}
		other := p.a
		if other == obs {
			other = p.b
		}
		delete(r.byObs[other], id)
	}
	delete(r.byObs, obs)
	return removed
}

// Touching reports how many pending pairs reference observation obs.
func (r *registry) Touching(obs int) int {
	n := 0
	for _, p := range r.byObs[obs] {
		if p.index >= 0 {
			n++
		}
	}
	return n
}
