package actorcore

// pool is a fixed-capacity slot allocator with O(1) acquire/release and
// no fragmentation, backing the mailbox-entry, payload, link, monitor
// and timer pools named in §3. It is grounded on the teacher's direct-
// indexed fixed array pattern (eventloop's FastPoller.fds [maxFDs]fdInfo)
// rather than sync.Pool: sync.Pool grows without bound on demand, which
// is precisely what the specification's NOMEM contract forbids.
//
// Slots are identified by index. A free slot's slice cell holds the
// index of the next free slot (or -1), forming an intrusive free list
// seeded in order at construction so the first acquisitions are cache-
// sequential.
type pool[T any] struct {
	slots    []T
	inUse    []bool
	freeNext []int
	freeHead int
	count    int
}

func newPool[T any](capacity int) *pool[T] {
	p := &pool[T]{
		slots:    make([]T, capacity),
		inUse:    make([]bool, capacity),
		freeNext: make([]int, capacity),
	}
	for i := 0; i < capacity; i++ {
		if i == capacity-1 {
			p.freeNext[i] = -1
		} else {
			p.freeNext[i] = i + 1
		}
	}
	if capacity == 0 {
		p.freeHead = -1
	}
	return p
}

// Cap returns the pool's fixed capacity.
func (p *pool[T]) Cap() int { return len(p.slots) }

// Len returns the number of slots currently in use.
func (p *pool[T]) Len() int { return p.count }

// acquire reserves a slot and returns its index and a pointer to its
// storage, or ok=false if the pool is exhausted.
func (p *pool[T]) acquire() (idx int, val *T, ok bool) {
	if p.freeHead < 0 {
		return 0, nil, false
	}
	idx = p.freeHead
	p.freeHead = p.freeNext[idx]
	p.inUse[idx] = true
	p.count++
	var zero T
	p.slots[idx] = zero
	return idx, &p.slots[idx], true
}

// release returns a slot to the free list. Releasing an already-free
// slot is a no-op (defensive; should not occur given the core's own
// bookkeeping discipline).
func (p *pool[T]) release(idx int) {
	if idx < 0 || idx >= len(p.slots) || !p.inUse[idx] {
		return
	}
	var zero T
	p.slots[idx] = zero
	p.inUse[idx] = false
	p.freeNext[idx] = p.freeHead
	p.freeHead = idx
	p.count--
}

// at returns a pointer to slot idx's storage, regardless of in-use
// state. Callers are expected to have already validated idx via
// in-use tracking elsewhere (mailbox links, etc).
func (p *pool[T]) at(idx int) *T {
	return &p.slots[idx]
}

func (p *pool[T]) isInUse(idx int) bool {
	return idx >= 0 && idx < len(p.inUse) && p.inUse[idx]
}
