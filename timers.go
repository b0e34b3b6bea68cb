package actorcore

import "container/heap"

// timerRecord is one slot of the timer pool (§3 "Timer record", §4.6).
// intervalUs == 0 marks a one-shot timer; a non-zero value is the
// recurrence period of a periodic timer created by Ctx.Every.
type timerRecord struct {
	owner      ActorID
	id         uint32
	intervalUs int64
	deadlineUs int64
	active     bool
}

// timerHeap is a min-heap over timer pool indices ordered by deadline,
// grounded on eventloop's timerHeap/container-heap pattern. Cancellation
// is lazy: cancelTimer only flips active to false, and the slot is
// actually released the next time this heap pops it — removing an
// arbitrary element from a binary heap is O(n) with no index map, while
// lazy deletion keeps cancel O(1) at the cost of a dead slot lingering
// in the pool until its turn comes up.
type timerHeap struct {
	idx  []int
	pool *pool[timerRecord]
}

func (h timerHeap) Len() int { return len(h.idx) }
func (h timerHeap) Less(i, j int) bool {
	return h.pool.at(h.idx[i]).deadlineUs < h.pool.at(h.idx[j]).deadlineUs
}
func (h timerHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }

func (h *timerHeap) Push(x any) { h.idx = append(h.idx, x.(int)) }

func (h *timerHeap) Pop() any {
	old := h.idx
	n := len(old)
	item := old[n-1]
	h.idx = old[:n-1]
	return item
}

// timerAfter implements Ctx.After (intervalUs == 0) and Ctx.Every
// (intervalUs == deltaUs): schedule a timer and return its id.
func (rt *Runtime) timerAfter(id ActorID, deltaUs, intervalUs int64) (uint32, Status) {
	a := rt.mustActor(id)
	idx, t, ok := rt.timerPool.acquire()
	if !ok {
		return 0, StatusNoMem
	}
	timerID := uint32(idx) + 1
	*t = timerRecord{
		owner:      id,
		id:         timerID,
		intervalUs: intervalUs,
		deadlineUs: rt.clock.NowMicros() + deltaUs,
		active:     true,
	}
	a.timers[timerID] = struct{}{}
	heap.Push(&rt.timerHeap, idx)
	return timerID, StatusOK
}

// cancelTimer implements Ctx.CancelTimer.
func (rt *Runtime) cancelTimer(id ActorID, timerID uint32) Status {
	a := rt.mustActor(id)
	if _, ok := a.timers[timerID]; !ok {
		return StatusOK
	}
	delete(a.timers, timerID)
	rt.timerPool.at(int(timerID) - 1).active = false
	return StatusOK
}

// cancelActorTimers deactivates every timer owned by a (§4.4 step 6,
// called from terminate). The pool slots are reclaimed lazily as the
// heap pops them.
func (rt *Runtime) cancelActorTimers(a *actor) {
	for id := range a.timers {
		rt.timerPool.at(int(id) - 1).active = false
	}
	a.timers = nil
}

// sleep implements Ctx.Sleep: a one-shot timer plus a selective
// receive for exactly that timer's id (§4.6).
func (rt *Runtime) sleep(id ActorID, deltaUs int64) {
	timerID, st := rt.timerAfter(id, deltaUs, 0)
	if !st.Ok() {
		return // pool exhausted: degrade to a no-op rather than blocking forever
	}
	rt.receive(id, IPCFilter{Sender: SenderAny, Class: ClassTimer, Tag: Tag(timerID)}, -1)
}

// nextTimerDeadline reports the earliest still-active timer deadline,
// skipping (and reclaiming) any cancelled entries at the heap's head.
// Used by the scheduler to bound its readiness-wait timeout (§4.1).
func (rt *Runtime) nextTimerDeadline() (int64, bool) {
	for len(rt.timerHeap.idx) > 0 {
		idx := rt.timerHeap.idx[0]
		t := rt.timerPool.at(idx)
		if !t.active {
			heap.Pop(&rt.timerHeap)
			rt.timerPool.release(idx)
			continue
		}
		return t.deadlineUs, true
	}
	return 0, false
}

// drainDueTimers fires every timer whose deadline has elapsed as of
// nowUs, enqueuing a ClassTimer message to each owner and rescheduling
// periodic timers (§4.6: a periodic timer that has fallen behind is
// coalesced to its next future deadline rather than firing a burst of
// catch-up messages).
func (rt *Runtime) drainDueTimers(nowUs int64) {
	for len(rt.timerHeap.idx) > 0 {
		idx := rt.timerHeap.idx[0]
		t := rt.timerPool.at(idx)
		if !t.active {
			heap.Pop(&rt.timerHeap)
			rt.timerPool.release(idx)
			continue
		}
		if t.deadlineUs > nowUs {
			return
		}
		heap.Pop(&rt.timerHeap)
		rt.fireTimer(idx, t, nowUs)
	}
}

func (rt *Runtime) fireTimer(idx int, t *timerRecord, nowUs int64) {
	rt.notify(SenderAny, t.owner, ClassTimer, false, Tag(t.id), nil)
	if t.intervalUs > 0 {
		for t.deadlineUs <= nowUs {
			t.deadlineUs += t.intervalUs
		}
		heap.Push(&rt.timerHeap, idx)
		return
	}
	if owner, ok := rt.lookupActor(t.owner); ok {
		delete(owner.timers, t.id)
	}
	rt.timerPool.release(idx)
}
