package actorcore

// busEntry is one slot of a bus's fixed-capacity ring buffer (§3 "Bus
// entry"). Unlike a mailbox entry it has no owner and no free-list
// slot index: the ring overwrites oldest-first, and every subscriber
// reads independently by sequence number rather than by detaching a
// shared node.
type busEntry struct {
	data   [MaxMessagePayloadSize]byte
	length int
}

// busSubscriber tracks one actor's read position in a bus's ring. A
// subscriber that falls more than len(entries) publications behind has
// its cursor silently advanced to the oldest still-available entry:
// a bus is a broadcast of recent values, not a lossless queue, and
// this keeps it a fixed-size structure with no backpressure on the
// publisher (§5 "no unbounded growth").
type busSubscriber struct {
	readSeq int64
}

// bus is one entry of the bus table (§3, created by NewBus).
type bus struct {
	entries     []busEntry
	writeSeq    int64
	subscribers map[ActorID]*busSubscriber
}

// newBus implements Ctx.NewBus: allocate a new broadcast bus from the
// bus table.
func (rt *Runtime) newBus() (BusID, Status) {
	if len(rt.buses) >= cap(rt.buses) {
		return 0, StatusNoMem
	}
	id := BusID(len(rt.buses))
	rt.buses = append(rt.buses, bus{
		entries:     make([]busEntry, rt.opts.limits.MaxBusEntries),
		subscribers: make(map[ActorID]*busSubscriber),
	})
	return id, StatusOK
}

func (rt *Runtime) busAt(id BusID) (*bus, bool) {
	if id < 0 || int(id) >= len(rt.buses) {
		return nil, false
	}
	return &rt.buses[id], true
}

// subscribeBus implements Ctx.SubscribeBus.
func (rt *Runtime) subscribeBus(actorID ActorID, busID BusID) Status {
	a := rt.mustActor(actorID)
	b, ok := rt.busAt(busID)
	if !ok {
		return withMsg(INVALID, "unknown bus id")
	}
	if _, exists := b.subscribers[actorID]; exists {
		return StatusOK
	}
	if len(b.subscribers) >= MaxBusSubscribers {
		return StatusNoMem
	}
	b.subscribers[actorID] = &busSubscriber{readSeq: b.writeSeq}
	a.busSubs[busID] = struct{}{}
	return StatusOK
}

// unsubscribeBus implements Ctx.UnsubscribeBus.
func (rt *Runtime) unsubscribeBus(actorID ActorID, busID BusID) Status {
	a := rt.mustActor(actorID)
	if b, ok := rt.busAt(busID); ok {
		delete(b.subscribers, actorID)
	}
	delete(a.busSubs, busID)
	return StatusOK
}

// busUnsubscribeAll removes every subscription a holds, across every
// bus (§4.4 step 7, called from terminate).
func (rt *Runtime) busUnsubscribeAll(a *actor) {
	for busID := range a.busSubs {
		if b, ok := rt.busAt(busID); ok {
			delete(b.subscribers, a.id)
		}
	}
	a.busSubs = nil
}

// publishBus implements Ctx.PublishBus: append data to the bus's ring,
// overwriting the oldest entry once full, and wake every subscriber
// that is currently WAITING, whatever it is waiting on (a spurious
// wake re-polls and re-parks, as with enqueue).
func (rt *Runtime) publishBus(busID BusID, data []byte) Status {
	if len(data) > MaxMessagePayloadSize {
		return withMsg(INVALID, "bus payload exceeds MaxMessagePayloadSize")
	}
	b, ok := rt.busAt(busID)
	if !ok {
		return withMsg(INVALID, "unknown bus id")
	}
	idx := int(b.writeSeq % int64(len(b.entries)))
	e := &b.entries[idx]
	copy(e.data[:], data)
	e.length = len(data)
	b.writeSeq++

	for actorID := range b.subscribers {
		if a, ok := rt.lookupActor(actorID); ok && a.state == StateWaiting {
			rt.enqueueReady(a)
		}
	}
	return StatusOK
}

// busConsume implements the bus half of pollSelectSources: dequeue the
// next unread entry for actorID on busID, advancing past any entries
// that have already aged out of the ring.
func (rt *Runtime) busConsume(actorID ActorID, busID BusID) ([]byte, bool) {
	b, ok := rt.busAt(busID)
	if !ok {
		return nil, false
	}
	sub, ok := b.subscribers[actorID]
	if !ok {
		return nil, false
	}
	if sub.readSeq >= b.writeSeq {
		return nil, false
	}
	oldest := b.writeSeq - int64(len(b.entries))
	if oldest < 0 {
		oldest = 0
	}
	if sub.readSeq < oldest {
		sub.readSeq = oldest
	}
	idx := int(sub.readSeq % int64(len(b.entries)))
	e := &b.entries[idx]
	sub.readSeq++
	return e.data[:e.length], true
}
