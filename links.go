package actorcore

// linkEdge is one slot of the link pool: a single directed half of a
// bidirectional link (§3 "Link edge"). Each Link call allocates two
// entries, one per direction, so either side's death can walk its own
// outgoing half without scanning the other's.
type linkEdge struct {
	owner ActorID // the actor this half belongs to
	peer  ActorID // the linked actor
}

// monitorEdge is one slot of the monitor pool: a unidirectional
// watch (§3 "Monitor edge"). ref is the id returned to the watcher,
// unique among currently-live monitors.
type monitorEdge struct {
	watcher ActorID
	target  ActorID
	ref     uint32
}

// link implements Ctx.Link (§4.4): create a bidirectional death
// notification edge between id and to. Linking to self or to a dead
// actor is invalid. Linking twice to the same peer is a no-op.
func (rt *Runtime) link(id, to ActorID) Status {
	if id == to {
		return withMsg(INVALID, "cannot link an actor to itself")
	}
	a := rt.mustActor(id)
	b, ok := rt.lookupActor(to)
	if !ok {
		return withMsg(INVALID, "link target is not live")
	}
	if _, exists := a.links[to]; exists {
		return StatusOK
	}

	idxA, edgeA, ok := rt.linkPool.acquire()
	if !ok {
		return StatusNoMem
	}
	idxB, edgeB, ok := rt.linkPool.acquire()
	if !ok {
		rt.linkPool.release(idxA)
		return StatusNoMem
	}
	*edgeA = linkEdge{owner: id, peer: to}
	*edgeB = linkEdge{owner: to, peer: id}
	a.links[to] = idxA
	b.links[id] = idxB
	return StatusOK
}

// unlink implements Ctx.Unlink: remove a previously created link, if
// any. Unlinking a non-existent link is not an error.
func (rt *Runtime) unlink(id, to ActorID) Status {
	a := rt.mustActor(id)
	idxA, ok := a.links[to]
	if !ok {
		return StatusOK
	}
	rt.linkPool.release(idxA)
	delete(a.links, to)

	if b, ok := rt.lookupActor(to); ok {
		if idxB, ok := b.links[id]; ok {
			rt.linkPool.release(idxB)
			delete(b.links, id)
		}
	}
	return StatusOK
}

// monitor implements Ctx.Monitor: a unidirectional watch on target,
// returning a reference id that is unique among currently-live
// monitors (not globally unique across the run, matching the spec's
// "ref is stable for the life of the monitor" wording).
func (rt *Runtime) monitor(id, target ActorID) (uint32, Status) {
	a := rt.mustActor(id)
	t, ok := rt.lookupActor(target)
	if !ok {
		return 0, withMsg(INVALID, "monitor target is not live")
	}

	idx, edge, ok := rt.monPool.acquire()
	if !ok {
		return 0, StatusNoMem
	}
	ref := uint32(idx) + 1 // +1 so 0 can mean "no monitor" (ExitInfo.MonitorID)
	*edge = monitorEdge{watcher: id, target: target, ref: ref}
	a.monOut[ref] = target
	t.monIn[ref] = id
	return ref, StatusOK
}

// cancelMonitor implements Ctx.CancelMonitor.
func (rt *Runtime) cancelMonitor(id ActorID, ref uint32) Status {
	a := rt.mustActor(id)
	target, ok := a.monOut[ref]
	if !ok {
		return StatusOK
	}
	delete(a.monOut, ref)
	if t, ok := rt.lookupActor(target); ok {
		delete(t.monIn, ref)
	}
	rt.monPool.release(int(ref) - 1)
	return StatusOK
}

// terminate runs the full death-propagation sequence for a (§4.4 steps
// 1-7). It must be called exactly once per actor, from the scheduler
// immediately after its entry goroutine unwinds, whatever the reason.
func (rt *Runtime) terminate(a *actor, reason ExitReason) {
	a.state = StateDead
	a.exitReason = reason

	// step 1: discard the mailbox (no further messages will ever be
	// observed by a dead actor).
	rt.discardMailbox(a)

	// step 2-3: walk the link set, notify each peer and remove the
	// reverse edge so the peer doesn't try to notify back into a
	// table slot that is about to be freed.
	for peer, idxA := range a.links {
		rt.linkPool.release(idxA)
		if p, ok := rt.lookupActor(peer); ok {
			delete(p.links, a.id)
			rt.notify(a.id, peer, ClassExit, true, TagAny, encodeExitInfo(a.id, reason))
		}
	}
	a.links = nil

	// step 4-5: walk the incoming monitor set, notify each watcher
	// with its specific ref, then free the monitor entry.
	for ref, watcher := range a.monIn {
		if w, ok := rt.lookupActor(watcher); ok {
			delete(w.monOut, ref)
			rt.notify(a.id, watcher, ClassExit, true, Tag(ref), encodeExitInfo(a.id, reason))
		}
		rt.monPool.release(int(ref) - 1)
	}
	a.monIn = nil

	// this actor's own outgoing monitors are simply dropped; the
	// targets it was watching are unaffected by its own death.
	for ref, target := range a.monOut {
		if t, ok := rt.lookupActor(target); ok {
			delete(t.monIn, ref)
		}
		rt.monPool.release(int(ref) - 1)
	}
	a.monOut = nil

	// step 6: cancel owned timers.
	rt.cancelActorTimers(a)

	// step 7: unsubscribe from every bus, release the stack block and
	// the actor table slot.
	rt.busUnsubscribeAll(a)
	if !a.hostHeap {
		rt.stackArena.release(a.stackOffset)
	}
	idx, _ := decodeActorID(a.id)
	slot := rt.actorPool.at(idx)
	slot.a = nil
	rt.actorPool.release(idx)
}
