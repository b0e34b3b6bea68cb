package actorcore

import "time"

// Spawn creates a new actor (§4.2): reserve a table slot, allocate its
// stack from the arena (or the host heap, with WithHostHeap), run the
// optional init callback in the spawner's own context, start the
// actor's goroutine parked at its first turn, and enqueue it READY.
func (rt *Runtime) Spawn(entry EntryFunc, opts ...SpawnOption) (ActorID, Status) {
	so := resolveSpawnOptions(opts)

	idx, slot, ok := rt.actorPool.acquire()
	if !ok {
		return 0, StatusNoMem
	}

	var stackOffset int
	if !so.hostHeap {
		off, ok := rt.stackArena.alloc(so.stackSize)
		if !ok {
			rt.actorPool.release(idx)
			return 0, StatusNoMem
		}
		stackOffset = off
	}

	gen := rt.nextGen
	rt.nextGen++
	id := encodeActorID(idx, gen)

	var initArg any
	if so.init != nil {
		initArg = so.init()
	}

	a := newActor(id, so, entry, initArg)
	a.stackOffset = stackOffset
	a.ctx = &Ctx{rt: rt, id: id}

	slot.a = a
	slot.gen = gen

	go rt.runEntry(a)
	rt.enqueueReady(a)
	return id, StatusOK
}

// runEntry is the body of an actor's goroutine. It blocks for its
// first turn, runs the entry function, and funnels every possible
// termination path — Ctx.Exit, an external Kill, a genuine crash, or
// falling off the end of EntryFunc without calling Exit — through one
// recover(), so the scheduler always observes a uniform "actor is now
// DEAD with this ExitReason" signal.
func (rt *Runtime) runEntry(a *actor) {
	defer func() {
		r := recover()
		reason := ExitNormal
		switch sig := r.(type) {
		case nil:
			// entry returned without calling Exit: not a success.
			reason = ExitCrash
		case exitSignal:
			reason = sig.reason
		default:
			reason = ExitCrash
			rt.logger.Info().Str("actor", a.name).Log("actor crashed")
		}
		a.exitReason = reason
		a.state = StateDead
		a.yielded <- struct{}{}
	}()

	<-a.turn
	a.checkKilled()
	a.entry(a.ctx, a.initArg)
	panic(exitSignal{reason: ExitCrash})
}

// popReady pops the next actor to run from the highest-priority
// non-empty run queue, discarding any stale entries left behind by an
// actor that died between being enqueued and being dispatched.
func (rt *Runtime) popReady() (*actor, bool) {
	for p := 0; p < PriorityLevels; p++ {
		q := rt.runQueues[p]
		for len(q) > 0 {
			id := q[0]
			q = q[1:]
			rt.runQueues[p] = q
			if a, ok := rt.lookupActor(id); ok {
				return a, true
			}
		}
	}
	return nil, false
}

// dispatch gives a exactly one turn: hand it control, block until it
// yields control back (by parking or by dying), then, if it died,
// run the death-propagation sequence (§4.1 "context switch").
func (rt *Runtime) dispatch(a *actor) {
	rt.current = a
	a.state = StateRunning
	a.turn <- struct{}{}
	<-a.yielded
	rt.current = nil
	if a.state == StateDead {
		rt.terminate(a, a.exitReason)
	}
}

func (rt *Runtime) hasReadyWork() bool {
	for p := 0; p < PriorityLevels; p++ {
		if len(rt.runQueues[p]) > 0 {
			return true
		}
	}
	return false
}

// computePollTimeout bounds a readiness wait by the configured ceiling
// (WithPollMaxWait), the earliest pending software timer deadline, and
// the earliest deadline of any actor parked in a timed receive/select,
// so neither a software timer nor a Receive/Select timeout is ever
// delayed behind a long I/O wait (§4.1).
func (rt *Runtime) computePollTimeout(nowUs int64) int {
	d := rt.opts.pollMaxWait
	bound := func(deadline int64) {
		remain := deadline - nowUs
		if remain < 0 {
			remain = 0
		}
		if rd := MicrosToDuration(remain); rd < d {
			d = rd
		}
	}
	if deadline, ok := rt.nextTimerDeadline(); ok {
		bound(deadline)
	}
	if deadline, ok := rt.nextWaitDeadline(); ok {
		bound(deadline)
	}
	ms := int(d / time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	return ms
}

// nextWaitDeadline scans the actor table for the earliest deadline
// among actors currently parked in a timed Receive/Select, so the
// scheduler's poll wait can be bounded tightly enough that
// wakeExpiredWaiters runs promptly instead of only every pollMaxWait.
func (rt *Runtime) nextWaitDeadline() (int64, bool) {
	found := false
	var earliest int64
	for i := 0; i < rt.actorPool.Cap(); i++ {
		if !rt.actorPool.isInUse(i) {
			continue
		}
		a := rt.actorPool.at(i).a
		if a == nil || a.state != StateWaiting || !a.hasDeadline {
			continue
		}
		if !found || a.waitDeadline < earliest {
			earliest = a.waitDeadline
			found = true
		}
	}
	return earliest, found
}

// wakeExpiredWaiters moves every WAITING actor whose timed Receive/
// Select deadline has elapsed back onto its run queue. It does not
// decide the outcome itself — the actor re-polls its own predicate on
// its next turn (selectWait's post-resume check) and only reports
// TIMEOUT if nothing arrived in the same tick that produced the wake,
// matching the "re-check once more before declaring timeout" rule.
func (rt *Runtime) wakeExpiredWaiters(nowUs int64) {
	for i := 0; i < rt.actorPool.Cap(); i++ {
		if !rt.actorPool.isInUse(i) {
			continue
		}
		a := rt.actorPool.at(i).a
		if a == nil || a.state != StateWaiting || !a.hasDeadline {
			continue
		}
		if nowUs >= a.waitDeadline {
			rt.enqueueReady(a)
		}
	}
}

// drainReadyEvents applies one readiness batch in array order (§4.1
// "event drain order"). SourceTimer events are a platform hint that
// the internal timer heap (authoritative for deadlines) likely has
// work; SourceIO events wake their owner so a pending select/receive
// re-polls whatever external channel (bus or mailbox) the embedder's
// I/O integration feeds on that actor's behalf.
func (rt *Runtime) drainReadyEvents(events []ReadyEvent, nowUs int64) {
	for _, ev := range events {
		switch ev.Kind {
		case SourceTimer:
			rt.drainDueTimers(nowUs)
		case SourceIO:
			if a, ok := rt.lookupActor(ev.Owner); ok && a.state == StateWaiting {
				rt.enqueueReady(a)
			}
		}
	}
}

// Run drives the scheduler until every actor has died or
// ShutdownRequest has been called and no actor remains ready (§4.1
// steps 1-4). It is the only method expected to block for a
// substantial time; call it from the host's main goroutine.
func (rt *Runtime) Run() {
	for {
		if a, ok := rt.popReady(); ok {
			rt.dispatch(a)
			continue
		}

		now := rt.clock.NowMicros()
		rt.drainDueTimers(now)
		rt.wakeExpiredWaiters(now)
		if rt.hasReadyWork() {
			continue
		}

		if rt.shutdown || rt.actorPool.Len() == 0 {
			return
		}

		timeoutMs := rt.computePollTimeout(now)
		events, err := rt.readiness.Wait(rt.readyBuf[:0], timeoutMs)
		if err != nil {
			rt.logger.Info().Str("error", err.Error()).Log("readiness wait failed")
			continue
		}
		rt.readyBuf = events
		rt.drainReadyEvents(events, rt.clock.NowMicros())
	}
}

// ShutdownRequest asks Run to return once the run queues next drain,
// rather than waiting for every actor to exit on its own (§6).
func (rt *Runtime) ShutdownRequest() {
	rt.shutdown = true
}

// Alive implements the host-facing liveness query (§6 "AliveQuery").
func (rt *Runtime) Alive(id ActorID) bool {
	return rt.alive(id)
}

// Cleanup clears the run queues. It does not deregister anything from
// the readiness provider. Pool storage itself needs no explicit
// teardown: it is either already empty (every actor reached DEAD) or
// owned by a Runtime that is about to be dropped.
func (rt *Runtime) Cleanup() {
	for p := 0; p < PriorityLevels; p++ {
		rt.runQueues[p] = nil
	}
}
