package actorcore

// payload is one fixed-size slot of the message-data pool (§3
// "Message"). Only the first payloadLen bytes of a slot are meaningful;
// the rest is leftover from a previous occupant and never read.
type payload [MaxMessagePayloadSize]byte

// mailboxEntry is one slot of the mailbox-entry pool: a node in the
// per-actor doubly-linked FIFO of pending messages, plus a reference
// to its payload slot. The specification describes the mailbox as a
// singly-linked list (§4.3); the reverse link is purely an internal
// convenience so a selective receive can detach an arbitrary mid-list
// match in O(1) once found, rather than re-walking from head.
type mailboxEntry struct {
	sender     ActorID
	header     header
	payloadIdx int // index into the payload pool, or -1 for a zero-length payload
	payloadLen int
	prev, next int // entry pool indices, or -1
}

// mailbox is an actor's FIFO queue of pending mailboxEntry indices.
type mailbox struct {
	head  int
	tail  int
	count int
}

func newMailbox() *mailbox {
	return &mailbox{head: -1, tail: -1}
}

// enqueue appends a message to target's mailbox and, per §4.3/§4.5,
// wakes target if it is currently WAITING — unconditionally, not only
// on a predicate match. A spurious wake just costs target one extra
// poll-and-reblock cycle in selectWait; requiring enqueue to evaluate
// the waiter's predicate would duplicate selectWait's own matching
// logic and the two would need to be kept in lockstep.
func (rt *Runtime) enqueue(target *actor, sender ActorID, class Class, generated bool, tag Tag, buf []byte) Status {
	if len(buf) > MaxMessagePayloadSize {
		return withMsg(INVALID, "payload exceeds MaxMessagePayloadSize")
	}

	payloadIdx := -1
	if len(buf) > 0 {
		idx, p, ok := rt.payloadPool.acquire()
		if !ok {
			return StatusNoMem
		}
		copy(p[:], buf)
		payloadIdx = idx
	}

	entryIdx, e, ok := rt.entryPool.acquire()
	if !ok {
		if payloadIdx >= 0 {
			rt.payloadPool.release(payloadIdx)
		}
		return StatusNoMem
	}
	e.sender = sender
	e.header = encodeHeader(class, generated, tag)
	e.payloadIdx = payloadIdx
	e.payloadLen = len(buf)
	e.prev = target.mailbox.tail
	e.next = -1

	if target.mailbox.tail >= 0 {
		rt.entryPool.at(target.mailbox.tail).next = entryIdx
	} else {
		target.mailbox.head = entryIdx
	}
	target.mailbox.tail = entryIdx
	target.mailbox.count++

	if target.state == StateWaiting {
		rt.enqueueReady(target)
	}
	return StatusOK
}

// notify implements Ctx.Notify and every other internal message send
// (request, reply, exit notifications, timer expirations) — all of
// them are just an enqueue onto the target's mailbox with a particular
// class/tag (§4.3).
func (rt *Runtime) notify(from, to ActorID, class Class, generated bool, tag Tag, buf []byte) Status {
	target, ok := rt.lookupActor(to)
	if !ok {
		return withMsg(INVALID, "target actor is not live")
	}
	return rt.enqueue(target, from, class, generated, tag, buf)
}

// releasePendingReceive frees the entry and payload slots from the
// actor's previous successful receive, if any. This is the delayed
// half of the Payload lifetime invariant (§3): a Message's Payload
// slice stays valid until the actor's *next* successful receive, not
// until the current one returns, so freeing happens here rather than
// at the point of detachment.
func (rt *Runtime) releasePendingReceive(a *actor) {
	if a.lastEntryIdx < 0 {
		return
	}
	e := rt.entryPool.at(a.lastEntryIdx)
	if e.payloadIdx >= 0 {
		rt.payloadPool.release(e.payloadIdx)
	}
	rt.entryPool.release(a.lastEntryIdx)
	a.lastEntryIdx = -1
}

// detachEntry unlinks entryIdx from a's mailbox and returns it as a
// Message. The just-superseded previous receive's storage is released
// here, and entryIdx becomes the new pending-release entry.
func (rt *Runtime) detachEntry(a *actor, entryIdx int) Message {
	rt.releasePendingReceive(a)

	e := rt.entryPool.at(entryIdx)
	if e.prev >= 0 {
		rt.entryPool.at(e.prev).next = e.next
	} else {
		a.mailbox.head = e.next
	}
	if e.next >= 0 {
		rt.entryPool.at(e.next).prev = e.prev
	} else {
		a.mailbox.tail = e.prev
	}
	a.mailbox.count--

	msg := Message{
		Sender:    e.sender,
		Class:     e.header.class(),
		Generated: e.header.generated(),
		Tag:       e.header.tag(),
		entryIdx:  entryIdx,
	}
	if e.payloadIdx >= 0 {
		p := rt.payloadPool.at(e.payloadIdx)
		msg.Payload = p[:e.payloadLen]
	}

	a.lastEntryIdx = entryIdx
	return msg
}

// discardMailbox releases every slot owned by a's mailbox, including
// any still-pending previous-receive slot, without producing any
// messages. Used when an actor dies (§4.4 step 1: "discard mailbox").
func (rt *Runtime) discardMailbox(a *actor) {
	rt.releasePendingReceive(a)
	for idx := a.mailbox.head; idx >= 0; {
		e := rt.entryPool.at(idx)
		next := e.next
		if e.payloadIdx >= 0 {
			rt.payloadPool.release(e.payloadIdx)
		}
		rt.entryPool.release(idx)
		idx = next
	}
	a.mailbox.head = -1
	a.mailbox.tail = -1
	a.mailbox.count = 0
}

// receive implements Ctx.Receive/MatchReceive: a single-filter select.
func (rt *Runtime) receive(id ActorID, filter IPCFilter, timeoutMs int) (Message, Status) {
	res, st := rt.selectWait(id, []SelectSource{IPCSource(filter)}, timeoutMs)
	if !st.Ok() {
		return Message{}, st
	}
	return res.Message, StatusOK
}

// multiMatchReceive implements Ctx.MultiMatchReceive: a select over
// IPC-only sources, reporting which filter matched.
func (rt *Runtime) multiMatchReceive(id ActorID, filters []IPCFilter, timeoutMs int) (Message, int, Status) {
	sources := make([]SelectSource, len(filters))
	for i, f := range filters {
		sources[i] = IPCSource(f)
	}
	res, st := rt.selectWait(id, sources, timeoutMs)
	if !st.Ok() {
		return Message{}, 0, st
	}
	return res.Message, res.Index, StatusOK
}

// request implements Ctx.Request (§4.3): send a REQUEST with a freshly
// allocated generated tag, monitor the target for the call's duration,
// and wait for either the matching REPLY or the target's death.
func (rt *Runtime) request(id, to ActorID, buf []byte, timeoutMs int) (Message, Status) {
	tag := rt.allocGeneratedTag()
	if st := rt.notify(id, to, ClassRequest, true, tag, buf); !st.Ok() {
		return Message{}, st
	}

	ref, monSt := rt.monitor(id, to)
	monitoring := monSt.Ok()

	sources := []SelectSource{IPCSource(IPCFilter{Sender: to, Class: ClassReply, Tag: tag})}
	if monitoring {
		sources = append(sources, IPCSource(IPCFilter{Sender: to, Class: ClassExit, Tag: TagAny}))
	}

	res, st := rt.selectWait(id, sources, timeoutMs)
	if monitoring {
		rt.cancelMonitor(id, ref)
	}
	if !st.Ok() {
		return Message{}, st
	}
	if res.Index == 1 {
		return res.Message, withMsg(CLOSED, "target exited before replying")
	}
	return res.Message, StatusOK
}

// reply implements Ctx.Reply: answer a received REQUEST in kind.
func (rt *Runtime) reply(id ActorID, req Message, buf []byte) Status {
	if req.Class != ClassRequest {
		return withMsg(INVALID, "reply: message is not a REQUEST")
	}
	return rt.notify(id, req.Sender, ClassReply, true, req.Tag, buf)
}

// mailboxPending implements Ctx.Pending.
func (rt *Runtime) mailboxPending(id ActorID) bool {
	a := rt.mustActor(id)
	return a.mailbox.head >= 0
}

// mailboxCount implements Ctx.Count.
func (rt *Runtime) mailboxCount(id ActorID) int {
	a := rt.mustActor(id)
	return a.mailbox.count
}
