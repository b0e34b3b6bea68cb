package actorcore

// Ctx is the handle an actor's EntryFunc uses to call back into the
// runtime. It is bound to exactly one actor and must not be shared
// across actors or retained past the entry function's lifetime (the
// same "borrowed view" discipline as Message.Payload).
type Ctx struct {
	rt *Runtime
	id ActorID
}

// Self returns the bound actor's id.
func (c *Ctx) Self() ActorID { return c.id }

// Yield voluntarily relinquishes the CPU; the actor moves to the tail
// of its priority's run queue (§4.1 "Yielding actor").
func (c *Ctx) Yield() { c.rt.yield(c.id) }

// Exit terminates the calling actor with the given reason. It never
// returns to the caller.
func (c *Ctx) Exit(reason ExitReason) { c.rt.exitSelf(c.id, reason) }

// Notify sends a fire-and-forget message (§4.3).
func (c *Ctx) Notify(to ActorID, tag Tag, payload []byte) Status {
	return c.rt.notify(c.id, to, ClassNotify, false, tag, payload)
}

// Receive waits for any message, with the standard timeout semantics
// (negative: forever, zero: non-blocking, positive: deadline in ms).
func (c *Ctx) Receive(timeoutMs int) (Message, Status) {
	return c.rt.receive(c.id, IPCFilter{Sender: SenderAny, Class: ClassAny, Tag: TagAny}, timeoutMs)
}

// MatchReceive waits for a message matching (sender, class, tag), with
// SenderAny/ClassAny/TagAny wildcards.
func (c *Ctx) MatchReceive(sender ActorID, class Class, tag Tag, timeoutMs int) (Message, Status) {
	return c.rt.receive(c.id, IPCFilter{Sender: sender, Class: class, Tag: tag}, timeoutMs)
}

// MultiMatchReceive waits for a message matching any of filters, in
// array order, returning the index of the matched filter.
func (c *Ctx) MultiMatchReceive(filters []IPCFilter, timeoutMs int) (Message, int, Status) {
	return c.rt.multiMatchReceive(c.id, filters, timeoutMs)
}

// Request sends buf as a REQUEST to to and waits for a matching REPLY
// or the target's death, whichever comes first (§4.3).
func (c *Ctx) Request(to ActorID, payload []byte, timeoutMs int) (Message, Status) {
	return c.rt.request(c.id, to, payload, timeoutMs)
}

// Reply answers a received REQUEST message with payload.
func (c *Ctx) Reply(req Message, payload []byte) Status {
	return c.rt.reply(c.id, req, payload)
}

// Pending reports whether the mailbox has at least one entry.
func (c *Ctx) Pending() bool { return c.rt.mailboxPending(c.id) }

// Count returns the number of entries currently in the mailbox.
func (c *Ctx) Count() int { return c.rt.mailboxCount(c.id) }

// Select waits on up to K sources (IPC filters and/or bus
// subscriptions), per §4.5.
func (c *Ctx) Select(sources []SelectSource, timeoutMs int) (SelectResult, Status) {
	return c.rt.selectWait(c.id, sources, timeoutMs)
}

// Link creates a bidirectional death-notification edge to to (§4.4).
func (c *Ctx) Link(to ActorID) Status { return c.rt.link(c.id, to) }

// Unlink removes a previously created link.
func (c *Ctx) Unlink(to ActorID) Status { return c.rt.unlink(c.id, to) }

// Monitor creates a unidirectional death-notification edge to target
// and returns its reference id.
func (c *Ctx) Monitor(target ActorID) (uint32, Status) { return c.rt.monitor(c.id, target) }

// CancelMonitor removes a previously created monitor.
func (c *Ctx) CancelMonitor(ref uint32) Status { return c.rt.cancelMonitor(c.id, ref) }

// After schedules a one-shot TIMER message after delta microseconds.
func (c *Ctx) After(deltaUs int64) (uint32, Status) { return c.rt.timerAfter(c.id, deltaUs, 0) }

// Every schedules a periodic TIMER message every delta microseconds.
func (c *Ctx) Every(deltaUs int64) (uint32, Status) { return c.rt.timerAfter(c.id, deltaUs, deltaUs) }

// CancelTimer cancels a one-shot or periodic timer by id.
func (c *Ctx) CancelTimer(id uint32) Status { return c.rt.cancelTimer(c.id, id) }

// Sleep blocks the caller for delta microseconds via a one-shot timer
// and a selective receive for it (§4.6).
func (c *Ctx) Sleep(deltaUs int64) { c.rt.sleep(c.id, deltaUs) }

// Now returns the current monotonic microsecond clock reading.
func (c *Ctx) Now() int64 { return c.rt.clock.NowMicros() }

// NewBus allocates a new broadcast bus from the bus table.
func (c *Ctx) NewBus() (BusID, Status) { return c.rt.newBus() }

// SubscribeBus subscribes the calling actor to bus, starting from the
// next entry published after the call.
func (c *Ctx) SubscribeBus(bus BusID) Status { return c.rt.subscribeBus(c.id, bus) }

// UnsubscribeBus removes a previously created bus subscription.
func (c *Ctx) UnsubscribeBus(bus BusID) Status { return c.rt.unsubscribeBus(c.id, bus) }

// PublishBus broadcasts data to every current subscriber of bus.
func (c *Ctx) PublishBus(bus BusID, data []byte) Status { return c.rt.publishBus(bus, data) }

// Kill externally terminates another actor.
func (c *Ctx) Kill(target ActorID) Status { return c.rt.kill(target) }

// Alive reports whether id still has a live actor table entry.
func (c *Ctx) Alive(id ActorID) bool { return c.rt.alive(id) }
