package actorcore

import "fmt"

// actorSlot backs the fixed-capacity actor table (§3 "Actor"). gen is
// taken from a runtime-wide counter that every Spawn advances, so a
// stale ActorID decoded from an old generation is rejected rather than
// silently aliasing a new actor
// that reused the same table slot — the same ABA guard eventloop's FD
// table gets for free from the kernel's fd numbering, reproduced here
// by hand since actor ids are a core value type.
type actorSlot struct {
	a   *actor
	gen uint32
}

func encodeActorID(idx int, gen uint32) ActorID {
	return ActorID(uint64(gen)<<32 | uint64(uint32(idx)))
}

func decodeActorID(id ActorID) (idx int, gen uint32) {
	return int(uint32(id)), uint32(id >> 32)
}

// Runtime is the actor runtime core (§3-§5). A Runtime is not safe for
// concurrent use from multiple goroutines: every public entry point
// must be called from either the owning host goroutine (New, Run,
// Spawn, ShutdownRequest, Alive before Run starts) or from within
// an actor's own EntryFunc via its Ctx, which the scheduler itself
// guarantees is never concurrent (§5 "no locking").
type Runtime struct {
	opts runtimeOptions

	clock     Clock
	logger    Logger
	readiness ReadinessProvider

	actorPool *pool[actorSlot]
	nextGen   uint32

	entryPool   *pool[mailboxEntry]
	payloadPool *pool[payload]
	linkPool    *pool[linkEdge]
	monPool     *pool[monitorEdge]
	timerPool   *pool[timerRecord]

	buses []bus

	runQueues [PriorityLevels][]ActorID

	timerHeap timerHeap

	stackArena *stackArena

	shutdown bool

	current *actor // the actor currently RUNNING, nil between turns

	readyBuf []ReadyEvent // reused scratch buffer for ReadinessProvider.Wait

	nextGenTag uint32 // generated request/reply tag counter (§4.3)
}

// allocGeneratedTag returns the next tag in the generated (request/
// reply) namespace, skipping TagAny so it never collides with the
// select wildcard (§4.3 invariant).
func (rt *Runtime) allocGeneratedTag() Tag {
	rt.nextGenTag = (rt.nextGenTag + 1) & tagMask
	if Tag(rt.nextGenTag) == TagAny {
		rt.nextGenTag = (rt.nextGenTag + 1) & tagMask
	}
	return Tag(rt.nextGenTag)
}

// New constructs a Runtime with the given options, pre-allocating every
// static pool up front (§5 "all memory is allocated at startup").
func New(opts ...Option) *Runtime {
	o := resolveOptions(opts)
	rt := &Runtime{
		opts:        o,
		clock:       o.clock,
		logger:      o.logger,
		readiness:   o.readiness,
		actorPool:   newPool[actorSlot](o.limits.MaxActors),
		entryPool:   newPool[mailboxEntry](o.limits.MailboxEntryPoolSize),
		payloadPool: newPool[payload](o.limits.MessageDataPoolSize),
		linkPool:    newPool[linkEdge](o.limits.LinkEntryPoolSize),
		monPool:     newPool[monitorEdge](o.limits.MonitorEntryPoolSize),
		timerPool:   newPool[timerRecord](o.limits.TimerEntryPoolSize),
		buses:       make([]bus, 0, o.limits.MaxBuses),
		stackArena:  newStackArena(o.limits.StackArenaSize),
		readyBuf:    make([]ReadyEvent, 0, 64),
	}
	rt.timerHeap = timerHeap{pool: rt.timerPool}
	return rt
}

// mustActor fetches the actor table entry for id, panicking if it is
// not live. Used only for the actor's own id from within its own Ctx
// methods, where liveness is a runtime invariant, not user input.
func (rt *Runtime) mustActor(id ActorID) *actor {
	a, ok := rt.lookupActor(id)
	if !ok {
		panic(fmt.Sprintf("actorcore: internal: actor %d is not live", id))
	}
	return a
}

// lookupActor resolves id to its live actor record, if any.
func (rt *Runtime) lookupActor(id ActorID) (*actor, bool) {
	idx, gen := decodeActorID(id)
	if !rt.actorPool.isInUse(idx) {
		return nil, false
	}
	slot := rt.actorPool.at(idx)
	if slot.gen != gen || slot.a == nil {
		return nil, false
	}
	return slot.a, true
}

// alive reports whether id still has a live actor table entry (§6
// Alive).
func (rt *Runtime) alive(id ActorID) bool {
	_, ok := rt.lookupActor(id)
	return ok
}

// enqueueReady appends id to the tail of its priority's run queue,
// transitioning it to READY (§4.1).
func (rt *Runtime) enqueueReady(a *actor) {
	a.state = StateReady
	rt.runQueues[a.priority] = append(rt.runQueues[a.priority], a.id)
}

// yield implements Ctx.Yield: move to the tail of the run queue and
// park until the scheduler gives this actor another turn.
func (rt *Runtime) yield(id ActorID) {
	a := rt.mustActor(id)
	rt.enqueueReady(a)
	a.parkAndResume(StateReady, nil, 0, false)
}

// exitSelf implements Ctx.Exit: panics with exitSignal, unwound by the
// recover() in runEntry (scheduler.go). It never returns.
func (rt *Runtime) exitSelf(id ActorID, reason ExitReason) {
	panic(exitSignal{reason: reason})
}

// kill implements Ctx.Kill / the external kill entry point (§4.4,
// §6). The target is not torn down synchronously: it is flagged and,
// if currently WAITING, moved to READY so it gets exactly one more
// scheduler visit, at which point checkKilled unwinds it. A target
// that is already RUNNING (only possible for self-kill via its own id,
// which Ctx.Exit covers instead) or already DEAD is a no-op beyond the
// flag.
func (rt *Runtime) kill(target ActorID) Status {
	a, ok := rt.lookupActor(target)
	if !ok {
		return StatusOK // killing a dead/unknown actor is not an error (§6)
	}
	a.killRequested = true
	if a.state == StateWaiting {
		rt.enqueueReady(a)
	}
	return StatusOK
}
