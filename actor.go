package actorcore

// ActorID opaquely identifies an actor. IDs are assigned monotonically
// by the runtime and are never reused within a run (§3).
type ActorID uint64

// Priority is the scheduling priority of an actor (§3, §4.1). Lower
// values run first.
type Priority uint8

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ActorState is the lifecycle state of an actor (§3).
type ActorState uint8

const (
	StateReady ActorState = iota
	StateRunning
	StateWaiting
	StateDead
)

func (s ActorState) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateWaiting:
		return "WAITING"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// EntryFunc is an actor's body. It must return promptly after Ctx.Exit
// is called (Exit never returns — it unwinds via panic/recover, caught
// by the runtime). A plain return without calling Exit is treated as a
// crash (§4.2, §7), matching the source semantics exactly: there is no
// "successful implicit exit".
type EntryFunc func(ctx *Ctx, arg any)

// InitFunc runs in the spawner's context before the child's first step;
// its return value becomes the child's entry argument (§4.2 step 3).
type InitFunc func() any

// exitSignal is the internal panic value used to unwind an actor's
// entry function immediately on Exit or Kill, without running any more
// user code — the Go rendition of "exit never returns".
type exitSignal struct {
	reason ExitReason
}

// waitPredicate describes what a WAITING actor is blocked on: a
// compound predicate over mailbox filters and/or bus subscriptions,
// exactly as produced by the select primitive (§4.5). Every blocking
// receive variant reduces to this.
type waitPredicate struct {
	filters []IPCFilter
	buses   []BusID
	// single is true when the actor parked on exactly one source
	// (Receive, MatchReceive, or a one-source Select); DumpState
	// reports it as wait_mode "receive".
	single bool
}

func (p *waitPredicate) matchesIPC(sender ActorID, class Class, tag Tag) (int, bool) {
	for i, f := range p.filters {
		if f.Matches(sender, class, tag) {
			return i, true
		}
	}
	return 0, false
}

// actor is the runtime's internal actor record (§3 "Actor").
type actor struct {
	id       ActorID
	name     string
	priority Priority
	state    ActorState

	stackOffset int
	stackSize   int
	hostHeap    bool

	mailbox *mailbox

	links    map[ActorID]int // peer id -> link pool index of the A->B entry
	monIn    map[uint32]ActorID // ref -> watcher id (others watching this actor)
	monOut   map[uint32]ActorID // ref -> target id (this actor watching others)
	timers   map[uint32]struct{}
	busSubs map[BusID]struct{}

	waitPred     *waitPredicate
	waitDeadline int64 // microseconds; meaningful only when hasDeadline is set
	hasDeadline  bool

	killRequested bool
	exitReason    ExitReason

	entry   EntryFunc
	initArg any
	ctx     *Ctx

	turn    chan struct{}
	yielded chan struct{}

	lastEntryIdx int // entry pool index returned by the previous successful receive, not yet freed; -1 if none
}

func newActor(id ActorID, opts spawnOptions, entry EntryFunc, initArg any) *actor {
	return &actor{
		id:             id,
		name:           opts.name,
		priority:       opts.priority,
		state:          StateReady,
		stackSize:      opts.stackSize,
		hostHeap:       opts.hostHeap,
		mailbox:        newMailbox(),
		links:          make(map[ActorID]int),
		monIn:          make(map[uint32]ActorID),
		monOut:         make(map[uint32]ActorID),
		timers:         make(map[uint32]struct{}),
		busSubs:        make(map[BusID]struct{}),
		waitDeadline: -1,
		lastEntryIdx: -1,
		entry:        entry,
		initArg:      initArg,
		turn:         make(chan struct{}),
		yielded:      make(chan struct{}),
	}
}

// checkKilled panics with exitSignal{ExitKilled} if the runtime has
// requested this actor's termination. Called by the actor's own
// goroutine immediately after every resume (<-a.turn), so a kill is
// always observed at the very next scheduling visit, matching §5's
// "target transitions to DEAD on its next scheduler visit".
func (a *actor) checkKilled() {
	if a.killRequested {
		panic(exitSignal{reason: ExitKilled})
	}
}

// parkAndResume records the actor's new (non-RUNNING) state and wait
// parameters, hands control back to the scheduler, and blocks until the
// scheduler resumes it. It is the single primitive every blocking
// operation (yield, receive, select, sleep, request) reduces to — the
// Go rendition of the specification's abstract "save+resume" context
// switch (§9 design notes): the actor's goroutine stack itself is the
// saved context, and the turn/yielded channel pair is the switch
// primitive.
func (a *actor) parkAndResume(state ActorState, pred *waitPredicate, deadlineUs int64, hasDeadline bool) {
	a.state = state
	a.waitPred = pred
	a.hasDeadline = hasDeadline
	a.waitDeadline = deadlineUs
	a.yielded <- struct{}{}
	<-a.turn
	a.checkKilled()
}
