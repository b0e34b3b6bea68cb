package actorcore

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// Strategy selects how a supervisor reacts to one child's death (§3
// "Supervisor state").
type Strategy uint8

const (
	// OneForOne restarts only the child that died.
	OneForOne Strategy = iota
	// OneForAll restarts every child whenever any one of them dies.
	OneForAll
	// RestForOne restarts the dead child and every child started after
	// it (§3 "sibling info" ordering).
	RestForOne
)

// RestartPolicy classifies whether a child is restarted after it exits
// (§3 "Supervisor state").
type RestartPolicy uint8

const (
	// Permanent children are always restarted.
	Permanent RestartPolicy = iota
	// Transient children are restarted only on an abnormal exit.
	Transient
	// Temporary children are never restarted.
	Temporary
)

func shouldRestart(policy RestartPolicy, reason ExitReason) bool {
	switch policy {
	case Permanent:
		return true
	case Transient:
		return reason != ExitNormal
	default: // Temporary
		return false
	}
}

// SiblingInfo is one entry of the directory a Supervisor installs into
// every child's startup argument (§3 "Sibling info"): per-child record
// {name, actor id, registered-flag}. Registered is always true here —
// a child only ever appears in the directory once its spawn has
// actually succeeded.
type SiblingInfo struct {
	Name       string
	ID         ActorID
	Registered bool
}

// ChildInit is the value a ChildSpec's Entry receives as its startup
// argument when spawned under a Supervisor (§4.7 phase 3): the complete
// sibling directory as of this bring-up pass, plus whatever this
// child's own Init/InitArg produced.
type ChildInit struct {
	Siblings []SiblingInfo
	Arg      any
}

// ChildSpec describes one supervised child (§4.7).
type ChildSpec struct {
	Name   string
	Entry  EntryFunc
	Policy RestartPolicy
	Opts   []SpawnOption

	// Init, if set, runs in the supervisor's own context before this
	// child's first step; its return value becomes ChildInit.Arg
	// (§4.2 step 3, applied per-child).
	Init func() any

	// InitArg is used as ChildInit.Arg when Init is nil. It is copied
	// into supervisor-owned storage, bounded by MaxMessagePayloadSize
	// (§4.7 "init-arg bytes (copied ... bounded by MAX_MESSAGE_SIZE)").
	InitArg []byte
}

// supervisorConfig is the resolved configuration built by
// SupervisorOption values.
type supervisorConfig struct {
	name        string
	strategy    Strategy
	children    []ChildSpec
	maxRestarts int
	window      time.Duration
	shutdown    func()
}

// SupervisorOption configures NewSupervisor.
type SupervisorOption interface {
	applySupervisor(*supervisorConfig)
}

type supervisorOptionFunc func(*supervisorConfig)

func (f supervisorOptionFunc) applySupervisor(c *supervisorConfig) { f(c) }

// WithSupervisorName sets the name used both as the actor's Spawn name
// and as the restart-intensity limiter's rate category.
func WithSupervisorName(name string) SupervisorOption {
	return supervisorOptionFunc(func(c *supervisorConfig) { c.name = name })
}

// WithStrategy sets the restart strategy (default OneForOne).
func WithStrategy(s Strategy) SupervisorOption {
	return supervisorOptionFunc(func(c *supervisorConfig) { c.strategy = s })
}

// WithChild appends a child to the supervisor's start order.
func WithChild(spec ChildSpec) SupervisorOption {
	return supervisorOptionFunc(func(c *supervisorConfig) { c.children = append(c.children, spec) })
}

// WithRestartIntensity bounds the supervisor to at most maxRestarts
// restarts within window (maxRestarts = 0 means unlimited); exceeding it
// is a normal, planned give-up
// (§4.7, §7 "treated as a normal supervisor exit (reason = NORMAL)"):
// every surviving child is killed, the shutdown callback fires, and the
// supervisor exits ExitNormal — resolved here by delegating the
// sliding-window bookkeeping to catrate.Limiter (§9 design notes: its
// ring buffer grows with actual event volume rather than being capped
// at MaxSupervisorChildren, so it never silently loses restart history
// the way a fixed-size ring would).
func WithRestartIntensity(maxRestarts int, window time.Duration) SupervisorOption {
	return supervisorOptionFunc(func(c *supervisorConfig) {
		c.maxRestarts = maxRestarts
		c.window = window
	})
}

// WithShutdownCallback sets the callback invoked exactly once, just
// before the supervisor actor itself exits, whichever way the stop was
// triggered (external SupervisorStop, or restart-intensity exhausted).
func WithShutdownCallback(fn func()) SupervisorOption {
	return supervisorOptionFunc(func(c *supervisorConfig) { c.shutdown = fn })
}

func resolveSupervisorConfig(opts []SupervisorOption) supervisorConfig {
	c := supervisorConfig{
		name:        "supervisor",
		maxRestarts: 3,
		window:      5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applySupervisor(&c)
		}
	}
	return c
}

// runningChild is the supervisor's live bookkeeping for one child slot
// (§3 "sibling info"): stable across restarts, even though the actual
// ActorID changes every time the child is restarted.
type runningChild struct {
	spec       ChildSpec
	id         ActorID
	monRef     uint32
	alive      bool
	pendingArg any // computed by Init/InitArg, staged until siblings are installed
}

// supervisorStopTag is the internal NOTIFY tag SupervisorStop uses to
// ask a supervisor's own runtime loop to stop (§4.7 "wait for either an
// EXIT message ... or a NOTIFY with the internal stop tag"). It is
// reserved for this one purpose. The supervisor's stop filter matches on
// class and tag only, so an ordinary Ctx.Notify that carries this tag
// also stops the supervisor.
const supervisorStopTag Tag = TagAny - 1

// NewSupervisor spawns a supervisor actor that starts every configured
// child in order, monitors each one, and reacts to a child's death
// according to the configured Strategy and per-child RestartPolicy
// (§4.7). The supervisor itself is an ordinary actor: Link or Monitor
// it like any other to learn when it gives up (restart intensity
// exceeded) or is otherwise killed.
//
// Child-spawn failure during the initial two-phase start cannot be
// returned synchronously here: child spawning happens during the
// supervisor's own first scheduled turn, after this call has already
// returned the supervisor's ActorID. Per the spec's "return the
// original error to the caller of supervisor-start", that error is
// instead surfaced as the supervisor's own crashed exit (a monitor or
// link on the returned id observes it) and logged at Err level.
func NewSupervisor(rt *Runtime, opts ...SupervisorOption) (ActorID, Status) {
	cfg := resolveSupervisorConfig(opts)
	if len(cfg.children) > MaxSupervisorChildren {
		return 0, withMsg(INVALID, "supervisor: too many children")
	}
	for _, spec := range cfg.children {
		if len(spec.InitArg) > MaxMessagePayloadSize {
			return 0, withMsg(INVALID, "supervisor: child InitArg exceeds MaxMessagePayloadSize")
		}
	}
	// max_restarts = 0 means unlimited (§4.7); catrate.NewLimiter panics on
	// a non-positive rate, so leave limiter nil instead — (*Limiter).Allow
	// is nil-receiver safe and always permits when x is nil.
	var limiter *catrate.Limiter
	if cfg.maxRestarts > 0 {
		limiter = catrate.NewLimiter(map[time.Duration]int{cfg.window: cfg.maxRestarts})
	}

	entry := func(ctx *Ctx, _ any) {
		runSupervisor(ctx, cfg, limiter)
	}
	return rt.Spawn(entry, WithName(cfg.name))
}

// SupervisorStop asks the supervisor id to stop (§6 "Supervisor: ...
// stop (id)"): kill every running child (reverse declaration order),
// drain trailing exits, invoke the shutdown callback, and exit
// ExitNormal. It is fire-and-forget, like Ctx.Kill; a Link or Monitor
// on id observes the resulting exit.
func SupervisorStop(rt *Runtime, id ActorID) Status {
	return rt.notify(0, id, ClassNotify, true, supervisorStopTag, nil)
}

// spawnChild computes this child's init argument and spawns it,
// recording the outcome in children[i] but not yet installing monitors
// or sibling info — both require every child in the current batch to
// have finished spawning first (§4.7 phases 1-2).
func spawnChild(ctx *Ctx, children []*runningChild, i int) Status {
	spec := children[i].spec
	var arg any
	switch {
	case spec.Init != nil:
		arg = spec.Init()
	case len(spec.InitArg) > 0:
		buf := make([]byte, len(spec.InitArg))
		copy(buf, spec.InitArg)
		arg = buf
	}

	id, st := ctx.rt.Spawn(spec.Entry, spec.Opts...)
	if !st.Ok() {
		children[i].alive = false
		return st
	}
	children[i].id = id
	children[i].alive = true
	children[i].pendingArg = arg
	return StatusOK
}

// installSiblings builds the sibling directory from every currently
// alive child and installs it, together with each child's own staged
// init argument, into that child's startup context (§4.7 phases 2-3).
// Resetting a.initArg on a sibling that already took its first turn is
// harmless: EntryFunc only ever consumes it once, at the very start.
func installSiblings(ctx *Ctx, children []*runningChild) {
	siblings := make([]SiblingInfo, 0, len(children))
	for _, c := range children {
		if c.alive {
			siblings = append(siblings, SiblingInfo{Name: c.spec.Name, ID: c.id, Registered: true})
		}
	}
	for _, c := range children {
		if !c.alive {
			continue
		}
		if a, ok := ctx.rt.lookupActor(c.id); ok {
			a.initArg = ChildInit{Siblings: siblings, Arg: c.pendingArg}
		}
	}
}

// monitorChild places a monitor on children[i], the last of the
// two-phase start's four steps (§4.7 phase 4).
func monitorChild(ctx *Ctx, children []*runningChild, i int) {
	ref, st := ctx.Monitor(children[i].id)
	if st.Ok() {
		children[i].monRef = ref
	}
}

// startInitial runs the full two-phase start (§4.7 phases 1-4) for
// every configured child. If any spawn fails, every previously-spawned
// child in this pass is killed (reverse order) and the failing Status
// is returned without installing siblings or monitors for anyone.
func startInitial(ctx *Ctx, children []*runningChild) Status {
	for i := range children {
		if st := spawnChild(ctx, children, i); !st.Ok() {
			for j := i - 1; j >= 0; j-- {
				if children[j].alive {
					ctx.Kill(children[j].id)
				}
			}
			return st
		}
	}
	installSiblings(ctx, children)
	for i := range children {
		monitorChild(ctx, children, i)
	}
	return StatusOK
}

// restartOne respins a single child slot: spawn, reinstall the
// sibling directory (every alive child's id may now be stale in a
// sibling not being restarted, so the whole directory is rebuilt), and
// re-monitor. A failed respin leaves the slot dead; the supervisor
// will simply never see another exit for it.
func restartOne(ctx *Ctx, children []*runningChild, i int) {
	if st := spawnChild(ctx, children, i); !st.Ok() {
		return
	}
	installSiblings(ctx, children)
	monitorChild(ctx, children, i)
}

func indexByMonRef(children []*runningChild, ref uint32) int {
	for i, c := range children {
		if c.alive && c.monRef == ref {
			return i
		}
	}
	return -1
}

// waitForExit blocks until id (already known dead-or-dying) produces
// its ClassExit to ctx's own mailbox, so a group restart never starts
// a replacement before its predecessor has actually released its
// table slot. Unrelated messages are left in the mailbox for later
// (selective receive never consumes a non-matching entry).
func waitForExit(ctx *Ctx, id ActorID) {
	if !ctx.Alive(id) {
		return
	}
	ctx.MatchReceive(id, ClassExit, TagAny, -1)
}

// stopSupervisor implements the common tail of every path that ends
// the supervisor (§4.7 "On stop ... kill all running children (reverse
// declaration order); drain any trailing EXIT messages briefly; invoke
// shutdown callback; exit"), used for both an external SupervisorStop
// and a restart-intensity breach — both exit ExitNormal (§7).
func stopSupervisor(ctx *Ctx, cfg supervisorConfig, children []*runningChild) {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].alive {
			ctx.Kill(children[i].id)
		}
	}
	for range children {
		if _, st := ctx.MatchReceive(SenderAny, ClassExit, TagAny, 0); !st.Ok() {
			break
		}
	}
	if cfg.shutdown != nil {
		cfg.shutdown()
	}
	ctx.Exit(ExitNormal)
}

func runSupervisor(ctx *Ctx, cfg supervisorConfig, limiter *catrate.Limiter) {
	children := make([]*runningChild, len(cfg.children))
	for i, spec := range cfg.children {
		children[i] = &runningChild{spec: spec}
	}

	if st := startInitial(ctx, children); !st.Ok() {
		ctx.rt.logger.Err().Str("supervisor", cfg.name).Str("error", st.Msg).
			Log("supervisor: child spawn failed during start, aborting")
		ctx.Exit(ExitCrash)
	}

	exitFilter := IPCFilter{Sender: SenderAny, Class: ClassExit, Tag: TagAny}
	stopFilter := IPCFilter{Sender: SenderAny, Class: ClassNotify, Tag: supervisorStopTag}

	for {
		msg, idx, st := ctx.MultiMatchReceive([]IPCFilter{exitFilter, stopFilter}, -1)
		if !st.Ok() {
			continue
		}
		if idx == 1 {
			stopSupervisor(ctx, cfg, children)
			return
		}

		info := DecodeExitInfo(msg)
		cidx := indexByMonRef(children, info.MonitorID)
		if cidx < 0 {
			continue // not one of our children (e.g. a stray link-originated exit)
		}
		children[cidx].alive = false

		if !shouldRestart(children[cidx].spec.Policy, info.Reason) {
			continue
		}

		if _, ok := limiter.Allow(cfg.name); !ok {
			stopSupervisor(ctx, cfg, children)
			return
		}

		switch cfg.strategy {
		case OneForOne:
			restartOne(ctx, children, cidx)

		case OneForAll:
			for i, c := range children {
				if i != cidx && c.alive {
					ctx.Kill(c.id)
				}
			}
			for i, c := range children {
				if i != cidx {
					waitForExit(ctx, c.id)
				}
			}
			for i := range children {
				_ = spawnChild(ctx, children, i)
			}
			installSiblings(ctx, children)
			for i := range children {
				monitorChild(ctx, children, i)
			}

		case RestForOne:
			for i := cidx + 1; i < len(children); i++ {
				if children[i].alive {
					ctx.Kill(children[i].id)
				}
			}
			for i := cidx + 1; i < len(children); i++ {
				waitForExit(ctx, children[i].id)
			}
			for i := cidx; i < len(children); i++ {
				_ = spawnChild(ctx, children, i)
			}
			installSiblings(ctx, children)
			for i := cidx; i < len(children); i++ {
				monitorChild(ctx, children, i)
			}
		}
	}
}
