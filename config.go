package actorcore

import "time"

// Compile-time limits. Values are the reference defaults from the
// specification; implementers embedding actorcore in a constrained
// target may lower them with WithLimits.
const (
	MaxActors              = 64
	MaxBuses               = 32
	MaxBusEntries          = 64
	MaxBusSubscribers      = 32 // hard cap, bitmask-sized
	MailboxEntryPoolSize   = 256
	MessageDataPoolSize    = 256
	MaxMessageSize         = 256 // including the 4-byte header
	MessageHeaderSize      = 4
	MaxMessagePayloadSize  = MaxMessageSize - MessageHeaderSize
	LinkEntryPoolSize      = 128
	MonitorEntryPoolSize   = 128
	TimerEntryPoolSize     = 64
	StackArenaSize         = 1 << 20 // 1 MiB
	DefaultStackSize       = 64 << 10
	MaxSupervisorChildren  = 16
	MaxSupervisors         = 8
	PriorityLevels         = 4
)

// Limits bounds the static pools and tables the runtime pre-allocates.
// The zero value is invalid; use DefaultLimits or an Option.
type Limits struct {
	MaxActors             int
	MaxBuses              int
	MaxBusEntries         int
	MailboxEntryPoolSize  int
	MessageDataPoolSize   int
	LinkEntryPoolSize     int
	MonitorEntryPoolSize  int
	TimerEntryPoolSize    int
	StackArenaSize        int
	MaxSupervisorChildren int
}

// DefaultLimits returns the reference defaults named in the
// specification's compile-time limits table.
func DefaultLimits() Limits {
	return Limits{
		MaxActors:             MaxActors,
		MaxBuses:              MaxBuses,
		MaxBusEntries:         MaxBusEntries,
		MailboxEntryPoolSize:  MailboxEntryPoolSize,
		MessageDataPoolSize:   MessageDataPoolSize,
		LinkEntryPoolSize:     LinkEntryPoolSize,
		MonitorEntryPoolSize:  MonitorEntryPoolSize,
		TimerEntryPoolSize:    TimerEntryPoolSize,
		StackArenaSize:        StackArenaSize,
		MaxSupervisorChildren: MaxSupervisorChildren,
	}
}

// runtimeOptions is the private configuration built up by Option values,
// mirroring eventloop's loopOptions/resolveLoopOptions pattern: each
// Option is a closure applied in order over a defaulted struct.
type runtimeOptions struct {
	limits      Limits
	clock       Clock
	logger      Logger
	readiness   ReadinessProvider
	pollMaxWait time.Duration
}

// Option configures a Runtime constructed by New.
type Option interface {
	apply(*runtimeOptions)
}

type optionFunc func(*runtimeOptions)

func (f optionFunc) apply(o *runtimeOptions) { f(o) }

// WithLimits overrides the default static pool and table sizes.
func WithLimits(l Limits) Option {
	return optionFunc(func(o *runtimeOptions) { o.limits = l })
}

// WithClock overrides the monotonic time source. A manual Clock
// implementation (see platform/simclock) can be supplied to drive timer
// semantics deterministically.
func WithClock(c Clock) Option {
	return optionFunc(func(o *runtimeOptions) { o.clock = c })
}

// WithLogger attaches a structured logger. When omitted, a disabled
// logger is used and logging is a no-op, matching the ambient-but-never
// load-bearing logging contract described in SPEC_FULL.md.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *runtimeOptions) { o.logger = l })
}

// WithReadinessProvider installs the platform adapter consulted by the
// scheduler's main loop when every run queue is empty. When omitted, a
// readiness provider that never reports events (pure-timer operation)
// is used.
func WithReadinessProvider(p ReadinessProvider) Option {
	return optionFunc(func(o *runtimeOptions) { o.readiness = p })
}

// WithPollMaxWait bounds how long the scheduler will block in a single
// readiness wait, as a defensive measure against lost wakeups (§4.1).
func WithPollMaxWait(d time.Duration) Option {
	return optionFunc(func(o *runtimeOptions) { o.pollMaxWait = d })
}

func resolveOptions(opts []Option) runtimeOptions {
	o := runtimeOptions{
		limits:      DefaultLimits(),
		pollMaxWait: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(&o)
	}
	if o.clock == nil {
		o.clock = systemClock{}
	}
	if o.logger == nil {
		o.logger = buildDisabledLogger()
	}
	if o.readiness == nil {
		o.readiness = noopReadiness{}
	}
	return o
}

// spawnOptions configures a single Spawn call.
type spawnOptions struct {
	name      string
	priority  Priority
	stackSize int
	hostHeap  bool
	init      func() any
}

// SpawnOption configures Spawn.
type SpawnOption interface {
	applySpawn(*spawnOptions)
}

type spawnOptionFunc func(*spawnOptions)

func (f spawnOptionFunc) applySpawn(o *spawnOptions) { f(o) }

// WithName sets the actor's human-readable name.
func WithName(name string) SpawnOption {
	return spawnOptionFunc(func(o *spawnOptions) { o.name = name })
}

// WithPriority sets the actor's scheduling priority.
func WithPriority(p Priority) SpawnOption {
	return spawnOptionFunc(func(o *spawnOptions) { o.priority = p })
}

// WithStackSize requests a stack allocation of the given size from the
// stack arena, instead of DefaultStackSize.
func WithStackSize(n int) SpawnOption {
	return spawnOptionFunc(func(o *spawnOptions) { o.stackSize = n })
}

// WithHostHeap requests the actor's stack accounting be satisfied from
// the host heap rather than the static stack arena (§4.2).
func WithHostHeap() SpawnOption {
	return spawnOptionFunc(func(o *spawnOptions) { o.hostHeap = true })
}

// WithInit supplies the caller-context init callback; its return value
// becomes the child's entry argument (§4.2 step 3).
func WithInit(init func() any) SpawnOption {
	return spawnOptionFunc(func(o *spawnOptions) { o.init = init })
}

func resolveSpawnOptions(opts []SpawnOption) spawnOptions {
	o := spawnOptions{
		priority:  PriorityNormal,
		stackSize: DefaultStackSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applySpawn(&o)
	}
	return o
}
