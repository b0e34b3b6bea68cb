// Package actorcore implements the core of a cooperative, single-threaded
// actor runtime for embedded and safety-critical deployments.
//
// At most one actor executes at a time; it runs until it voluntarily
// yields, blocks on a primitive (receive, select, sleep, request), or
// terminates. The package provides the priority scheduler, the
// mailbox/IPC layer with selective receive and request/reply, the
// link/monitor death-propagation graph, the unified select primitive
// with one-shot and periodic timers, and a supervisor that restarts
// children under configurable strategies with bounded restart
// intensity.
//
// Platform I/O readiness, network/file adapters and name registries are
// external collaborators: the core only talks to them through the
// ReadinessProvider interface and through ordinary mailbox enqueues.
// The package also provides a fixed-ring broadcast bus, which actors
// publish to directly and wait on as a select source.
package actorcore
