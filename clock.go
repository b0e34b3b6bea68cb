package actorcore

import "time"

// Clock is the monotonic microsecond time source consumed by the core
// (§6 platform adapter contract: "Monotonic clock: returns µs since
// boot; never decreases"). Deadline arithmetic throughout the package
// is expressed in this unit.
type Clock interface {
	// NowMicros returns microseconds since an arbitrary epoch. Must be
	// monotonic non-decreasing for the lifetime of the process.
	NowMicros() int64
}

// systemClock is the default Clock, backed by time.Now's monotonic
// reading. It is the only place in the core that touches wall-clock
// time; everything else deals exclusively in microsecond deltas.
type systemClock struct{}

var processStart = time.Now()

func (systemClock) NowMicros() int64 {
	return time.Since(processStart).Microseconds()
}

// MicrosToDuration is a small convenience used at the platform boundary
// (e.g. computing a readiness-wait timeout from a deadline).
func MicrosToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
