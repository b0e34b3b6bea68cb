package actorcore

import "fmt"

// Code is the status code returned by every fallible primitive in the
// core. Codes are never allocated; Status.Error is built from a static
// string table.
type Code uint8

const (
	// OK indicates success.
	OK Code = iota
	// NOMEM indicates a pool was exhausted.
	NOMEM
	// INVALID indicates a bad argument (programmer error): null buffer,
	// oversized message, self-link, link to a dead actor, unsubscribed
	// bus, etc.
	INVALID
	// TIMEOUT indicates a deadline elapsed before a match was found.
	TIMEOUT
	// CLOSED indicates the peer died during a request/reply exchange.
	CLOSED
	// WOULDBLOCK indicates a non-blocking operation had no data.
	WOULDBLOCK
	// IO indicates a platform adapter reported failure.
	IO
)

var codeStrings = [...]string{
	OK:         "ok",
	NOMEM:      "pool exhausted",
	INVALID:    "invalid argument",
	TIMEOUT:    "deadline exceeded",
	CLOSED:     "peer died",
	WOULDBLOCK: "would block",
	IO:         "platform i/o failure",
}

// String returns the static message associated with c.
func (c Code) String() string {
	if int(c) < len(codeStrings) {
		return codeStrings[c]
	}
	return "unknown status"
}

// Status is the (code, optional static message) pair returned by every
// fallible entry point. The zero value is OK. Status implements error
// so callers may use errors.Is/errors.As against the sentinel Status
// values below, but the core itself never wraps, throws, or longjmps.
type Status struct {
	Code Code
	// Msg is an optional static (never heap-allocated per-call) detail
	// string, e.g. the name of the exhausted pool.
	Msg string
}

// Error implements the error interface.
func (s Status) Error() string {
	if s.Msg != "" {
		return fmt.Sprintf("%s: %s", s.Code, s.Msg)
	}
	return s.Code.String()
}

// Ok reports whether s.Code == OK.
func (s Status) Ok() bool { return s.Code == OK }

// Sentinel statuses for the common no-detail case.
var (
	StatusOK         = Status{Code: OK}
	StatusNoMem      = Status{Code: NOMEM}
	StatusInvalid    = Status{Code: INVALID}
	StatusTimeout    = Status{Code: TIMEOUT}
	StatusClosed     = Status{Code: CLOSED}
	StatusWouldBlock = Status{Code: WOULDBLOCK}
	StatusIO         = Status{Code: IO}
)

// withMsg returns a Status with the given code and a static detail
// string attached.
func withMsg(code Code, msg string) Status {
	return Status{Code: code, Msg: msg}
}
