package upstream

import "fmt"

// Kind classifies an upstream failure. The api package maps kinds to
// HTTP status codes, so every failure path in this package must settle
// on exactly one Kind.
type Kind int

const (
	// KindUnavailable means the upstream could not be reached at all:
	// connection refused, DNS failure, or timeout.
	KindUnavailable Kind = iota

	// KindBadStatus means the upstream answered with a non-2xx status.
	KindBadStatus

	// KindMalformed means the upstream answered 2xx but the body was
	// not valid JSON.
	KindMalformed
)

// String returns the kind's stable label, used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindBadStatus:
		return "bad_status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by Client.Fetch.
//
// Snippet holds a bounded prefix of the upstream response body for
// diagnostics. It is written to logs only — handlers must never echo
// it to callers.
type Error struct {
	Kind    Kind
	Op      string // upstream URL path the request targeted
	Status  int    // upstream HTTP status, when KindBadStatus
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadStatus:
		return fmt.Sprintf("upstream %s: unexpected status %d", e.Op, e.Status)
	case KindMalformed:
		return fmt.Sprintf("upstream %s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("upstream %s: unavailable: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
