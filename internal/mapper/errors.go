package mapper

import "fmt"

// Error reports a mapping failure: an invalid column specification at
// compile time, or an upstream body whose shape cannot be iterated as
// records at map time. The api package translates it to HTTP 502.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "mapper: " + e.Msg }

// errf builds an *Error from a format string.
func errf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
