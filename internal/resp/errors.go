package resp

import (
	"errors"
	"fmt"
)

// ErrIncomplete signals that the buffer does not yet hold a complete
// value. Callers must not advance their buffer and should retry once
// more bytes arrive.
var ErrIncomplete = errors.New("resp: incomplete value")

// FramingError wraps a malformed-input condition: bad prefix, a
// non-numeric or invalid-negative length, or a missing trailing CRLF.
// The connection handler closes the session after attempting to
// report it, per the framing error handling rule.
type FramingError struct {
	Msg string
}

func (e *FramingError) Error() string { return "resp: " + e.Msg }

func framingErrorf(format string, a ...interface{}) error {
	return &FramingError{Msg: fmt.Sprintf(format, a...)}
}

// IsFramingError reports whether err is (or wraps) a *FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}
