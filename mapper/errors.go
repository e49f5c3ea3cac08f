package mapper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAccessor is returned when a destination reference is empty
	// or does not name a member of the destination type.
	ErrInvalidAccessor = errors.New("invalid member accessor")
	// ErrUnsupportedConfiguration marks configuration that is intentionally
	// not implemented, as opposed to a usage error.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	// ErrEmptySet is returned when an engine is built without type mappers.
	ErrEmptySet = errors.New("type mapper set is empty")
	// ErrNilFunction is returned when a transform, hook or constructor has
	// no function.
	ErrNilFunction = errors.New("nil function")
	// ErrNotRegistered is returned when mapping a pair that was never
	// registered.
	ErrNotRegistered = errors.New("type pair not registered")
	// ErrUnmapped is returned in strict mode when writable destination
	// members have no rule after flattening.
	ErrUnmapped = errors.New("unmapped destination members")
	// ErrUnknownMode is returned for an out-of-range compilation mode.
	ErrUnknownMode = errors.New("unknown compilation mode")
)

// AccessorError describes a rejected destination reference.
// It matches ErrInvalidAccessor with errors.Is, as well as its cause.
type AccessorError struct {
	// Path is the rejected reference as written.
	Path string
	// Reason says why it was rejected.
	Reason string
	// Suggestions are similarly named members of the destination type.
	Suggestions []string
	// Err is the underlying resolution error, if any.
	Err error
}

func (e *AccessorError) Error() string {
	msg := fmt.Sprintf("%s: %q %s", ErrInvalidAccessor, e.Path, e.Reason)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}

	return msg
}

// Unwrap exposes ErrInvalidAccessor and the cause.
func (e *AccessorError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidAccessor}
	}

	return []error{ErrInvalidAccessor, e.Err}
}
