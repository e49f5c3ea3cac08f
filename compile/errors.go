package compile

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSource is returned when a rule's source path does not name
	// a member of the source type.
	ErrUnknownSource = errors.New("source path does not resolve")
	// ErrUnknownDest is returned when a rule's destination path does not
	// name an exported member of the destination type.
	ErrUnknownDest = errors.New("destination path does not resolve")
	// ErrIncompatible is returned when no conversion exists between the
	// source and destination member types.
	ErrIncompatible = errors.New("incompatible member types")
	// ErrSourceType is returned when the source type is missing or a
	// compiled function receives a value of another type.
	ErrSourceType = errors.New("unexpected source type")
	// ErrDestType is returned when Into receives something other than a
	// pointer to the destination type, or a constructor returns the wrong
	// type.
	ErrDestType = errors.New("unexpected destination type")
	// ErrNilDest is returned when Into receives a nil pointer.
	ErrNilDest = errors.New("nil destination")
)

// MemberError ties a build or run failure to the destination member it
// concerns.
type MemberError struct {
	Path string
	Err  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %s: %v", e.Path, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}
