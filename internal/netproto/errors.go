package netproto

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds matches any DecodeError whose declared length or offset points past the buffer.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrMalformed matches any DecodeError raised by an internal consistency check.
	ErrMalformed = errors.New("malformed")
)

// EncodeError reports an argument that cannot be encoded. Nothing is written when it is returned.
type EncodeError struct {
	Op     string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Op, e.Reason)
}

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind int

const (
	OutOfBounds DecodeErrorKind = iota + 1
	Malformed
)

func (k DecodeErrorKind) String() string {
	switch k {
	case OutOfBounds:
		return "out of bounds"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// DecodeError reports untrusted input that does not match the expected layout.
type DecodeError struct {
	Kind   DecodeErrorKind
	Field  string
	Offset int
	Need   int
	Have   int
	Reason string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("decode %s at %d: %s: %s", e.Field, e.Offset, e.Kind, e.Reason)
	case e.Kind == OutOfBounds:
		return fmt.Sprintf("decode %s at %d: %s: need %d bytes, have %d", e.Field, e.Offset, e.Kind, e.Need, e.Have)
	default:
		return fmt.Sprintf("decode %s at %d: %s", e.Field, e.Offset, e.Kind)
	}
}

// Is lets callers match on ErrOutOfBounds and ErrMalformed.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrOutOfBounds:
		return e.Kind == OutOfBounds
	case ErrMalformed:
		return e.Kind == Malformed
	default:
		return false
	}
}

func outOfBounds(field string, offset, need, have int) *DecodeError {
	return &DecodeError{Kind: OutOfBounds, Field: field, Offset: offset, Need: need, Have: have}
}

func malformed(field string, offset int, reason string) *DecodeError {
	return &DecodeError{Kind: Malformed, Field: field, Offset: offset, Reason: reason}
}

// withField relabels a nested decode error with the field the caller was reading.
func withField(err error, field string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		out := *de
		out.Field = field
		return &out
	}
	return err
}
