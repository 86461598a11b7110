package convert

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"crucible/internal/common"
)

var (
	ErrNoConverter    = errors.New("no converter for type pair")
	ErrConversion     = errors.New("conversion failed")
	ErrMissingValue   = errors.New("missing required value")
	ErrNotAllowed     = errors.New("value is not an allowed literal")
	ErrLengthMismatch = errors.New("sequence length mismatch")
	ErrUnpairedMember = errors.New("union member has no converter")
	ErrRejected       = errors.New("converter rejected value")
	ErrTypeMismatch   = errors.New("value has unexpected type")
)

var (
	ErrNotAFunction  = errors.New("provided converter is not a function")
	ErrNotAConverter = errors.New("provided function is not a recognizable converter")
	ErrDoublePointer = errors.New("converter function does not support double pointers")
	ErrNotInterface  = errors.New("union type must be an interface")
	ErrNotMember     = errors.New("type does not implement the union interface")
	ErrNoValues      = errors.New("literal type needs at least one value")
)

// ConversionError reports a value that could not be converted.
// It matches ErrConversion with errors.Is and unwraps to the cause.
type ConversionError struct {
	Src, Dst reflect.Type
	// Path locates the failing value inside the converted one, e.g. "Tracks[2].Title".
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "convert %s to %s", common.TypeName(e.Src), common.TypeName(e.Dst))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

func (e *ConversionError) Unwrap() error { return e.Err }

// MissingKeyError reports a required key absent from a source mapping.
// It matches ErrMissingValue with errors.Is.
type MissingKeyError struct {
	Key string
	Dst reflect.Type
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing required key %q for %s", e.Key, common.TypeName(e.Dst))
}

func (e *MissingKeyError) Is(target error) bool { return target == ErrMissingValue }

func failure(src, dst reflect.Type, err error) error {
	return &ConversionError{Src: src, Dst: dst, Err: err}
}

// atPath prefixes the location of a nested failure with seg.
func atPath(err error, seg string) error {
	var ce *ConversionError
	if !errors.As(err, &ce) {
		return err
	}

	switch {
	case ce.Path == "":
		ce.Path = seg
	case strings.HasPrefix(ce.Path, "["):
		ce.Path = seg + ce.Path
	default:
		ce.Path = seg + "." + ce.Path
	}

	return err
}
