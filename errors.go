package pcgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pcgo/attribute"
)

var (
	// ErrNotFound is returned when a requested attribute, slot or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat is returned for file formats that cannot be read or written.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMemoryLimit is returned when an operation cannot reserve its working set.
	ErrMemoryLimit = errors.New("memory limit exceeded")

	// ErrEmptyCloud is returned by operations that need at least one point.
	ErrEmptyCloud = errors.New("point cloud is empty")
)

// ErrDimensionMismatch indicates a buffer whose length does not match the
// point count or the expected length of an argument such as a translation.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Name     string // Column or argument name
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("dimension mismatch for %q: expected %d, got %d", e.Name, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrDuplicateAttribute indicates an attempt to add an attribute that already exists.
type ErrDuplicateAttribute struct {
	Name  string
	cause error
}

func (e *ErrDuplicateAttribute) Error() string {
	return fmt.Sprintf("duplicate attribute %q", e.Name)
}

func (e *ErrDuplicateAttribute) Unwrap() error { return e.cause }

// ErrAttributeNotFound indicates a lookup of an absent attribute or slot.
// It matches ErrNotFound with errors.Is.
type ErrAttributeNotFound struct {
	Name string
}

func (e *ErrAttributeNotFound) Error() string {
	return fmt.Sprintf("attribute %q not found", e.Name)
}

func (e *ErrAttributeNotFound) Is(target error) bool { return target == ErrNotFound }

// ErrInvalidArgument indicates an out-of-domain scalar parameter.
type ErrInvalidArgument struct {
	Name   string
	Value  any
	Reason string
}

func (e *ErrInvalidArgument) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid argument %s: %v", e.Name, e.Value)
	}
	return fmt.Sprintf("invalid argument %s: %v (%s)", e.Name, e.Value, e.Reason)
}

// ErrInvalidDimension indicates a matrix with the wrong shape.
type ErrInvalidDimension struct {
	Rows int // Rows supplied
	Cols int // Columns of the first offending row (or of row 0)
	Want int // Required square size
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid matrix dimension: got %dx%d, want %dx%d", e.Rows, e.Cols, e.Want, e.Want)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var lm *attribute.ErrLengthMismatch
	if errors.As(err, &lm) {
		return &ErrDimensionMismatch{Name: lm.Name, Expected: lm.Expected, Actual: lm.Actual, cause: err}
	}
	var dup *attribute.ErrDuplicate
	if errors.As(err, &dup) {
		return &ErrDuplicateAttribute{Name: dup.Name, cause: err}
	}
	var in *attribute.ErrInvalidName
	if errors.As(err, &in) {
		return &ErrInvalidArgument{Name: "name", Value: in.Name, Reason: "attribute names must not be empty"}
	}
	return err
}
