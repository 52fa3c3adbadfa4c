package attribute

import "fmt"

// ErrLengthMismatch is returned when a column does not hold one value per point.
type ErrLengthMismatch struct {
	Name     string // Attribute name
	Expected int    // Point count
	Actual   int    // Column length
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("attribute %q: length mismatch: expected %d, got %d", e.Name, e.Expected, e.Actual)
}

// ErrDuplicate is returned by Add when the name is already registered.
type ErrDuplicate struct {
	Name string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("attribute %q already exists", e.Name)
}

// ErrInvalidName is returned for empty attribute names.
type ErrInvalidName struct {
	Name string
}

func (e *ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid attribute name %q", e.Name)
}
