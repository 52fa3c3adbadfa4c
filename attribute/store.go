package attribute

import (
	"maps"
	"slices"
)

// Info describes one stored column.
type Info struct {
	Name string
	Len  int
}

// Store holds named per-point float32 columns for a fixed number of points.
//
// Store is not safe for concurrent mutation; concurrent readers are fine.
type Store struct {
	n       int
	columns map[string][]float32
}

// New creates an empty store for n points.
func New(n int) *Store {
	return &Store{
		n:       n,
		columns: make(map[string][]float32),
	}
}

// Len returns the number of points every column must match.
func (s *Store) Len() int {
	return s.n
}

// Count returns the number of stored columns.
func (s *Store) Count() int {
	return len(s.columns)
}

func (s *Store) check(name string, values []float32) error {
	if name == "" {
		return &ErrInvalidName{Name: name}
	}
	if len(values) != s.n {
		return &ErrLengthMismatch{Name: name, Expected: s.n, Actual: len(values)}
	}
	return nil
}

// Add inserts a new column. It fails with *ErrDuplicate if name exists and
// with *ErrLengthMismatch if len(values) differs from Len().
func (s *Store) Add(name string, values []float32) error {
	if _, ok := s.columns[name]; ok {
		return &ErrDuplicate{Name: name}
	}
	if err := s.check(name, values); err != nil {
		return err
	}
	s.columns[name] = slices.Clone(values)
	return nil
}

// Set inserts or overwrites a column.
func (s *Store) Set(name string, values []float32) error {
	if err := s.check(name, values); err != nil {
		return err
	}
	s.columns[name] = slices.Clone(values)
	return nil
}

// SetAll replaces the whole store with columns. Nothing changes unless every
// column is valid.
func (s *Store) SetAll(columns map[string][]float32) error {
	for _, name := range slices.Sorted(maps.Keys(columns)) {
		if err := s.check(name, columns[name]); err != nil {
			return err
		}
	}

	next := make(map[string][]float32, len(columns))
	for name, values := range columns {
		next[name] = slices.Clone(values)
	}
	s.columns = next
	return nil
}

// Get returns the stored column. The slice is owned by the store and must not
// be modified.
func (s *Store) Get(name string) ([]float32, bool) {
	values, ok := s.columns[name]
	return values, ok
}

// Has reports whether every given name is present.
func (s *Store) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := s.columns[name]; !ok {
			return false
		}
	}
	return true
}

// Remove deletes a column. Removing an absent name is a no-op.
func (s *Store) Remove(name string) {
	delete(s.columns, name)
}

// Clear removes every column.
func (s *Store) Clear() {
	clear(s.columns)
}

// Names returns the column names in lexical order.
func (s *Store) Names() []string {
	return slices.Sorted(maps.Keys(s.columns))
}

// Info returns name and length of every column in lexical order.
func (s *Store) Info() []Info {
	names := s.Names()
	infos := make([]Info, len(names))
	for i, name := range names {
		infos[i] = Info{Name: name, Len: len(s.columns[name])}
	}
	return infos
}

// Bytes returns the payload size of all columns.
func (s *Store) Bytes() int64 {
	return int64(len(s.columns)) * int64(s.n) * 4
}

// All calls fn for every column in lexical order until fn returns false.
func (s *Store) All(fn func(name string, values []float32) bool) {
	for _, name := range s.Names() {
		if !fn(name, s.columns[name]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	c := &Store{
		n:       s.n,
		columns: make(map[string][]float32, len(s.columns)),
	}
	for name, values := range s.columns {
		c.columns[name] = slices.Clone(values)
	}
	return c
}

// Adopt installs values without copying. The caller hands over ownership and
// guarantees the length invariant.
func (s *Store) Adopt(name string, values []float32) error {
	if err := s.check(name, values); err != nil {
		return err
	}
	s.columns[name] = values
	return nil
}
