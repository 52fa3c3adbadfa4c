package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddGet(t *testing.T) {
	s := New(3)

	require.NoError(t, s.Add("classification", []float32{1, 2, 3}))

	got, ok := s.Get("classification")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)
	assert.Equal(t, 1, s.Count())

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_AddDuplicate(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Add("a", []float32{1, 2}))

	err := s.Add("a", []float32{3, 4})
	var dup *ErrDuplicate
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)

	// Duplicate is reported before length is checked.
	err = s.Add("a", []float32{1})
	require.ErrorAs(t, err, &dup)

	got, _ := s.Get("a")
	assert.Equal(t, []float32{1, 2}, got, "failed add must not modify the store")
}

func TestStore_LengthMismatch(t *testing.T) {
	s := New(3)

	for _, op := range []func(string, []float32) error{s.Add, s.Set, s.Adopt} {
		err := op("a", []float32{1, 2})
		var lm *ErrLengthMismatch
		require.ErrorAs(t, err, &lm)
		assert.Equal(t, "a", lm.Name)
		assert.Equal(t, 3, lm.Expected)
		assert.Equal(t, 2, lm.Actual)
	}
	assert.Equal(t, 0, s.Count())
}

func TestStore_InvalidName(t *testing.T) {
	s := New(1)
	var in *ErrInvalidName
	assert.ErrorAs(t, s.Add("", []float32{1}), &in)
	assert.ErrorAs(t, s.Set("", []float32{1}), &in)
}

func TestStore_SetOverwrites(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Set("a", []float32{1, 2}))
	require.NoError(t, s.Set("a", []float32{5, 6}))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{5, 6}, got)
}

func TestStore_CopiesInput(t *testing.T) {
	s := New(2)
	in := []float32{1, 2}
	require.NoError(t, s.Add("a", in))
	in[0] = 99

	got, _ := s.Get("a")
	assert.Equal(t, float32(1), got[0])
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Add("a", []float32{1}))
	require.NoError(t, s.Add("b", []float32{2}))

	s.Remove("a")
	s.Remove("does-not-exist")
	assert.Equal(t, []string{"b"}, s.Names())

	s.Clear()
	assert.Empty(t, s.Names())
	assert.Equal(t, int64(0), s.Bytes())
}

func TestStore_SetAllIsAtomic(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Add("keep", []float32{1, 1}))

	err := s.SetAll(map[string][]float32{
		"good": {1, 2},
		"bad":  {1},
	})
	var lm *ErrLengthMismatch
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, "bad", lm.Name)
	assert.Equal(t, []string{"keep"}, s.Names())

	require.NoError(t, s.SetAll(map[string][]float32{"x1": {1, 2}, "x2": {3, 4}}))
	assert.Equal(t, []string{"x1", "x2"}, s.Names())
}

func TestStore_HasInfoBytes(t *testing.T) {
	s := New(4)
	require.NoError(t, s.Add("b", make([]float32, 4)))
	require.NoError(t, s.Add("a", make([]float32, 4)))

	assert.True(t, s.Has("a", "b"))
	assert.False(t, s.Has("a", "c"))
	assert.True(t, s.Has())

	assert.Equal(t, []Info{{Name: "a", Len: 4}, {Name: "b", Len: 4}}, s.Info())
	assert.Equal(t, int64(2*4*4), s.Bytes())

	var visited []string
	s.All(func(name string, values []float32) bool {
		visited = append(visited, name)
		return false
	})
	assert.Equal(t, []string{"a"}, visited)
}

func TestStore_CloneIsDeep(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Add("a", []float32{1, 2}))

	c := s.Clone()
	require.NoError(t, c.Set("a", []float32{7, 8}))
	c.Remove("a")
	require.NoError(t, c.Add("b", []float32{0, 0}))

	got, _ := s.Get("a")
	assert.Equal(t, []float32{1, 2}, got)
	assert.Equal(t, []string{"a"}, s.Names())
	assert.Equal(t, 2, c.Len())
}

func TestStore_ZeroPoints(t *testing.T) {
	s := New(0)
	require.NoError(t, s.Add("empty", nil))
	got, ok := s.Get("empty")
	assert.True(t, ok)
	assert.Empty(t, got)

	err := s.Add("x", []float32{1})
	var lm *ErrLengthMismatch
	assert.ErrorAs(t, err, &lm)
}
