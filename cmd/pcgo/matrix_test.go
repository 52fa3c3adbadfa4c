package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix("1,0,0; 0, 2, 0 ;0 0 3")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}}, m)

	m, err = parseMatrix("1,0,0,5;0,1,0,6;0,0,1,7;0,0,0,1;")
	require.NoError(t, err)
	assert.Len(t, m, 4)
	assert.Equal(t, []float32{0, 0, 1, 7}, m[2])

	// Ragged rows parse; the engine rejects the shape.
	m, err = parseMatrix("1,0;0,1,0")
	require.NoError(t, err)
	assert.Len(t, m[0], 2)

	for _, bad := range []string{"", " ; ", "1,a,0;0,1,0;0,0,1", "1,,0;0,1,0;0,0,1x"} {
		_, err := parseMatrix(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseVector(t *testing.T) {
	v, err := parseVector(" 1.5, -2 ,3e2")
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 300}, v)

	_, err = parseVector("")
	require.Error(t, err)
	_, err = parseVector("1,two,3")
	require.Error(t, err)
}

func TestEulerRotation(t *testing.T) {
	m, err := eulerRotation([]float32{0, 0, 90})
	require.NoError(t, err)

	// x axis maps onto y.
	assert.InDelta(t, 0, m[0][0], 1e-6)
	assert.InDelta(t, 1, m[1][0], 1e-6)
	assert.InDelta(t, 0, m[2][0], 1e-6)
	assert.InDelta(t, -1, m[0][1], 1e-6)

	m, err = eulerRotation([]float32{90, 0, 0})
	require.NoError(t, err)
	// y axis maps onto z.
	assert.InDelta(t, 1, m[2][1], 1e-6)

	_, err = eulerRotation([]float32{1, 2})
	require.Error(t, err)
}
