//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	got, err := IntToUint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)

	got, err = IntToUint32(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = IntToUint32(-1)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = IntToUint32(math.MaxUint32 + 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(123)
	require.NoError(t, err)
	assert.Equal(t, 123, got)

	got, err = Uint64ToInt(math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)

	_, err = Uint64ToInt(math.MaxInt + 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUint32ToInt(t *testing.T) {
	got, err := Uint32ToInt(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint32, got)
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v, offset, scale float64
		want             int32
	}{
		{1.2346, 0, 0.001, 1235},
		{-1.2344, 0, 0.001, -1234},
		{10.5, 10, 0.25, 2},
		{100, 100, 0.001, 0},
	}
	for _, tt := range tests {
		got, err := Quantize(tt.v, tt.offset, tt.scale)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Quantize(%v, %v, %v)", tt.v, tt.offset, tt.scale)
	}

	_, err := Quantize(1e12, 0, 0.001)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = Quantize(-1e12, 0, 0.001)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = Quantize(math.NaN(), 0, 1)
	require.ErrorIs(t, err, ErrOverflow)
}
