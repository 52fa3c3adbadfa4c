package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: overflow")

// IntToUint32 converts a count into a 32-bit header field.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Uint64ToInt converts a 64-bit header field into an int.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}
	return int(v), nil
}

// Uint32ToInt converts a 32-bit header field into an int.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}
	return int(v), nil
}

// Quantize returns round((v - offset) / scale) as an int32.
func Quantize(v, offset, scale float64) (int32, error) {
	q := math.Round((v - offset) / scale)
	if math.IsNaN(q) || q < math.MinInt32 || q > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %g at scale %g", ErrOverflow, v, scale)
	}
	return int32(q), nil
}
