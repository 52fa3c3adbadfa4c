package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every buffer returned by this package.
const Alignment = 64

// AllocAligned allocates a byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// Note: This function allocates slightly more memory than requested to ensure alignment.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedFloat32 allocates a zeroed float32 slice of the given length with 64-byte alignment.
func AllocAlignedFloat32(size int) []float32 {
	if size <= 0 {
		return nil
	}

	byteSlice := AllocAligned(size * 4)

	// 64-byte alignment implies the 4-byte alignment float32 needs.
	ptr := unsafe.Pointer(&byteSlice[0])       //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*float32)(ptr), size) //nolint:gosec // unsafe is required for memory alignment
}

// CloneFloat32 returns an aligned copy of src. A nil or empty src yields nil.
func CloneFloat32(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := AllocAlignedFloat32(len(src))
	copy(dst, src)
	return dst
}

// IsAligned reports whether the first element of s sits on an Alignment boundary.
func IsAligned(s []float32) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&s[0]))%Alignment == 0 //nolint:gosec // address inspection only
}
