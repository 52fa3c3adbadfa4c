// Package conv converts between integer widths and quantizes coordinates
// with overflow checks.
//
// File headers carry fixed-width counts and offsets (uint32 in LAS 1.2,
// uint64 in .pcg); these helpers turn them into Go ints, and ints into header
// fields, without silent truncation.
package conv
