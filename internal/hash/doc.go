// Package hash provides the CRC32-Castagnoli checksums that guard the native
// .pcg header, directory and column blocks, and S3 uploads.
//
//	sum := hash.CRC32C(block)
package hash
