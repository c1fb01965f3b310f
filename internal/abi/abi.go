// Package abi defines the packed pointer/length encoding used between the
// host and WASM operators. A packed value carries the pointer in its upper
// 32 bits and the length in its lower 32 bits.
package abi

// PtrHighBits is the shift applied to the pointer half of a packed value.
const PtrHighBits = 32

// PackPtrLen packs a guest pointer and length into a single i64.
func PackPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen splits a packed i64 into pointer and length.
func UnpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> PtrHighBits)  //nolint:gosec // G115: packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: packed format stores 32-bit values
	return ptr, length
}
