// Package hash provides the 64-bit identifiers used by the blob snapshot
// format to key coordinate, mask and attribute names.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given name.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Sum computes the xxHash64 of a payload, used as a section checksum.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
