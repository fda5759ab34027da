package compress

// ZstdCompressor provides Zstandard compression for snapshot payloads.
//
// It favors ratio over speed, making it the right choice for snapshots that
// are archived or shipped across the network. Varint-delta offset tables
// typically compress 10:1 or better.
//
// Two implementations back this type: a cgo binding to libzstd when cgo is
// available, and a pure-Go fallback otherwise. Both produce standard
// Zstandard frames and interoperate freely.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
