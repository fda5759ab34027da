package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor provides LZ4 block compression, balancing speed and ratio
// for medium-lived snapshots.
//
// The original payload length is prepended as a little-endian uint32 so
// decompression can size its output buffer exactly.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data as a single LZ4 block.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	buf := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	buf[0] = byte(len(data))
	buf[1] = byte(len(data) >> 8)
	buf[2] = byte(len(data) >> 16)
	buf[3] = byte(len(data) >> 24)

	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(data, buf[4:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// Incompressible input; CompressBlock signals this with n == 0.
		out := append(buf[:4:4], data...)
		out[3] |= 0x80 // stored-uncompressed marker in the top length bit
		return out, nil
	}

	return buf[:4+n], nil
}

// Decompress decompresses a single LZ4 block produced by Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 payload truncated: %d bytes", len(data))
	}
	size := int(data[0]) | int(data[1])<<8 | int(data[2])<<16 | int(data[3]&0x7f)<<24
	if data[3]&0x80 != 0 {
		if len(data)-4 != size {
			return nil, fmt.Errorf("lz4 stored payload size mismatch: expected %d, got %d", size, len(data)-4)
		}
		return append([]byte(nil), data[4:]...), nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompressed size mismatch: expected %d, got %d", size, n)
	}

	return out, nil
}
