// Package compress provides the payload codecs of the snapshot blob.
//
// Snapshot payloads are raw little-endian numeric columns (offsets, values,
// coordinates), typically a few kilobytes to a few megabytes. Offset tables
// are varint-delta encoded before compression and compress extremely well;
// raw float columns benefit mostly from the fast byte-oriented codecs
// (S2, LZ4).
package compress

import (
	"fmt"

	"github.com/arloliu/ndbin/format"
)

// Compressor compresses a payload. The returned slice is newly allocated
// and owned by the caller; the input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor. It validates the payload format and
// fails on corrupted or mismatched data. The returned slice is newly
// allocated and owned by the caller.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. All built-in codecs are stateless and
// safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the given compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
