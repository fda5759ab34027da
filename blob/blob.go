// Package blob implements the ndbin snapshot codec: a compact binary
// serialization of a binned data array for hand-off between processes or
// short-term caching.
//
// A snapshot blob is laid out as
//
//	magic "NDB1" | version | flags | compression | array name
//	outer dimensions (label, size pairs)
//	buffer dimension label | buffer row count
//	index table payload (varint-delta begin, length pairs)
//	section count | sections...
//
// Each section carries one column of the array: the buffer's data column,
// a per-event coordinate or mask, or an outer coordinate or mask. Section
// payloads are compressed independently and followed by an xxHash checksum,
// so a truncated or corrupted blob fails fast with a precise diagnostic.
// Multi-byte fields use the blob's declared byte order; varints are
// byte-order independent.
package blob

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/ndbin/endian"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/variable"
)

var magicNumber = [4]byte{'N', 'D', 'B', '1'}

const (
	formatVersion uint8 = 1

	flagBigEndian uint8 = 0x01
)

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))

	return append(buf, s...)
}

// encodeValues serializes a value slice of the given dtype with the given
// byte order. Strings are length-prefixed, index values are signed varints,
// fixed-width numerics are written raw.
func encodeValues(engine endian.EndianEngine, t variable.DType, values any) ([]byte, error) {
	switch t {
	case variable.TypeFloat64:
		vs := values.([]float64)
		out := make([]byte, 0, 8*len(vs))
		for _, v := range vs {
			out = engine.AppendUint64(out, math.Float64bits(v))
		}

		return out, nil
	case variable.TypeFloat32:
		vs := values.([]float32)
		out := make([]byte, 0, 4*len(vs))
		for _, v := range vs {
			out = engine.AppendUint32(out, math.Float32bits(v))
		}

		return out, nil
	case variable.TypeInt64:
		vs := values.([]int64)
		out := make([]byte, 0, 8*len(vs))
		for _, v := range vs {
			out = engine.AppendUint64(out, uint64(v))
		}

		return out, nil
	case variable.TypeInt32:
		vs := values.([]int32)
		out := make([]byte, 0, 4*len(vs))
		for _, v := range vs {
			out = engine.AppendUint32(out, uint32(v))
		}

		return out, nil
	case variable.TypeBool:
		vs := values.([]bool)
		out := make([]byte, len(vs))
		for i, v := range vs {
			if v {
				out[i] = 1
			}
		}

		return out, nil
	case variable.TypeString:
		vs := values.([]string)
		out := make([]byte, 0, 16*len(vs))
		for _, v := range vs {
			out = appendString(out, v)
		}

		return out, nil
	case variable.TypeIndex:
		vs := values.([]int)
		out := make([]byte, 0, 2*len(vs))
		for _, v := range vs {
			out = binary.AppendVarint(out, int64(v))
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot snapshot %s column", errs.ErrUnsupportedDType, t)
	}
}

// decodeValues reverses encodeValues, returning a freshly allocated slice
// of exactly count elements.
func decodeValues(engine endian.EndianEngine, t variable.DType, count int, payload []byte) (any, error) {
	switch t {
	case variable.TypeFloat64:
		if len(payload) != 8*count {
			return nil, fmt.Errorf("%w: float64 payload is %d bytes, want %d", errs.ErrInvalidBlob, len(payload), 8*count)
		}
		vs := make([]float64, count)
		for i := range vs {
			vs[i] = math.Float64frombits(engine.Uint64(payload[8*i:]))
		}

		return vs, nil
	case variable.TypeFloat32:
		if len(payload) != 4*count {
			return nil, fmt.Errorf("%w: float32 payload is %d bytes, want %d", errs.ErrInvalidBlob, len(payload), 4*count)
		}
		vs := make([]float32, count)
		for i := range vs {
			vs[i] = math.Float32frombits(engine.Uint32(payload[4*i:]))
		}

		return vs, nil
	case variable.TypeInt64:
		if len(payload) != 8*count {
			return nil, fmt.Errorf("%w: int64 payload is %d bytes, want %d", errs.ErrInvalidBlob, len(payload), 8*count)
		}
		vs := make([]int64, count)
		for i := range vs {
			vs[i] = int64(engine.Uint64(payload[8*i:]))
		}

		return vs, nil
	case variable.TypeInt32:
		if len(payload) != 4*count {
			return nil, fmt.Errorf("%w: int32 payload is %d bytes, want %d", errs.ErrInvalidBlob, len(payload), 4*count)
		}
		vs := make([]int32, count)
		for i := range vs {
			vs[i] = int32(engine.Uint32(payload[4*i:]))
		}

		return vs, nil
	case variable.TypeBool:
		if len(payload) != count {
			return nil, fmt.Errorf("%w: bool payload is %d bytes, want %d", errs.ErrInvalidBlob, len(payload), count)
		}
		vs := make([]bool, count)
		for i, b := range payload {
			vs[i] = b != 0
		}

		return vs, nil
	case variable.TypeString:
		vs := make([]string, count)
		off := 0
		for i := range vs {
			n, sz := binary.Uvarint(payload[off:])
			if sz <= 0 || off+sz+int(n) > len(payload) {
				return nil, fmt.Errorf("%w: truncated string payload", errs.ErrInvalidBlob)
			}
			off += sz
			vs[i] = string(payload[off : off+int(n)])
			off += int(n)
		}
		if off != len(payload) {
			return nil, fmt.Errorf("%w: %d trailing bytes in string payload", errs.ErrInvalidBlob, len(payload)-off)
		}

		return vs, nil
	case variable.TypeIndex:
		vs := make([]int, count)
		off := 0
		for i := range vs {
			v, sz := binary.Varint(payload[off:])
			if sz <= 0 {
				return nil, fmt.Errorf("%w: truncated index payload", errs.ErrInvalidBlob)
			}
			off += sz
			vs[i] = int(v)
		}
		if off != len(payload) {
			return nil, fmt.Errorf("%w: %d trailing bytes in index payload", errs.ErrInvalidBlob, len(payload)-off)
		}

		return vs, nil
	default:
		return nil, fmt.Errorf("%w: cannot restore %s column", errs.ErrUnsupportedDType, t)
	}
}
