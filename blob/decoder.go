package blob

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ndbin/compress"
	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/endian"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/format"
	"github.com/arloliu/ndbin/internal/hash"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

// Decoder restores binned data arrays from snapshot blobs. The byte order
// and codec are read from the blob itself, so a single Decoder handles
// blobs from any Encoder configuration.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode restores a binned data array from a snapshot blob. Every section
// checksum is verified; corruption anywhere fails the whole decode.
func (d *Decoder) Decode(blob []byte) (*data.DataArray, error) {
	r := &reader{data: blob}

	head, err := r.readBytes(len(magicNumber))
	if err != nil || !bytes.Equal(head, magicNumber[:]) {
		return nil, fmt.Errorf("%w: bad magic", errs.ErrInvalidBlob)
	}
	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidBlob, version)
	}
	flags, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if flags&flagBigEndian != 0 {
		r.engine = endian.GetBigEndianEngine()
	} else {
		r.engine = endian.GetLittleEndianEngine()
	}
	compression, err := r.readByte()
	if err != nil {
		return nil, err
	}
	codec, err := compress.GetCodec(format.CompressionType(compression))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidBlob, err)
	}
	r.codec = codec

	name, err := r.readString()
	if err != nil {
		return nil, err
	}

	outer, err := d.readOuterDims(r)
	if err != nil {
		return nil, err
	}

	bufferDim, err := r.readString()
	if err != nil {
		return nil, err
	}
	rows, err := r.readUvarint()
	if err != nil {
		return nil, err
	}

	pairs, err := d.readIndexTable(r, outer.Volume(), int(rows))
	if err != nil {
		return nil, err
	}

	return d.readSections(r, name, outer, bufferDim, int(rows), pairs)
}

func (d *Decoder) readOuterDims(r *reader) (dims.Dimensions, error) {
	ndim, err := r.readUvarint()
	if err != nil {
		return dims.Dimensions{}, err
	}
	labels := make([]string, ndim)
	sizes := make([]int, ndim)
	for i := range labels {
		if labels[i], err = r.readString(); err != nil {
			return dims.Dimensions{}, err
		}
		size, err := r.readUvarint()
		if err != nil {
			return dims.Dimensions{}, err
		}
		sizes[i] = int(size)
	}

	return dims.New(labels, sizes), nil
}

func (d *Decoder) readIndexTable(r *reader, numBuckets, rows int) ([]variable.IndexPair, error) {
	payload, err := r.readPayload()
	if err != nil {
		return nil, fmt.Errorf("index table: %w", err)
	}
	pairs := make([]variable.IndexPair, numBuckets)
	prev, off := 0, 0
	for i := range pairs {
		delta, sz := binary.Varint(payload[off:])
		if sz <= 0 {
			return nil, fmt.Errorf("%w: truncated index table", errs.ErrInvalidBlob)
		}
		off += sz
		length, sz := binary.Uvarint(payload[off:])
		if sz <= 0 {
			return nil, fmt.Errorf("%w: truncated index table", errs.ErrInvalidBlob)
		}
		off += sz

		begin := prev + int(delta)
		pairs[i] = variable.IndexPair{Begin: begin, End: begin + int(length)}
		if begin < 0 || pairs[i].End > rows {
			return nil, fmt.Errorf("%w: bucket %d range [%d, %d) exceeds %d buffer rows",
				errs.ErrInvalidBlob, i, begin, pairs[i].End, rows)
		}
		prev = begin
	}
	if off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes in index table", errs.ErrInvalidBlob, len(payload)-off)
	}

	return pairs, nil
}

func (d *Decoder) readSections(r *reader, name string, outer dims.Dimensions, bufferDim string, rows int, pairs []variable.IndexPair) (*data.DataArray, error) {
	count, err := r.readUvarint()
	if err != nil {
		return nil, err
	}

	var buffer *data.DataArray
	type meta struct {
		kind format.SectionKind
		name string
		v    *variable.Variable
	}
	var deferred []meta

	for i := 0; i < int(count); i++ {
		kind, sectionName, v, err := d.readSection(r)
		if err != nil {
			return nil, err
		}
		switch kind {
		case format.SectionData:
			if buffer != nil {
				return nil, fmt.Errorf("%w: duplicate data section", errs.ErrInvalidBlob)
			}
			if v.Len() != rows {
				return nil, fmt.Errorf("%w: data section has %d rows, header says %d", errs.ErrInvalidBlob, v.Len(), rows)
			}
			buffer = data.New(v).SetName(sectionName)
		case format.SectionCoord, format.SectionMask, format.SectionOuterCoord, format.SectionOuterMask:
			deferred = append(deferred, meta{kind: kind, name: sectionName, v: v})
		default:
			return nil, fmt.Errorf("%w: unknown section kind 0x%x", errs.ErrInvalidBlob, uint8(kind))
		}
	}
	if buffer == nil {
		return nil, fmt.Errorf("%w: missing data section", errs.ErrInvalidBlob)
	}

	for _, m := range deferred {
		var err error
		switch m.kind {
		case format.SectionCoord:
			err = buffer.SetCoord(m.name, m.v)
		case format.SectionMask:
			err = buffer.SetMask(m.name, m.v)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %s", errs.ErrInvalidBlob, m.name, err)
		}
	}

	indices := variable.NewIndexPairs(outer, pairs)
	binned, err := data.NewBucketed(indices, bufferDim, buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidBlob, err)
	}
	arr := data.NewBinned(binned).SetName(name)

	for _, m := range deferred {
		var err error
		switch m.kind {
		case format.SectionOuterCoord:
			err = arr.SetCoord(m.name, m.v)
		case format.SectionOuterMask:
			err = arr.SetMask(m.name, m.v)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %s", errs.ErrInvalidBlob, m.name, err)
		}
	}

	return arr, nil
}

func (d *Decoder) readSection(r *reader) (format.SectionKind, string, *variable.Variable, error) {
	kindByte, err := r.readByte()
	if err != nil {
		return 0, "", nil, err
	}
	kind := format.SectionKind(kindByte)

	name, err := r.readString()
	if err != nil {
		return 0, "", nil, err
	}
	nameID, err := r.readUint64()
	if err != nil {
		return 0, "", nil, err
	}
	if nameID != hash.ID(name) {
		return 0, "", nil, fmt.Errorf("%w: section %q name ID mismatch", errs.ErrInvalidBlob, name)
	}
	dim, err := r.readString()
	if err != nil {
		return 0, "", nil, err
	}
	dtypeByte, err := r.readByte()
	if err != nil {
		return 0, "", nil, err
	}
	dtype := variable.DType(dtypeByte)
	if dtype < variable.TypeFloat64 || dtype > variable.TypeIndexPair {
		return 0, "", nil, fmt.Errorf("%w: section %q has unknown dtype 0x%x", errs.ErrInvalidBlob, name, dtypeByte)
	}
	unitByte, err := r.readByte()
	if err != nil {
		return 0, "", nil, err
	}
	if unitByte > uint8(unit.Kelvin) {
		return 0, "", nil, fmt.Errorf("%w: section %q has unknown unit 0x%x", errs.ErrInvalidBlob, name, unitByte)
	}
	hasVariances, err := r.readByte()
	if err != nil {
		return 0, "", nil, err
	}
	length, err := r.readUvarint()
	if err != nil {
		return 0, "", nil, err
	}

	payload, err := r.readPayload()
	if err != nil {
		return 0, "", nil, fmt.Errorf("section %q: %w", name, err)
	}
	values, err := decodeValues(r.engine, dtype, int(length), payload)
	if err != nil {
		return 0, "", nil, fmt.Errorf("section %q: %w", name, err)
	}

	v := newWithDecoded(dtype, dims.Of(dim, int(length)), unit.Unit(unitByte), values)

	if hasVariances != 0 {
		payload, err = r.readPayload()
		if err != nil {
			return 0, "", nil, fmt.Errorf("section %q variances: %w", name, err)
		}
		variances, err := decodeValues(r.engine, dtype, int(length), payload)
		if err != nil {
			return 0, "", nil, fmt.Errorf("section %q variances: %w", name, err)
		}
		if err := v.SetVariances(variances); err != nil {
			return 0, "", nil, fmt.Errorf("%w: section %q: %s", errs.ErrInvalidBlob, name, err)
		}
	}

	return kind, name, v, nil
}

// newWithDecoded constructs a Variable around a decoded value slice.
func newWithDecoded(t variable.DType, d dims.Dimensions, u unit.Unit, values any) *variable.Variable {
	switch t {
	case variable.TypeFloat64:
		return variable.NewFloat64(d, u, values.([]float64))
	case variable.TypeFloat32:
		return variable.NewFloat32(d, u, values.([]float32))
	case variable.TypeInt64:
		return variable.NewInt64(d, u, values.([]int64))
	case variable.TypeInt32:
		return variable.NewInt32(d, u, values.([]int32))
	case variable.TypeBool:
		return variable.NewBool(d, values.([]bool))
	case variable.TypeString:
		return variable.NewStrings(d, values.([]string))
	default:
		return variable.NewIndex(d, values.([]int))
	}
}

// reader is a bounds-checked cursor over a snapshot blob.
type reader struct {
	data   []byte
	off    int
	engine endian.EndianEngine
	codec  compress.Codec
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", errs.ErrInvalidBlob, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	return b, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *reader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: bad varint at offset %d", errs.ErrInvalidBlob, r.off)
	}
	r.off += n

	return v, nil
}

func (r *reader) readUint64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(b), nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// readPayload reads a length-prefixed compressed payload, verifies its
// checksum and returns the decompressed bytes.
func (r *reader) readPayload() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	compressed, err := r.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	checksum, err := r.readUint64()
	if err != nil {
		return nil, err
	}
	if checksum != hash.Sum(compressed) {
		return nil, fmt.Errorf("%w: payload checksum mismatch", errs.ErrInvalidBlob)
	}
	payload, err := r.codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidBlob, err)
	}

	return payload, nil
}
