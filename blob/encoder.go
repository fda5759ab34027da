package blob

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/arloliu/ndbin/compress"
	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/endian"
	"github.com/arloliu/ndbin/format"
	"github.com/arloliu/ndbin/internal/hash"
	"github.com/arloliu/ndbin/internal/options"
	"github.com/arloliu/ndbin/internal/pool"
	"github.com/arloliu/ndbin/variable"
)

type encoderConfig struct {
	compression format.CompressionType
	engine      endian.EndianEngine
	bigEndian   bool
}

// Option configures an Encoder.
type Option = options.Option[*encoderConfig]

// WithCompression selects the codec applied to section payloads.
// The default is Zstd.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(cfg *encoderConfig) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return err
		}
		cfg.compression = compression

		return nil
	})
}

// WithLittleEndian encodes multi-byte fields in little-endian byte order.
// This is the default.
func WithLittleEndian() Option {
	return options.NoError(func(cfg *encoderConfig) {
		cfg.engine = endian.GetLittleEndianEngine()
		cfg.bigEndian = false
	})
}

// WithBigEndian encodes multi-byte fields in big-endian byte order.
func WithBigEndian() Option {
	return options.NoError(func(cfg *encoderConfig) {
		cfg.engine = endian.GetBigEndianEngine()
		cfg.bigEndian = true
	})
}

// Encoder serializes binned data arrays into snapshot blobs. An Encoder is
// stateless between Encode calls and safe for concurrent use.
type Encoder struct {
	cfg   encoderConfig
	codec compress.Codec
}

// NewEncoder creates an Encoder with the given options.
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg := encoderConfig{
		compression: format.CompressionZstd,
		engine:      endian.GetLittleEndianEngine(),
	}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg, codec: codec}, nil
}

// Encode serializes a binned data array into a snapshot blob.
//
// Attributes are not serialized; they are auxiliary by definition and a
// restored snapshot starts without them.
func (e *Encoder) Encode(a *data.DataArray) ([]byte, error) {
	if !a.IsBinned() {
		return nil, fmt.Errorf("snapshot requires a binned array, got dense %v", a.Dims())
	}
	b := a.Binned()
	buffer := b.Buffer()

	bb := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(bb)

	bb.MustWrite(magicNumber[:])
	_ = bb.WriteByte(formatVersion)
	var flags uint8
	if e.cfg.bigEndian {
		flags |= flagBigEndian
	}
	_ = bb.WriteByte(flags)
	_ = bb.WriteByte(byte(e.cfg.compression))
	bb.B = appendString(bb.B, a.Name())

	outer := b.Indices().Dims()
	bb.B = binary.AppendUvarint(bb.B, uint64(outer.NDim()))
	for i, label := range outer.Labels() {
		bb.B = appendString(bb.B, label)
		bb.B = binary.AppendUvarint(bb.B, uint64(outer.Sizes()[i]))
	}

	bb.B = appendString(bb.B, b.BufferDim())
	bb.B = binary.AppendUvarint(bb.B, uint64(buffer.Dims().Size(b.BufferDim())))

	if err := e.writePayload(bb, encodeIndexTable(b.Indices().IndexPairs())); err != nil {
		return nil, err
	}

	sections, err := e.collectSections(a)
	if err != nil {
		return nil, err
	}
	bb.B = binary.AppendUvarint(bb.B, uint64(len(sections)))
	for _, s := range sections {
		if err := e.writeSection(bb, s); err != nil {
			return nil, err
		}
	}

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())

	return out, nil
}

type section struct {
	kind format.SectionKind
	name string
	v    *variable.Variable
}

// collectSections gathers the array's columns in a deterministic order:
// the data column first, then coordinates and masks sorted by name within
// each kind.
func (e *Encoder) collectSections(a *data.DataArray) ([]section, error) {
	b := a.Binned()
	buffer := b.Buffer()

	sections := []section{{kind: format.SectionData, name: a.Name(), v: buffer.Data()}}
	sections = appendSorted(sections, format.SectionCoord, buffer.Coords())
	sections = appendSorted(sections, format.SectionMask, buffer.Masks())
	sections = appendSorted(sections, format.SectionOuterCoord, a.Coords())
	sections = appendSorted(sections, format.SectionOuterMask, a.Masks())

	for _, s := range sections {
		if s.v.Dims().NDim() != 1 {
			return nil, fmt.Errorf("cannot snapshot %d-dimensional column %q", s.v.Dims().NDim(), s.name)
		}
	}

	return sections, nil
}

func appendSorted(sections []section, kind format.SectionKind, vars map[string]*variable.Variable) []section {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sections = append(sections, section{kind: kind, name: name, v: vars[name]})
	}

	return sections
}

func (e *Encoder) writeSection(bb *pool.ByteBuffer, s section) error {
	_ = bb.WriteByte(byte(s.kind))
	bb.B = appendString(bb.B, s.name)
	bb.B = e.cfg.engine.AppendUint64(bb.B, hash.ID(s.name))
	bb.B = appendString(bb.B, s.v.Dims().Inner())
	_ = bb.WriteByte(byte(s.v.DType()))
	_ = bb.WriteByte(byte(s.v.Unit()))
	if s.v.HasVariances() {
		_ = bb.WriteByte(1)
	} else {
		_ = bb.WriteByte(0)
	}
	bb.B = binary.AppendUvarint(bb.B, uint64(s.v.Len()))

	raw, err := encodeValues(e.cfg.engine, s.v.DType(), s.v.Values())
	if err != nil {
		return fmt.Errorf("section %q: %w", s.name, err)
	}
	if err := e.writePayload(bb, raw); err != nil {
		return fmt.Errorf("section %q: %w", s.name, err)
	}

	if s.v.HasVariances() {
		raw, err = encodeValues(e.cfg.engine, s.v.DType(), s.v.Variances())
		if err != nil {
			return fmt.Errorf("section %q variances: %w", s.name, err)
		}
		if err := e.writePayload(bb, raw); err != nil {
			return fmt.Errorf("section %q variances: %w", s.name, err)
		}
	}

	return nil
}

// writePayload compresses raw and appends length, bytes and checksum.
func (e *Encoder) writePayload(bb *pool.ByteBuffer, raw []byte) error {
	compressed, err := e.codec.Compress(raw)
	if err != nil {
		return err
	}
	bb.B = binary.AppendUvarint(bb.B, uint64(len(compressed)))
	bb.MustWrite(compressed)
	bb.B = e.cfg.engine.AppendUint64(bb.B, hash.Sum(compressed))

	return nil
}

// encodeIndexTable serializes bucket ranges as (begin delta, length) varint
// pairs. Begins are usually non-decreasing in buffer order, so deltas stay
// small and the table compresses to almost nothing for contiguous buckets.
// The delta is signed because emptied buckets reset their range to zero.
func encodeIndexTable(pairs []variable.IndexPair) []byte {
	out := make([]byte, 0, 2*len(pairs))
	prev := 0
	for _, p := range pairs {
		out = binary.AppendVarint(out, int64(p.Begin-prev))
		out = binary.AppendUvarint(out, uint64(p.Len()))
		prev = p.Begin
	}

	return out
}
