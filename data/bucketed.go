package data

import (
	"fmt"

	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/variable"
)

// Bucketed is the ragged ("binned") container: an index table of
// (begin, end) offset pairs, one per bucket, pointing into a shared flat
// buffer table that holds all bucket payloads contiguously.
//
// The index table may be multi-dimensional when data was binned along more
// than one key; its shape is the logical shape of the binned array. The
// buffer dimension names the buffer axis the offsets range over.
//
// A Bucketed is immutable after construction; concurrent readers are safe.
type Bucketed struct {
	indices *variable.Variable
	dim     string
	buffer  *DataArray
}

// NewBucketed creates a bucketed container and validates that every offset
// pair is an ordered range within the buffer's extent along dim.
func NewBucketed(indices *variable.Variable, dim string, buffer *DataArray) (*Bucketed, error) {
	if indices.DType() != variable.TypeIndexPair {
		return nil, fmt.Errorf("%w: bucket index table must be %s, got %s",
			errs.ErrDTypeMismatch, variable.TypeIndexPair, indices.DType())
	}
	if buffer.IsBinned() {
		return nil, fmt.Errorf("%w: bucket buffer must be dense", errs.ErrDimensionMismatch)
	}
	size := buffer.Dims().Size(dim)
	if size < 0 {
		return nil, fmt.Errorf("%w: buffer %s has no dimension %q",
			errs.ErrDimensionMismatch, buffer.Dims(), dim)
	}
	for i, p := range indices.IndexPairs() {
		if p.Begin < 0 || p.End < p.Begin || p.End > size {
			return nil, fmt.Errorf("%w: bucket %d range [%d, %d) outside buffer extent %d",
				errs.ErrDimensionMismatch, i, p.Begin, p.End, size)
		}
	}

	return &Bucketed{indices: indices, dim: dim, buffer: buffer}, nil
}

// newBucketedNoValidate skips range validation for internally constructed
// tables that are correct by construction (offset builder output,
// HideMasked's emptied ranges).
func newBucketedNoValidate(indices *variable.Variable, dim string, buffer *DataArray) *Bucketed {
	return &Bucketed{indices: indices, dim: dim, buffer: buffer}
}

// Indices returns the (begin, end) index table.
func (b *Bucketed) Indices() *variable.Variable { return b.indices }

// BufferDim returns the buffer dimension the offsets range over.
func (b *Bucketed) BufferDim() string { return b.dim }

// Buffer returns the shared flat buffer table.
func (b *Bucketed) Buffer() *DataArray { return b.buffer }

// NumBuckets returns the number of buckets (the index-table volume).
func (b *Bucketed) NumBuckets() int { return b.indices.Len() }

// BucketSizes returns the per-bucket element counts as an index variable
// with the index-table shape.
func (b *Bucketed) BucketSizes() *variable.Variable {
	pairs := b.indices.IndexPairs()
	sizes := make([]int, len(pairs))
	for i, p := range pairs {
		sizes[i] = p.Len()
	}

	return variable.NewIndex(b.indices.Dims(), sizes)
}

// Bucket extracts the i-th bucket (in row-major index-table order) as a
// standalone table holding deep copies of the bucket's rows.
func (b *Bucketed) Bucket(i int) (*DataArray, error) {
	pairs := b.indices.IndexPairs()
	if i < 0 || i >= len(pairs) {
		return nil, fmt.Errorf("%w: bucket %d of %d", errs.ErrDimensionMismatch, i, len(pairs))
	}

	return tableSlice(b.buffer, b.dim, pairs[i].Begin, pairs[i].End)
}

// Concat concatenates all bucket contents in bucket order into a single
// flat table. Rows keep their within-bucket order. Buckets whose ranges
// were emptied (e.g. by HideMasked) contribute nothing.
func (b *Bucketed) Concat() (*DataArray, error) {
	out, err := tableSlice(b.buffer, b.dim, 0, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range b.indices.IndexPairs() {
		part, err := tableSlice(b.buffer, b.dim, p.Begin, p.End)
		if err != nil {
			return nil, err
		}
		out, err = Concat(out, part, b.dim)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// HideMasked returns a view-like container whose buckets are emptied where
// the union of masks along any of the given dimensions is true. The buffer
// is shared, only the index table is rewritten; masked rows stay in the
// buffer but become unreachable.
func (b *Bucketed) HideMasked(masks map[string]*variable.Variable, over []string) *Bucketed {
	pairs := b.indices.IndexPairs()
	hidden := make([]variable.IndexPair, len(pairs))
	copy(hidden, pairs)
	strides := b.indices.Dims().Strides()
	labels := b.indices.Dims().Labels()

	for _, dim := range over {
		mask := MaskUnion(masks, dim)
		if mask == nil {
			continue
		}
		maskVals := mask.Bools()
		// Map each bucket's position along the masked dims to a mask element.
		maskStrides := make([]int, len(labels))
		for i, label := range labels {
			if j := mask.Dims().Index(label); j >= 0 {
				maskStrides[i] = mask.Dims().Strides()[j]
			}
		}
		for i := range hidden {
			offset := 0
			rest := i
			for d, stride := range strides {
				pos := rest / stride
				rest %= stride
				offset += pos * maskStrides[d]
			}
			if maskVals[offset] {
				hidden[i] = variable.IndexPair{}
			}
		}
	}

	return newBucketedNoValidate(
		variable.NewIndexPairs(b.indices.Dims(), hidden), b.dim, b.buffer)
}

// Copy returns a deep copy of the container, including the buffer.
func (b *Bucketed) Copy() *Bucketed {
	return newBucketedNoValidate(b.indices.Copy(), b.dim, b.buffer.Copy())
}

// String returns a short description for diagnostics.
func (b *Bucketed) String() string {
	return fmt.Sprintf("Bucketed(%s buckets over %q, buffer %s)",
		b.indices.Dims(), b.dim, b.buffer.Dims())
}
