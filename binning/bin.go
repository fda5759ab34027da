package binning

import (
	"fmt"
	"slices"

	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/options"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

type binConfig struct {
	dimOrder []string
}

// Option configures a Bin call.
type Option = options.Option[*binConfig]

// WithDimOrder declares the order of the new output-bin dimensions. By
// default groups come before edges, each in argument order. Every name must
// match the dimension of exactly one edges or groups argument.
func WithDimOrder(order ...string) Option {
	return options.New(func(cfg *binConfig) error {
		if len(slices.Compact(slices.Sorted(slices.Values(order)))) != len(order) {
			return fmt.Errorf("%w: duplicate dimension in dim order", errs.ErrDimensionMismatch)
		}
		cfg.dimOrder = order
		return nil
	})
}

const (
	keyGroup = iota
	keyEdges
)

type binKey struct {
	kind   int
	dim    string
	v      *variable.Variable
	extent int
}

func makeKeys(edges, groups []*variable.Variable, order []string) ([]binKey, error) {
	keys := make([]binKey, 0, len(edges)+len(groups))
	for _, g := range groups {
		if err := checkKey("groups", g); err != nil {
			return nil, err
		}
		keys = append(keys, binKey{kind: keyGroup, dim: g.Dims().Outer(), v: g, extent: g.Len()})
	}
	for _, e := range edges {
		if _, err := edgeValues(e); err != nil {
			return nil, err
		}
		keys = append(keys, binKey{kind: keyEdges, dim: e.Dims().Outer(), v: e, extent: e.Len() - 1})
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no edges or groups given", errs.ErrDimensionMismatch)
	}
	for i, k := range keys {
		for _, other := range keys[:i] {
			if other.dim == k.dim {
				return nil, fmt.Errorf("%w: duplicate binning dimension %q",
					errs.ErrDimensionMismatch, k.dim)
			}
		}
	}
	if len(order) == 0 {
		return keys, nil
	}
	if len(order) != len(keys) {
		return nil, fmt.Errorf("%w: dim order names %d dimensions, have %d keys",
			errs.ErrDimensionMismatch, len(order), len(keys))
	}
	ordered := make([]binKey, 0, len(keys))
	for _, name := range order {
		i := slices.IndexFunc(keys, func(k binKey) bool { return k.dim == name })
		if i < 0 {
			return nil, fmt.Errorf("%w: dim order names unknown dimension %q",
				errs.ErrDimensionMismatch, name)
		}
		ordered = append(ordered, keys[i])
	}

	return ordered, nil
}

// asBinned views a dense event table as a single-bucket binned array so the
// sub-binning path below covers both flat and already-binned inputs.
func asBinned(array *data.DataArray) (*data.Bucketed, error) {
	if array.IsBinned() {
		return array.Binned(), nil
	}
	d := array.Data().Dims()
	if d.NDim() != 1 {
		return nil, fmt.Errorf("%w: data to be binned must resemble a table with 1-D columns, got %s",
			errs.ErrDimensionMismatch, d)
	}
	dim := d.Outer()
	indices := variable.NewIndexPairs(dims.Dimensions{},
		[]variable.IndexPair{{Begin: 0, End: d.Size(dim)}})

	return data.NewBucketed(indices, dim, array)
}

// subBinIndices computes the per-event index within the new (inner) bin
// shape by folding all keys with the mixed-radix combiner. Events outside
// every bucket of the existing binning keep the sentinel NoBin.
func subBinIndices(binned *data.Bucketed, keys []binKey) ([]int, dims.Dimensions, error) {
	buffer := binned.Buffer()
	bufDim := binned.BufferDim()
	n := buffer.Dims().Size(bufDim)

	var sub []int
	newDims := dims.Dimensions{}
	for _, key := range keys {
		coord, err := buffer.Coord(key.dim)
		if err != nil {
			return nil, dims.Dimensions{}, err
		}
		if coord.Dims().NDim() != 1 || coord.Dims().Outer() != bufDim {
			return nil, dims.Dimensions{}, fmt.Errorf(
				"%w: coordinate %q spans %s, not the table dimension %q; data to be binned should resemble a table with one coord column per binned dimension",
				errs.ErrDimensionMismatch, key.dim, coord.Dims(), bufDim)
		}

		var part *variable.Variable
		if key.kind == keyGroup {
			part, err = GroupIndices(coord, key.v)
		} else {
			part, err = BinIndices(coord, key.v)
		}
		if err != nil {
			return nil, dims.Dimensions{}, err
		}
		if sub == nil {
			sub = make([]int, n)
			copy(sub, part.Indexes())
		} else {
			combineInto(sub, part.Indexes(), key.extent)
		}
		newDims = newDims.AddInner(key.dim, key.extent)
	}

	return sub, newDims, nil
}

// Bin groups the events of array into bins along one new dimension per
// edges/groups argument and returns the resulting bucketed array.
//
// Each edges argument defines contiguous half-open bins along its (1-D)
// dimension; each groups argument defines one bin per discrete value.
// Events that match no bin along any key are dropped. Binning keys are
// looked up among the coordinates of the event table.
//
// When array is already binned, the new keys subdivide each existing
// bucket: an event's membership in its original outer bucket never changes,
// only its position within the now finer nested structure. The output index
// table has the existing outer dimensions followed by the new dimensions.
//
// Coordinates used purely for grouping are dropped from the buffer table
// and recorded once as the coordinate of the new outer dimension instead of
// duplicating a constant per row. Edge coordinates remain per-event in the
// buffer and the edges are attached as the bin-edge coordinate of the new
// dimension.
func Bin(array *data.DataArray, edges, groups []*variable.Variable, opts ...Option) (*data.DataArray, error) {
	cfg := &binConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	keys, err := makeKeys(edges, groups, cfg.dimOrder)
	if err != nil {
		return nil, err
	}
	binned, err := asBinned(array)
	if err != nil {
		return nil, err
	}
	outerDims := binned.Indices().Dims()
	for _, key := range keys {
		if outerDims.Contains(key.dim) {
			return nil, fmt.Errorf("%w: dimension %q is already binned",
				errs.ErrDimensionMismatch, key.dim)
		}
	}

	sub, newDims, err := subBinIndices(binned, keys)
	if err != nil {
		return nil, err
	}

	// Final flat index: outer bucket, then sub-bin, row-major. Workers
	// partition by outer bucket, so each owns a disjoint set of rows.
	buffer := binned.Buffer()
	bufDim := binned.BufferDim()
	n := buffer.Dims().Size(bufDim)
	newVol := newDims.Volume()
	final := make([]int, n)
	for i := range final {
		final[i] = NoBin
	}
	pairs := binned.Indices().IndexPairs()
	_ = parallel.For(len(pairs), 0, func(begin, end int) error {
		for b := begin; b < end; b++ {
			for r := pairs[b].Begin; r < pairs[b].End; r++ {
				if sub[r] >= 0 {
					final[r] = b*newVol + sub[r]
				}
			}
		}
		return nil
	})

	sizes := BinSizes(final, len(pairs)*newVol)
	begin, total := SizesToBegin(sizes)

	omit := map[string]bool{}
	for _, key := range keys {
		if key.kind == keyGroup {
			omit[key.dim] = true
		}
	}
	newBuffer, err := scatterTable(buffer, bufDim, final, begin, total, omit)
	if err != nil {
		return nil, err
	}

	outDims := outerDims.Merge(newDims)
	table := make([]variable.IndexPair, len(sizes))
	for i := range sizes {
		table[i] = variable.IndexPair{Begin: begin[i], End: begin[i] + sizes[i]}
	}
	bucketed, err := data.NewBucketed(variable.NewIndexPairs(outDims, table), bufDim, newBuffer)
	if err != nil {
		return nil, err
	}

	out := data.NewBinned(bucketed).SetName(array.Name())
	for _, key := range keys {
		if err := out.SetCoord(key.dim, key.v.Copy()); err != nil {
			return nil, err
		}
	}
	out.ShareMetadataFrom(array)

	return out, nil
}
