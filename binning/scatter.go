package binning

import (
	"fmt"

	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/pool"
	"github.com/arloliu/ndbin/variable"
)

func scatterSlice[T any](in []T, indices []int, cursor []int, out []T) {
	for i, idx := range indices {
		if idx < 0 {
			continue
		}
		out[cursor[idx]] = in[i]
		cursor[idx]++
	}
}

func scatterPair[T any](in, inVar []T, indices []int, cursor []int, out, outVar []T) {
	for i, idx := range indices {
		if idx < 0 {
			continue
		}
		out[cursor[idx]] = in[i]
		outVar[cursor[idx]] = inVar[i]
		cursor[idx]++
	}
}

// scatterVar partitions a 1-D table variable into a new buffer of length
// total, placing each element at its bucket's write cursor. The pass runs
// in input order, so elements within one bucket keep their original
// relative order; dropped (NoBin) elements never reach the output.
//
// The write slot depends on a shared mutable cursor per bucket, so this
// pass is deliberately single-threaded. Threaded callers partition by
// output bucket instead, giving each worker exclusive cursors (see
// subBinIndices in bin.go for the per-bucket path).
//
// Variances, when present, are scattered in lock-step with values.
func scatterVar(v *variable.Variable, dim string, indices []int, begin []int, total int) (*variable.Variable, error) {
	if v.Dims().NDim() != 1 || v.Dims().Outer() != dim {
		return nil, fmt.Errorf("%w: cannot scatter %s along %q, table variables must be 1-D",
			errs.ErrDimensionMismatch, v.Dims(), dim)
	}
	if v.Len() != len(indices) {
		return nil, fmt.Errorf("%w: %d indices for %d elements",
			errs.ErrDimensionMismatch, len(indices), v.Len())
	}

	cursor, release := pool.GetIndexSlice(len(begin))
	defer release()
	copy(cursor, begin)

	d := dims.Of(dim, total)
	out := variable.New(v.DType(), d, v.Unit())

	switch v.DType() {
	case variable.TypeFloat64:
		if v.HasVariances() {
			outVar := make([]float64, total)
			scatterPair(v.Float64s(), v.Float64Variances(), indices, cursor, out.Float64s(), outVar)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		} else {
			scatterSlice(v.Float64s(), indices, cursor, out.Float64s())
		}
	case variable.TypeFloat32:
		if v.HasVariances() {
			outVar := make([]float32, total)
			scatterPair(v.Float32s(), v.Float32Variances(), indices, cursor, out.Float32s(), outVar)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		} else {
			scatterSlice(v.Float32s(), indices, cursor, out.Float32s())
		}
	case variable.TypeInt64:
		scatterSlice(v.Int64s(), indices, cursor, out.Int64s())
	case variable.TypeInt32:
		scatterSlice(v.Int32s(), indices, cursor, out.Int32s())
	case variable.TypeBool:
		scatterSlice(v.Bools(), indices, cursor, out.Bools())
	case variable.TypeString:
		scatterSlice(v.Strings(), indices, cursor, out.Strings())
	case variable.TypeIndex:
		scatterSlice(v.Indexes(), indices, cursor, out.Indexes())
	default:
		return nil, fmt.Errorf("%w: cannot scatter %s elements",
			errs.ErrUnsupportedDType, v.DType())
	}

	return out, nil
}

// scatterTable partitions every variable of an event table that spans the
// buffer dimension; metadata not spanning it is copied unchanged. Variables
// named in omit (e.g. coordinates consumed by grouping) are left out of the
// result.
func scatterTable(table *data.DataArray, dim string, indices []int, begin []int, total int, omit map[string]bool) (*data.DataArray, error) {
	scattered, err := scatterVar(table.Data(), dim, indices, begin, total)
	if err != nil {
		return nil, err
	}
	out := data.New(scattered).SetName(table.Name())
	for name, c := range table.Coords() {
		if omit[name] {
			continue
		}
		if !c.Dims().Contains(dim) {
			if err := out.SetCoord(name, c.Copy()); err != nil {
				return nil, err
			}
			continue
		}
		sc, err := scatterVar(c, dim, indices, begin, total)
		if err != nil {
			return nil, err
		}
		if err := out.SetCoord(name, sc); err != nil {
			return nil, err
		}
	}
	for name, m := range table.Masks() {
		if !m.Dims().Contains(dim) {
			if err := out.SetMask(name, m.Copy()); err != nil {
				return nil, err
			}
			continue
		}
		sm, err := scatterVar(m, dim, indices, begin, total)
		if err != nil {
			return nil, err
		}
		if err := out.SetMask(name, sm); err != nil {
			return nil, err
		}
	}
	for name, v := range table.Attrs() {
		if !v.Dims().Contains(dim) {
			out.SetAttr(name, v.Copy())
			continue
		}
		sv, err := scatterVar(v, dim, indices, begin, total)
		if err != nil {
			return nil, err
		}
		out.SetAttr(name, sv)
	}

	return out, nil
}
