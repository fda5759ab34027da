package data

import (
	"fmt"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/variable"
)

// MaskUnion returns the logical OR of all masks whose dimensions include
// dim, broadcast to the merged shape of the contributing masks. Returns nil
// when no mask touches dim.
func MaskUnion(masks map[string]*variable.Variable, dim string) *variable.Variable {
	var out *variable.Variable
	for _, mask := range masks {
		if !mask.Dims().Contains(dim) {
			continue
		}
		if out == nil {
			out = variable.New(variable.TypeBool, mask.Dims(), mask.Unit())
		} else if !out.Dims().Includes(mask.Dims()) {
			grown := variable.New(variable.TypeBool, out.Dims().Merge(mask.Dims()), out.Unit())
			orInto(grown, out)
			out = grown
		}
		orInto(out, mask)
	}

	return out
}

// orInto ORs mask into out, broadcasting mask over the dimensions of out it
// lacks. mask's dimensions must be included in out's.
func orInto(out, mask *variable.Variable) {
	outVals := out.Bools()
	maskVals := mask.Bools()
	outStrides := out.Dims().Strides()
	labels := out.Dims().Labels()

	maskStrides := make([]int, len(labels))
	for i, label := range labels {
		if j := mask.Dims().Index(label); j >= 0 {
			maskStrides[i] = mask.Dims().Strides()[j]
		}
	}
	for i := range outVals {
		offset := 0
		rest := i
		for d, stride := range outStrides {
			pos := rest / stride
			rest %= stride
			offset += pos * maskStrides[d]
		}
		outVals[i] = outVals[i] || maskVals[offset]
	}
}

func sliceStorage(buf any, begin, end int) any {
	switch s := buf.(type) {
	case nil:
		return nil
	case []float64:
		return append([]float64(nil), s[begin:end]...)
	case []float32:
		return append([]float32(nil), s[begin:end]...)
	case []int64:
		return append([]int64(nil), s[begin:end]...)
	case []int32:
		return append([]int32(nil), s[begin:end]...)
	case []bool:
		return append([]bool(nil), s[begin:end]...)
	case []string:
		return append([]string(nil), s[begin:end]...)
	case []int:
		return append([]int(nil), s[begin:end]...)
	case []variable.IndexPair:
		return append([]variable.IndexPair(nil), s[begin:end]...)
	default:
		panic(fmt.Sprintf("data: unknown storage %T", buf))
	}
}

func concatStorage(a, b any) any {
	switch s := a.(type) {
	case []float64:
		return append(append([]float64(nil), s...), b.([]float64)...)
	case []float32:
		return append(append([]float32(nil), s...), b.([]float32)...)
	case []int64:
		return append(append([]int64(nil), s...), b.([]int64)...)
	case []int32:
		return append(append([]int32(nil), s...), b.([]int32)...)
	case []bool:
		return append(append([]bool(nil), s...), b.([]bool)...)
	case []string:
		return append(append([]string(nil), s...), b.([]string)...)
	case []int:
		return append(append([]int(nil), s...), b.([]int)...)
	case []variable.IndexPair:
		return append(append([]variable.IndexPair(nil), s...), b.([]variable.IndexPair)...)
	default:
		panic(fmt.Sprintf("data: unknown storage %T", a))
	}
}

func newFromStorage(t variable.DType, d dims.Dimensions, v *variable.Variable, values, variances any) *variable.Variable {
	var out *variable.Variable
	switch t {
	case variable.TypeFloat64:
		out = variable.NewFloat64(d, v.Unit(), values.([]float64))
	case variable.TypeFloat32:
		out = variable.NewFloat32(d, v.Unit(), values.([]float32))
	case variable.TypeInt64:
		out = variable.NewInt64(d, v.Unit(), values.([]int64))
	case variable.TypeInt32:
		out = variable.NewInt32(d, v.Unit(), values.([]int32))
	case variable.TypeBool:
		out = variable.NewBool(d, values.([]bool))
	case variable.TypeString:
		out = variable.NewStrings(d, values.([]string))
	case variable.TypeIndex:
		out = variable.NewIndex(d, values.([]int))
	case variable.TypeIndexPair:
		out = variable.NewIndexPairs(d, values.([]variable.IndexPair))
	default:
		panic(fmt.Sprintf("data: unknown dtype %s", t))
	}
	if variances != nil {
		if err := out.SetVariances(variances); err != nil {
			panic(err)
		}
	}

	return out
}

// sliceVarRows slices a 1-D variable along its only dimension.
func sliceVarRows(v *variable.Variable, dim string, begin, end int) (*variable.Variable, error) {
	if v.Dims().NDim() != 1 || v.Dims().Outer() != dim {
		return nil, fmt.Errorf("%w: cannot slice %s along %q, table variables must be 1-D",
			errs.ErrDimensionMismatch, v.Dims(), dim)
	}
	d := dims.Of(dim, end-begin)

	return newFromStorage(v.DType(), d, v,
		sliceStorage(v.Values(), begin, end), sliceStorage(v.Variances(), begin, end)), nil
}

// tableSlice extracts rows [begin, end) of an event table: the dense data
// variable and every coordinate/mask/attribute that spans dim. Metadata not
// spanning dim is copied unchanged.
func tableSlice(a *DataArray, dim string, begin, end int) (*DataArray, error) {
	if a.IsBinned() {
		return nil, fmt.Errorf("%w: cannot row-slice a binned array", errs.ErrDimensionMismatch)
	}
	sliced, err := sliceVarRows(a.Data(), dim, begin, end)
	if err != nil {
		return nil, err
	}
	out := New(sliced).SetName(a.Name())
	for name, c := range a.Coords() {
		if c.Dims().Contains(dim) {
			sc, err := sliceVarRows(c, dim, begin, end)
			if err != nil {
				return nil, err
			}
			out.coords[name] = sc
		} else {
			out.coords[name] = c.Copy()
		}
	}
	for name, m := range a.Masks() {
		if m.Dims().Contains(dim) {
			sm, err := sliceVarRows(m, dim, begin, end)
			if err != nil {
				return nil, err
			}
			out.masks[name] = sm
		} else {
			out.masks[name] = m.Copy()
		}
	}
	for name, v := range a.Attrs() {
		out.attrs[name] = v.Copy()
	}

	return out, nil
}

func concatVarRows(a, b *variable.Variable, dim string) (*variable.Variable, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%w: concat of %s and %s", errs.ErrDTypeMismatch, a.DType(), b.DType())
	}
	if a.Unit() != b.Unit() {
		return nil, fmt.Errorf("%w: concat of %s and %s", errs.ErrUnitMismatch, a.Unit(), b.Unit())
	}
	if a.Dims().NDim() != 1 || b.Dims().NDim() != 1 || a.Dims().Outer() != dim || b.Dims().Outer() != dim {
		return nil, fmt.Errorf("%w: concat along %q requires 1-D operands, got %s and %s",
			errs.ErrDimensionMismatch, dim, a.Dims(), b.Dims())
	}
	if a.HasVariances() != b.HasVariances() {
		return nil, fmt.Errorf("%w: concat of mixed variance presence", errs.ErrDimensionMismatch)
	}
	d := dims.Of(dim, a.Len()+b.Len())
	var variances any
	if a.HasVariances() {
		variances = concatStorage(a.Variances(), b.Variances())
	}

	return newFromStorage(a.DType(), d, a, concatStorage(a.Values(), b.Values()), variances), nil
}

// Concat concatenates two event tables along dim.
//
// Coordinate policy: coordinates spanning dim are concatenated; coordinates
// not spanning dim are kept only when both sides agree exactly and are
// dropped on mismatch. The drop is deliberate, tested behavior, not a side
// effect: disagreeing metadata cannot describe the combined table.
// Masks follow the same rules; attributes are taken from a.
func Concat(a, b *DataArray, dim string) (*DataArray, error) {
	if a.IsBinned() || b.IsBinned() {
		return nil, fmt.Errorf("%w: concat of binned arrays is not supported",
			errs.ErrDimensionMismatch)
	}
	cat, err := concatVarRows(a.Data(), b.Data(), dim)
	if err != nil {
		return nil, err
	}
	out := New(cat).SetName(a.Name())
	for name, ca := range a.Coords() {
		cb, ok := b.Coords()[name]
		if !ok {
			continue
		}
		if ca.Dims().Contains(dim) {
			cc, err := concatVarRows(ca, cb, dim)
			if err != nil {
				return nil, err
			}
			out.coords[name] = cc
		} else if variable.Equal(ca, cb) {
			out.coords[name] = ca.Copy()
		}
		// Mismatching coordinate: dropped.
	}
	for name, ma := range a.Masks() {
		mb, ok := b.Masks()[name]
		if !ok {
			continue
		}
		if ma.Dims().Contains(dim) {
			mc, err := concatVarRows(ma, mb, dim)
			if err != nil {
				return nil, err
			}
			out.masks[name] = mc
		} else if variable.Equal(ma, mb) {
			out.masks[name] = ma.Copy()
		}
	}
	for name, v := range a.Attrs() {
		out.attrs[name] = v.Copy()
	}

	return out, nil
}
