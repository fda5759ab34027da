// Package reduce computes masked reductions (sum, mean) over one dimension
// of dense or bucketed arrays.
//
// All masks whose dimensions include the reduced dimension are combined by
// logical OR into a mask union; masked elements contribute nothing to sums
// and are excluded from mean denominators. The reduction never materializes
// a masked copy of the data: elements are skipped in the accumulation pass,
// which is semantically equivalent to sum(var * !maskUnion, dim).
package reduce

import (
	"fmt"

	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/variable"
)

func checkReducible(v *variable.Variable, dim string, masks map[string]*variable.Variable) (*maskProjection, error) {
	if !v.Dims().Contains(dim) {
		return nil, fmt.Errorf("%w: data %s has no dimension %q",
			errs.ErrDimensionMismatch, v.Dims(), dim)
	}
	mask := data.MaskUnion(masks, dim)
	if mask != nil && !v.Dims().Includes(mask.Dims()) {
		return nil, fmt.Errorf("%w: mask %s exceeds data %s",
			errs.ErrDimensionMismatch, mask.Dims(), v.Dims())
	}

	return newMaskProjection(v.Dims(), mask), nil
}

func sumDims(v *variable.Variable, dim string) (out dims.Dimensions, outer, nd, inner int) {
	outer, nd, inner = v.Dims().Decompose(dim)

	return v.Dims().Erase(dim), outer, nd, inner
}

// Sum reduces v along dim, skipping elements covered by the union of all
// masks that include dim. The result keeps v's unit and drops dim.
//
// Boolean input sums into an int64 result; variances of floating-point
// input sum alongside the values.
func Sum(v *variable.Variable, dim string, masks map[string]*variable.Variable) (*variable.Variable, error) {
	proj, err := checkReducible(v, dim, masks)
	if err != nil {
		return nil, err
	}
	outDims, outer, nd, inner := sumDims(v, dim)
	outVol := outer * inner

	var out *variable.Variable
	switch v.DType() {
	case variable.TypeFloat64:
		out = variable.New(variable.TypeFloat64, outDims, v.Unit())
		sumNumeric(v.Float64s(), out.Float64s(), outVol, nd, inner, proj)
		if v.HasVariances() {
			outVar := make([]float64, outVol)
			sumNumeric(v.Float64Variances(), outVar, outVol, nd, inner, proj)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
	case variable.TypeFloat32:
		out = variable.New(variable.TypeFloat32, outDims, v.Unit())
		sumNumeric(v.Float32s(), out.Float32s(), outVol, nd, inner, proj)
		if v.HasVariances() {
			outVar := make([]float32, outVol)
			sumNumeric(v.Float32Variances(), outVar, outVol, nd, inner, proj)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
	case variable.TypeInt64:
		out = variable.New(variable.TypeInt64, outDims, v.Unit())
		sumNumeric(v.Int64s(), out.Int64s(), outVol, nd, inner, proj)
	case variable.TypeInt32:
		out = variable.New(variable.TypeInt32, outDims, v.Unit())
		sumNumeric(v.Int32s(), out.Int32s(), outVol, nd, inner, proj)
	case variable.TypeIndex:
		out = variable.New(variable.TypeIndex, outDims, v.Unit())
		sumNumeric(v.Indexes(), out.Indexes(), outVol, nd, inner, proj)
	case variable.TypeBool:
		// A bool cannot hold a count >= 2; widen to int64.
		out = variable.New(variable.TypeInt64, outDims, v.Unit())
		countTrue(v.Bools(), out.Int64s(), outVol, nd, inner, proj)
	default:
		return nil, fmt.Errorf("%w: cannot sum %s elements", errs.ErrUnsupportedDType, v.DType())
	}

	return out, nil
}

// SumInto reduces v along dim into the caller-supplied output, which must
// have the reduced shape and the dtype Sum would produce. Boolean input
// requires an int64 output.
func SumInto(v *variable.Variable, dim string, masks map[string]*variable.Variable, out *variable.Variable) error {
	if v.DType() == variable.TypeBool && out.DType() != variable.TypeInt64 {
		return fmt.Errorf("%w: sum of bool data must be stored in an int64 output, got %s",
			errs.ErrUnitMismatch, out.DType())
	}
	want := v.Dims().Erase(dim)
	if !out.Dims().Equal(want) {
		return fmt.Errorf("%w: output %s, expected %s after reducing %q",
			errs.ErrDimensionMismatch, out.Dims(), want, dim)
	}
	res, err := Sum(v, dim, masks)
	if err != nil {
		return err
	}
	if res.DType() != out.DType() {
		return fmt.Errorf("%w: output is %s, sum produces %s",
			errs.ErrDTypeMismatch, out.DType(), res.DType())
	}
	copyValues(out, res)

	return nil
}

// maskCounts returns the per-output-cell number of masked positions along
// dim, or nil when no mask touches dim.
func maskCounts(v *variable.Variable, dim string, masks map[string]*variable.Variable) []int64 {
	mask := data.MaskUnion(masks, dim)
	if mask == nil {
		return nil
	}
	_, outer, nd, inner := sumDims(v, dim)
	outVol := outer * inner
	counts := make([]int64, outVol)
	countMasked(newMaskProjection(v.Dims(), mask), counts, outVol, nd, inner, v.Len())

	return counts
}

// Mean reduces v along dim like Sum and divides by the number of unmasked
// elements, i.e. extent(dim) minus the per-cell masked count. Integer input
// promotes to float64 for the division.
func Mean(v *variable.Variable, dim string, masks map[string]*variable.Variable) (*variable.Variable, error) {
	summed, err := Sum(v, dim, masks)
	if err != nil {
		return nil, err
	}
	counts := maskCounts(v, dim, masks)
	nd := int64(v.Dims().Size(dim))
	denom := func(o int) float64 {
		n := nd
		if counts != nil {
			n -= counts[o]
		}
		return float64(n)
	}

	switch summed.DType() {
	case variable.TypeFloat64:
		vals := summed.Float64s()
		for o := range vals {
			vals[o] /= denom(o)
		}
		if vars := summed.Float64Variances(); vars != nil {
			for o := range vars {
				d := denom(o)
				vars[o] /= d * d
			}
		}
		return summed, nil
	case variable.TypeFloat32:
		vals := summed.Float32s()
		for o := range vals {
			vals[o] /= float32(denom(o))
		}
		if vars := summed.Float32Variances(); vars != nil {
			for o := range vars {
				d := float32(denom(o))
				vars[o] /= d * d
			}
		}
		return summed, nil
	default:
		// Integer (and widened bool) sums promote for the division.
		out := variable.New(variable.TypeFloat64, summed.Dims(), summed.Unit())
		vals := out.Float64s()
		switch summed.DType() {
		case variable.TypeInt64:
			for o, s := range summed.Int64s() {
				vals[o] = float64(s) / denom(o)
			}
		case variable.TypeInt32:
			for o, s := range summed.Int32s() {
				vals[o] = float64(s) / denom(o)
			}
		case variable.TypeIndex:
			for o, s := range summed.Indexes() {
				vals[o] = float64(s) / denom(o)
			}
		default:
			return nil, fmt.Errorf("%w: cannot average %s elements",
				errs.ErrUnsupportedDType, summed.DType())
		}
		return out, nil
	}
}

// MeanInto computes Mean into a caller-supplied output. The output dtype
// must be floating point: a mean cannot be stored in an integer buffer.
func MeanInto(v *variable.Variable, dim string, masks map[string]*variable.Variable, out *variable.Variable) error {
	if !out.DType().IsFloat() {
		return fmt.Errorf("%w: cannot calculate mean in-place into integer output %s",
			errs.ErrUnitMismatch, out.DType())
	}
	want := v.Dims().Erase(dim)
	if !out.Dims().Equal(want) {
		return fmt.Errorf("%w: output %s, expected %s after reducing %q",
			errs.ErrDimensionMismatch, out.Dims(), want, dim)
	}
	res, err := Mean(v, dim, masks)
	if err != nil {
		return err
	}
	if res.DType() != out.DType() {
		return fmt.Errorf("%w: output is %s, mean produces %s",
			errs.ErrDTypeMismatch, out.DType(), res.DType())
	}
	copyValues(out, res)

	return nil
}

func copyValues(dst, src *variable.Variable) {
	switch dst.DType() {
	case variable.TypeFloat64:
		copy(dst.Float64s(), src.Float64s())
	case variable.TypeFloat32:
		copy(dst.Float32s(), src.Float32s())
	case variable.TypeInt64:
		copy(dst.Int64s(), src.Int64s())
	case variable.TypeInt32:
		copy(dst.Int32s(), src.Int32s())
	case variable.TypeIndex:
		copy(dst.Indexes(), src.Indexes())
	case variable.TypeBool:
		copy(dst.Bools(), src.Bools())
	}
}
