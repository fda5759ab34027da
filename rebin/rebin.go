// Package rebin re-partitions dense histogram-like data from one set of
// bin edges to another. Each old bin contributes to every new bin it
// overlaps, weighted by the overlap fraction of the old bin's width;
// boolean data uses logical OR instead, since a flag has no fractional
// semantics.
package rebin

import (
	"fmt"
	"math"

	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

// overlap records one old/new bin intersection: the fraction of the old
// bin's width covered by the new bin.
type overlap struct {
	iold int
	inew int
	frac float64
}

// sweep walks both edge sets in their shared sort order with two pointers
// and emits every overlapping (old, new) bin pair. The merge is O(old+new);
// overlaps are emitted with inew non-decreasing.
func sweep(oldE, newE []float64, descending bool) []overlap {
	less := func(a, b float64) bool { return a < b }
	if descending {
		less = func(a, b float64) bool { return a > b }
	}
	minOf := func(a, b float64) float64 {
		if less(a, b) {
			return a
		}
		return b
	}
	maxOf := func(a, b float64) float64 {
		if less(a, b) {
			return b
		}
		return a
	}

	oldSize := len(oldE) - 1
	newSize := len(newE) - 1
	out := make([]overlap, 0, oldSize+newSize)
	iold, inew := 0, 0
	for iold < oldSize && inew < newSize {
		oldLow, oldHigh := oldE[iold], oldE[iold+1]
		newLow, newHigh := newE[inew], newE[inew+1]
		switch {
		case !less(oldLow, newHigh):
			inew++ // no overlap, new bin is behind
		case !less(newLow, oldHigh):
			iold++ // no overlap, old bin is behind
		default:
			delta := math.Abs(minOf(newHigh, oldHigh) - maxOf(newLow, oldLow))
			owidth := math.Abs(oldHigh - oldLow)
			out = append(out, overlap{iold: iold, inew: inew, frac: delta / owidth})
			// Advance whichever bin ends first; ties advance new.
			if less(oldHigh, newHigh) {
				iold++
			} else {
				inew++
			}
		}
	}

	return out
}

func checkEdges(v *variable.Variable, dim string, oldEdges, newEdges *variable.Variable) ([]float64, []float64, bool, error) {
	for _, edges := range []*variable.Variable{oldEdges, newEdges} {
		if edges.Dims().NDim() != 1 || edges.Dims().Outer() != dim {
			return nil, nil, false, fmt.Errorf("%w: rebin edges must be 1-D along %q, got %s",
				errs.ErrDimensionMismatch, dim, edges.Dims())
		}
		if edges.DType() != variable.TypeFloat64 {
			return nil, nil, false, fmt.Errorf("%w: rebin edges must be float64, got %s",
				errs.ErrUnsupportedDType, edges.DType())
		}
	}
	oldE := oldEdges.Float64s()
	newE := newEdges.Float64s()
	if len(oldE) != v.Dims().Size(dim)+1 {
		return nil, nil, false, fmt.Errorf(
			"%w: %d edges along %q do not enclose data extent %d",
			errs.ErrNotBinEdges, len(oldE), dim, v.Dims().Size(dim))
	}
	if len(newE) < 2 {
		return nil, nil, false, fmt.Errorf("%w: need at least two new edges along %q",
			errs.ErrNotBinEdges, dim)
	}

	ascending := isSortedAsc(oldE) && isSortedAsc(newE)
	if !ascending && !(isSortedDesc(oldE) && isSortedDesc(newE)) {
		return nil, nil, false, fmt.Errorf(
			"%w: old and new edges along %q must both be ascending or both descending",
			errs.ErrBinEdgesNotSorted, dim)
	}

	return oldE, newE, !ascending, nil
}

func isSortedAsc(e []float64) bool {
	for i := 1; i < len(e); i++ {
		if e[i] <= e[i-1] {
			return false
		}
	}
	return true
}

func isSortedDesc(e []float64) bool {
	for i := 1; i < len(e); i++ {
		if e[i] >= e[i-1] {
			return false
		}
	}
	return true
}

func applyFloat[T float32 | float64](in, out []T, inVar, outVar []T, overlaps []overlap, outer, oldSize, newSize, inner int) {
	// Parallel over outer slices: each worker writes a disjoint output
	// block, so no accumulator sharing occurs.
	_ = parallel.For(outer, 1+outer/parallel.MaxChunks, func(begin, end int) error {
		for o := begin; o < end; o++ {
			for _, ov := range overlaps {
				src := in[(o*oldSize+ov.iold)*inner:][:inner]
				dst := out[(o*newSize+ov.inew)*inner:][:inner]
				frac := T(ov.frac)
				for i := range dst {
					dst[i] += src[i] * frac
				}
				if outVar != nil {
					srcv := inVar[(o*oldSize+ov.iold)*inner:][:inner]
					dstv := outVar[(o*newSize+ov.inew)*inner:][:inner]
					for i := range dstv {
						dstv[i] += srcv[i] * frac * frac
					}
				}
			}
		}
		return nil
	})
}

// applyFloatInner is the gather form used when the rebinned dimension is
// innermost: overlaps are partitioned by output bin, each worker gathers
// the contributions of its new bins. Semantically identical to applyFloat,
// but the partitioning keeps writes disjoint without slicing outer blocks
// that do not exist.
func applyFloatInner[T float32 | float64](in, out []T, inVar, outVar []T, overlaps []overlap, newSize int) {
	// Overlaps arrive with inew non-decreasing; find each bin's run.
	starts := make([]int, newSize+1)
	pos := 0
	for b := 0; b < newSize; b++ {
		starts[b] = pos
		for pos < len(overlaps) && overlaps[pos].inew == b {
			pos++
		}
	}
	starts[newSize] = pos

	_ = parallel.For(newSize, 0, func(begin, end int) error {
		for b := begin; b < end; b++ {
			var acc, accVar T
			for _, ov := range overlaps[starts[b]:starts[b+1]] {
				acc += in[ov.iold] * T(ov.frac)
				if inVar != nil {
					accVar += inVar[ov.iold] * T(ov.frac) * T(ov.frac)
				}
			}
			out[b] = acc
			if outVar != nil {
				outVar[b] = accVar
			}
		}
		return nil
	})
}

func applyBool(in, out []bool, overlaps []overlap, outer, oldSize, newSize, inner int) {
	_ = parallel.For(outer, 1+outer/parallel.MaxChunks, func(begin, end int) error {
		for o := begin; o < end; o++ {
			for _, ov := range overlaps {
				src := in[(o*oldSize+ov.iold)*inner:][:inner]
				dst := out[(o*newSize+ov.inew)*inner:][:inner]
				for i := range dst {
					dst[i] = dst[i] || src[i]
				}
			}
		}
		return nil
	})
}

// Rebin redistributes v's values along dim from the partition described by
// oldEdges to the one described by newEdges.
//
// Preconditions: v must carry a count-like or dimensionless unit, oldEdges
// must be genuine bin edges for v's extent along dim, and both edge sets
// must be sorted in the same direction (either both ascending or both
// descending). Weighted rebinning supports float64 and float32 data;
// boolean data is combined with logical OR ("was any overlapping old bin
// set"). Variances, when present, accumulate with the squared weight.
//
// The input is never mutated.
func Rebin(v *variable.Variable, dim string, oldEdges, newEdges *variable.Variable) (*variable.Variable, error) {
	if !v.Unit().CountsCompatible() {
		return nil, fmt.Errorf("%w: rebin requires counts or dimensionless data, got %s",
			errs.ErrUnitMismatch, v.Unit())
	}
	if !v.Dims().Contains(dim) {
		return nil, fmt.Errorf("%w: data %s has no dimension %q",
			errs.ErrDimensionMismatch, v.Dims(), dim)
	}
	oldE, newE, descending, err := checkEdges(v, dim, oldEdges, newEdges)
	if err != nil {
		return nil, err
	}

	overlaps := sweep(oldE, newE, descending)
	outer, oldSize, inner := v.Dims().Decompose(dim)
	newSize := len(newE) - 1
	outDims := v.Dims().Resize(dim, newSize)
	out := variable.New(v.DType(), outDims, v.Unit())

	switch v.DType() {
	case variable.TypeFloat64:
		var inVar, outVar []float64
		if v.HasVariances() {
			inVar = v.Float64Variances()
			outVar = make([]float64, outDims.Volume())
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
		if inner == 1 && outer == 1 {
			applyFloatInner(v.Float64s(), out.Float64s(), inVar, outVar, overlaps, newSize)
		} else {
			applyFloat(v.Float64s(), out.Float64s(), inVar, outVar, overlaps, outer, oldSize, newSize, inner)
		}
	case variable.TypeFloat32:
		var inVar, outVar []float32
		if v.HasVariances() {
			inVar = v.Float32Variances()
			outVar = make([]float32, outDims.Volume())
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
		if inner == 1 && outer == 1 {
			applyFloatInner(v.Float32s(), out.Float32s(), inVar, outVar, overlaps, newSize)
		} else {
			applyFloat(v.Float32s(), out.Float32s(), inVar, outVar, overlaps, outer, oldSize, newSize, inner)
		}
	case variable.TypeBool:
		applyBool(v.Bools(), out.Bools(), overlaps, outer, oldSize, newSize, inner)
	default:
		return nil, fmt.Errorf("%w: rebinning is possible only for float64, float32 and bool data, got %s",
			errs.ErrUnsupportedDType, v.DType())
	}

	return out, nil
}
