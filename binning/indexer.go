// Package binning groups unsorted event-like data into nested bins by one
// or more coordinate keys: continuous keys are binned by edges, discrete
// keys are grouped by value. The result is a bucketed (ragged) DataArray
// whose index table shape is one dimension per key.
//
// The pipeline is: per-key index finding → mixed-radix index combining →
// bin-size counting → offset building → cursor scatter → container
// assembly. Elements that fall outside every bin carry the sentinel index
// -1 and are dropped, never written to the output buffer.
package binning

import (
	"fmt"
	"math"
	"sort"

	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

// linspaceRelTol is the relative tolerance for detecting uniformly spaced
// edges. Edges produced by repeated addition of a step accumulate rounding
// on this order.
const linspaceRelTol = 1e-11

// NoBin is the sentinel index marking an element that belongs to no output
// bin or group.
const NoBin = -1

// isLinspace reports whether edges are uniformly spaced ascending and
// returns the step.
func isLinspace(edges []float64) (float64, bool) {
	n := len(edges)
	if n < 2 || edges[n-1] <= edges[0] {
		return 0, false
	}
	step := (edges[n-1] - edges[0]) / float64(n-1)
	tol := linspaceRelTol * math.Max(math.Abs(edges[0]), math.Abs(edges[n-1]))
	for i := 1; i < n; i++ {
		want := edges[0] + float64(i)*step
		if math.Abs(edges[i]-want) > tol {
			return 0, false
		}
	}

	return step, true
}

func sortedAscending(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return false
		}
	}

	return true
}

func sortedDescending(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if edges[i] >= edges[i-1] {
			return false
		}
	}

	return true
}

// edgeValues validates an edges variable (1-D, float64, at least two
// boundaries, no variances) and returns its values.
func edgeValues(edges *variable.Variable) ([]float64, error) {
	if edges.Dims().NDim() != 1 {
		return nil, fmt.Errorf("%w: bin edges must be 1-D, got %s",
			errs.ErrDimensionMismatch, edges.Dims())
	}
	if edges.DType() != variable.TypeFloat64 {
		return nil, fmt.Errorf("%w: bin edges must be float64, got %s",
			errs.ErrUnsupportedDType, edges.DType())
	}
	if edges.HasVariances() {
		return nil, fmt.Errorf("%w: bin edges for dimension %q carry variances",
			errs.ErrVariancesNotAllowed, edges.Dims().Outer())
	}
	e := edges.Float64s()
	if len(e) < 2 {
		return nil, fmt.Errorf("%w: need at least two bin edges along %q, got %d",
			errs.ErrNotBinEdges, edges.Dims().Outer(), len(e))
	}

	return e, nil
}

// coordAsFloat64 returns a float64 view of a binning coordinate. Float32
// coordinates are widened; the comparator precision then matches the input
// precision because every float32 is exactly representable in float64.
func coordAsFloat64(coord *variable.Variable) ([]float64, bool) {
	switch coord.DType() {
	case variable.TypeFloat64:
		return coord.Float64s(), true
	case variable.TypeFloat32:
		src := coord.Float32s()
		out := make([]float64, len(src))
		for i, v := range src {
			out[i] = float64(v)
		}
		return out, true
	default:
		return nil, false
	}
}

// BinIndices computes, for every element of coord, the index of the bin it
// falls into given the edges, or NoBin for out-of-range elements. Bins are
// half-open: for ascending edges, element x lands in bin i when
// e[i] <= x < e[i+1]; the comparator is reversed for descending edges.
//
// Uniformly spaced ascending edges take the O(1) linspace path; otherwise a
// binary search per element is used and the edges must be strictly sorted.
// Elements are independent, so the pass is parallelized per element range.
func BinIndices(coord, edges *variable.Variable) (*variable.Variable, error) {
	e, err := edgeValues(edges)
	if err != nil {
		return nil, err
	}
	x, ok := coordAsFloat64(coord)
	if !ok {
		return nil, fmt.Errorf("%w: cannot bin %s coordinate by edges",
			errs.ErrUnsupportedDType, coord.DType())
	}

	out := make([]int, len(x))
	nbins := len(e) - 1

	if step, linear := isLinspace(e); linear {
		low := e[0]
		_ = parallel.For(len(x), 0, func(begin, end int) error {
			for i := begin; i < end; i++ {
				bin := int(math.Floor((x[i] - low) / step))
				if bin < 0 || bin >= nbins {
					bin = NoBin
				}
				out[i] = bin
			}
			return nil
		})

		return variable.NewIndex(coord.Dims(), out), nil
	}

	ascending := sortedAscending(e)
	if !ascending && !sortedDescending(e) {
		return nil, fmt.Errorf("%w: edges along %q must be strictly ascending or descending",
			errs.ErrBinEdgesNotSorted, edges.Dims().Outer())
	}

	_ = parallel.For(len(x), 0, func(begin, end int) error {
		for i := begin; i < end; i++ {
			out[i] = searchBin(e, x[i], ascending)
		}
		return nil
	})

	return variable.NewIndex(coord.Dims(), out), nil
}

// searchBin finds the half-open bin containing x via binary search, or
// NoBin when x is outside the edge range. Ascending edges use
// e[i] <= x < e[i+1]; descending edges use the reversed comparator,
// e[i] >= x > e[i+1].
func searchBin(e []float64, x float64, ascending bool) int {
	nbins := len(e) - 1
	if ascending {
		if x < e[0] || x >= e[nbins] {
			return NoBin
		}
		// First edge strictly greater than x; the bin precedes it.
		return sort.Search(len(e), func(i int) bool { return e[i] > x }) - 1
	}
	if x > e[0] || x <= e[nbins] {
		return NoBin
	}
	// First edge strictly less than x; the bin precedes it.
	return sort.Search(len(e), func(i int) bool { return e[i] < x }) - 1
}
