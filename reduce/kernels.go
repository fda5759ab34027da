package reduce

import (
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

// smallOutput is the output volume below which parallel workers would share
// cache lines; such reductions partition the reduced dimension with private
// output copies instead of partitioning the output.
const smallOutput = 128

// maskProjection maps a flat element index of the input shape onto the
// corresponding element of a mask whose dimensions are a subset of the
// input's. A nil projection means "nothing masked".
type maskProjection struct {
	vals       []bool
	inStrides  []int
	mapStrides []int
}

func newMaskProjection(in dims.Dimensions, mask *variable.Variable) *maskProjection {
	if mask == nil {
		return nil
	}
	labels := in.Labels()
	mapStrides := make([]int, len(labels))
	for i, label := range labels {
		if j := mask.Dims().Index(label); j >= 0 {
			mapStrides[i] = mask.Dims().Strides()[j]
		}
	}

	return &maskProjection{vals: mask.Bools(), inStrides: in.Strides(), mapStrides: mapStrides}
}

func (p *maskProjection) masked(flat int) bool {
	if p == nil {
		return false
	}
	offset := 0
	for d, stride := range p.inStrides {
		pos := flat / stride
		flat %= stride
		offset += pos * p.mapStrides[d]
	}

	return p.vals[offset]
}

// sumSlices accumulates in into out over the reduced dimension using the
// work-partitioning decision procedure:
//
//  1. Small output (risk of false sharing, including scalar results):
//     partition the reduced dimension; every worker folds into a private
//     copy of the output, merged in a final single-threaded pass.
//  2. Small total input: not worth forking, run single-threaded.
//  3. Otherwise: partition the output range directly; each worker owns a
//     disjoint block of output cells, so no synchronization is needed.
//
// add folds input element flat (reduced position k) into output cell o.
func sumSlices[O any](outVol, nd, inner, inLen int, newOut func() []O, out []O,
	add func(out []O, o, flat int), merge func(into, from []O)) {
	flatOf := func(o, k int) int {
		// out cell o = (outerIdx*inner + innerIdx); input element is
		// ((outerIdx*nd)+k)*inner + innerIdx.
		return (o/inner*nd+k)*inner + o%inner
	}

	switch {
	case outVol < smallOutput && nd >= parallel.MinGrain*2:
		res := parallel.Accumulate(nd, parallel.Grain(nd), newOut,
			func(acc []O, begin, end int) {
				for k := begin; k < end; k++ {
					for o := 0; o < outVol; o++ {
						add(acc, o, flatOf(o, k))
					}
				}
			},
			merge)
		merge(out, res)
	case inLen < parallel.SerialThreshold:
		for o := 0; o < outVol; o++ {
			for k := 0; k < nd; k++ {
				add(out, o, flatOf(o, k))
			}
		}
	default:
		_ = parallel.For(outVol, 0, func(begin, end int) error {
			for o := begin; o < end; o++ {
				for k := 0; k < nd; k++ {
					add(out, o, flatOf(o, k))
				}
			}
			return nil
		})
	}
}

func sumNumeric[T int32 | int64 | int | float32 | float64](in []T, out []T, outVol, nd, inner int, proj *maskProjection) {
	sumSlices(outVol, nd, inner, len(in),
		func() []T { return make([]T, outVol) }, out,
		func(acc []T, o, flat int) {
			if !proj.masked(flat) {
				acc[o] += in[flat]
			}
		},
		func(into, from []T) {
			for i, v := range from {
				into[i] += v
			}
		})
}

// countMasked counts mask-covered positions per output cell, used for mean
// denominators.
func countMasked(proj *maskProjection, out []int64, outVol, nd, inner, inLen int) {
	sumSlices(outVol, nd, inner, inLen,
		func() []int64 { return make([]int64, outVol) }, out,
		func(acc []int64, o, flat int) {
			if proj.masked(flat) {
				acc[o]++
			}
		},
		func(into, from []int64) {
			for i, v := range from {
				into[i] += v
			}
		})
}

// countTrue counts unmasked true elements per output cell. Boolean sums
// are stored in int64 because a bool cannot represent a count of two.
func countTrue(in []bool, out []int64, outVol, nd, inner int, proj *maskProjection) {
	sumSlices(outVol, nd, inner, len(in),
		func() []int64 { return make([]int64, outVol) }, out,
		func(acc []int64, o, flat int) {
			if in[flat] && !proj.masked(flat) {
				acc[o]++
			}
		},
		func(into, from []int64) {
			for i, v := range from {
				into[i] += v
			}
		})
}
