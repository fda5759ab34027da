package reduce

import (
	"fmt"

	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

func sumRanges[T int32 | int64 | int | float32 | float64](in []T, pairs []variable.IndexPair, out []T) {
	_ = parallel.For(len(pairs), 0, func(begin, end int) error {
		for i := begin; i < end; i++ {
			var acc T
			for _, v := range in[pairs[i].Begin:pairs[i].End] {
				acc += v
			}
			out[i] = acc
		}
		return nil
	})
}

// SumBuckets sums the buffer data of every bucket, producing a dense array
// with the index-table shape. Boolean buffers count true elements into
// int64. Workers partition by bucket, so each output cell has exactly one
// writer.
func SumBuckets(b *data.Bucketed) (*variable.Variable, error) {
	buf := b.Buffer().Data()
	pairs := b.Indices().IndexPairs()
	outDims := b.Indices().Dims()

	switch buf.DType() {
	case variable.TypeFloat64:
		out := variable.New(variable.TypeFloat64, outDims, buf.Unit())
		sumRanges(buf.Float64s(), pairs, out.Float64s())
		if buf.HasVariances() {
			outVar := make([]float64, outDims.Volume())
			sumRanges(buf.Float64Variances(), pairs, outVar)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
		return out, nil
	case variable.TypeFloat32:
		out := variable.New(variable.TypeFloat32, outDims, buf.Unit())
		sumRanges(buf.Float32s(), pairs, out.Float32s())
		if buf.HasVariances() {
			outVar := make([]float32, outDims.Volume())
			sumRanges(buf.Float32Variances(), pairs, outVar)
			if err := out.SetVariances(outVar); err != nil {
				return nil, err
			}
		}
		return out, nil
	case variable.TypeInt64:
		out := variable.New(variable.TypeInt64, outDims, buf.Unit())
		sumRanges(buf.Int64s(), pairs, out.Int64s())
		return out, nil
	case variable.TypeInt32:
		out := variable.New(variable.TypeInt32, outDims, buf.Unit())
		sumRanges(buf.Int32s(), pairs, out.Int32s())
		return out, nil
	case variable.TypeIndex:
		out := variable.New(variable.TypeIndex, outDims, buf.Unit())
		sumRanges(buf.Indexes(), pairs, out.Indexes())
		return out, nil
	case variable.TypeBool:
		out := variable.New(variable.TypeInt64, outDims, buf.Unit())
		vals := buf.Bools()
		outVals := out.Int64s()
		_ = parallel.For(len(pairs), 0, func(begin, end int) error {
			for i := begin; i < end; i++ {
				var acc int64
				for _, v := range vals[pairs[i].Begin:pairs[i].End] {
					if v {
						acc++
					}
				}
				outVals[i] = acc
			}
			return nil
		})
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot sum %s bucket contents",
			errs.ErrUnsupportedDType, buf.DType())
	}
}
