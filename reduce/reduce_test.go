package reduce

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

func boolMask(d dims.Dimensions, values ...bool) map[string]*variable.Variable {
	return map[string]*variable.Variable{"m": variable.NewBool(d, values)}
}

func TestSum_NoMask(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})

	out, err := Sum(v, "y", nil)
	require.NoError(t, err)
	require.True(t, out.Dims().Equal(dims.Of("x", 2)))
	require.Equal(t, unit.Counts, out.Unit())
	require.Equal(t, []float64{6, 15}, out.Float64s())

	out, err = Sum(v, "x", nil)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 7, 9}, out.Float64s())
}

func TestSum_MaskedElementsContributeZero(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})
	masks := boolMask(dims.Of("y", 3), false, true, false)

	out, err := Sum(v, "y", masks)
	require.NoError(t, err)
	require.Equal(t, []float64{4, 10}, out.Float64s())
}

func TestSum_MaskNotTouchingDimIsIgnored(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})
	masks := boolMask(dims.Of("x", 2), true, false)

	// The mask lacks y, so summing over y applies no mask.
	out, err := Sum(v, "y", masks)
	require.NoError(t, err)
	require.Equal(t, []float64{6, 15}, out.Float64s())
}

func TestSum_Variances(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 3), unit.Counts, []float64{1, 2, 3})
	require.NoError(t, v.SetVariances([]float64{0.1, 0.2, 0.3}))

	out, err := Sum(v, "x", nil)
	require.NoError(t, err)
	require.True(t, out.Dims().Empty())
	require.Equal(t, []float64{6}, out.Float64s())
	require.InDelta(t, 0.6, out.Float64Variances()[0], 1e-12)
}

func TestSum_BoolWidensToInt64(t *testing.T) {
	v := variable.NewBool(dims.Of("x", 2, "y", 3),
		[]bool{true, true, false, true, true, true})

	out, err := Sum(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, variable.TypeInt64, out.DType())
	require.Equal(t, []int64{2, 3}, out.Int64s())
}

func TestSum_IntDTypes(t *testing.T) {
	i64 := variable.NewInt64(dims.Of("x", 3), unit.Counts, []int64{1, 2, 3})
	out, err := Sum(i64, "x", nil)
	require.NoError(t, err)
	require.Equal(t, []int64{6}, out.Int64s())

	i32 := variable.NewInt32(dims.Of("x", 3), unit.Counts, []int32{1, 2, 3})
	out, err = Sum(i32, "x", nil)
	require.NoError(t, err)
	require.Equal(t, []int32{6}, out.Int32s())
}

func TestSum_LargeInputMatchesSerial(t *testing.T) {
	// Past SerialThreshold the parallel path partitions output cells.
	const nx, ny = 300, 400
	values := make([]float64, nx*ny)
	want := make([]float64, nx)
	for i := range values {
		values[i] = float64(i % 17)
		want[i/ny] += values[i]
	}
	v := variable.NewFloat64(dims.Of("x", nx, "y", ny), unit.Counts, values)

	out, err := Sum(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, want, out.Float64s())
}

func TestSum_ScalarOutputUsesPrivateAccumulators(t *testing.T) {
	// Reducing a 1-D array to a scalar exercises the small-output path.
	const n = 100_000
	values := make([]float64, n)
	var want float64
	for i := range values {
		values[i] = float64(i % 5)
		want += values[i]
	}
	v := variable.NewFloat64(dims.Of("x", n), unit.Counts, values)

	out, err := Sum(v, "x", nil)
	require.NoError(t, err)
	require.Equal(t, want, out.Float64s()[0])
}

func TestSum_Errors(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2), unit.Counts, []float64{1, 2})

	_, err := Sum(v, "z", nil)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	// Mask larger than the data.
	masks := boolMask(dims.Of("x", 2, "y", 2), false, false, false, false)
	_, err = Sum(v, "x", masks)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	strs := variable.NewStrings(dims.Of("x", 2), []string{"a", "b"})
	_, err = Sum(strs, "x", nil)
	require.ErrorIs(t, err, errs.ErrUnsupportedDType)
}

func TestSumInto(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})
	out := variable.New(variable.TypeFloat64, dims.Of("x", 2), unit.Counts)

	require.NoError(t, SumInto(v, "y", nil, out))
	require.Equal(t, []float64{6, 15}, out.Float64s())
}

func TestSumInto_Errors(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts, make([]float64, 6))

	// Wrong output shape.
	bad := variable.New(variable.TypeFloat64, dims.Of("x", 3), unit.Counts)
	require.ErrorIs(t, SumInto(v, "y", nil, bad), errs.ErrDimensionMismatch)

	// Wrong output dtype.
	badType := variable.New(variable.TypeInt64, dims.Of("x", 2), unit.Counts)
	require.ErrorIs(t, SumInto(v, "y", nil, badType), errs.ErrDTypeMismatch)

	// Bool input needs an int64 output.
	b := variable.NewBool(dims.Of("x", 2, "y", 3), make([]bool, 6))
	boolOut := variable.New(variable.TypeBool, dims.Of("x", 2), unit.Dimensionless)
	require.ErrorIs(t, SumInto(b, "y", nil, boolOut), errs.ErrUnitMismatch)
}

func TestMean_NoMask(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})

	out, err := Mean(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 5}, out.Float64s())
}

func TestMean_DenominatorExcludesMasked(t *testing.T) {
	v := variable.NewFloat64(dims.Of("x", 2, "y", 3), unit.Counts,
		[]float64{1, 2, 3, 4, 5, 6})
	masks := boolMask(dims.Of("y", 3), false, true, false)

	// Per row the masked element is dropped from numerator and denominator:
	// (1+3)/2 and (4+6)/2.
	out, err := Mean(v, "y", masks)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 5}, out.Float64s())
}

func TestMean_Variances(t *testing.T) {
	v := variable.NewFloat64(dims.Of("y", 2), unit.Counts, []float64{2, 4})
	require.NoError(t, v.SetVariances([]float64{1, 3}))

	out, err := Mean(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, []float64{3}, out.Float64s())
	// Variance of the mean: sum of variances over n squared.
	require.InDelta(t, 1.0, out.Float64Variances()[0], 1e-12)
}

func TestMean_IntPromotesToFloat64(t *testing.T) {
	v := variable.NewInt64(dims.Of("y", 2), unit.Counts, []int64{1, 2})

	out, err := Mean(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, variable.TypeFloat64, out.DType())
	require.Equal(t, []float64{1.5}, out.Float64s())
}

func TestMean_BoolGivesFraction(t *testing.T) {
	v := variable.NewBool(dims.Of("y", 4), []bool{true, true, true, false})

	out, err := Mean(v, "y", nil)
	require.NoError(t, err)
	require.Equal(t, variable.TypeFloat64, out.DType())
	require.Equal(t, []float64{0.75}, out.Float64s())
}

func TestMeanInto(t *testing.T) {
	v := variable.NewInt64(dims.Of("x", 2, "y", 2), unit.Counts, []int64{1, 3, 5, 7})
	out := variable.New(variable.TypeFloat64, dims.Of("x", 2), unit.Counts)

	require.NoError(t, MeanInto(v, "y", nil, out))
	require.Equal(t, []float64{2, 6}, out.Float64s())
}

func TestMeanInto_IntegerOutputRejected(t *testing.T) {
	v := variable.NewFloat64(dims.Of("y", 2), unit.Counts, []float64{1, 2})
	out := variable.New(variable.TypeInt64, dims.Dimensions{}, unit.Counts)

	err := MeanInto(v, "y", nil, out)
	require.ErrorIs(t, err, errs.ErrUnitMismatch)
	require.Contains(t, err.Error(), "in-place into integer output")
}
