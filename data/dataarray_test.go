package data

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

func newTestArray(t *testing.T) *DataArray {
	t.Helper()
	d := dims.Of("x", 3)
	a := New(variable.NewFloat64(d, unit.Counts, []float64{1, 2, 3})).SetName("counts")
	require.NoError(t, a.SetCoord("x", variable.NewFloat64(d, unit.Meter, []float64{0.5, 1.5, 2.5})))

	return a
}

func TestDataArray_New(t *testing.T) {
	a := newTestArray(t)

	require.Equal(t, "counts", a.Name())
	require.False(t, a.IsBinned())
	require.Nil(t, a.Binned())
	require.True(t, a.Dims().Equal(dims.Of("x", 3)))
}

func TestDataArray_Coord_Missing(t *testing.T) {
	a := newTestArray(t)

	_, err := a.Coord("y")
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	c, err := a.Coord("x")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 1.5, 2.5}, c.Float64s())
}

func TestDataArray_SetCoord_AllowsBinEdges(t *testing.T) {
	a := newTestArray(t)

	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
	require.NoError(t, a.SetCoord("x", edges))
}

func TestDataArray_SetCoord_RejectsBadShapes(t *testing.T) {
	a := newTestArray(t)

	// Unknown dimension.
	err := a.SetCoord("y", variable.NewFloat64(dims.Of("y", 3), unit.Meter, make([]float64, 3)))
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	// Wrong extent (neither size nor size+1).
	err = a.SetCoord("x", variable.NewFloat64(dims.Of("x", 5), unit.Meter, make([]float64, 5)))
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestDataArray_SetMask(t *testing.T) {
	a := newTestArray(t)

	require.NoError(t, a.SetMask("bad", variable.NewBool(dims.Of("x", 3), []bool{false, true, false})))

	// Masks must be boolean.
	err := a.SetMask("bad", variable.NewInt64(dims.Of("x", 3), unit.Counts, []int64{0, 1, 0}))
	require.ErrorIs(t, err, errs.ErrDTypeMismatch)

	// Masks cannot be edge-sized.
	err = a.SetMask("edges", variable.NewBool(dims.Of("x", 4), make([]bool, 4)))
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestDataArray_Copy_IsDeep(t *testing.T) {
	a := newTestArray(t)
	require.NoError(t, a.SetMask("m", variable.NewBool(dims.Of("x", 3), []bool{true, false, false})))
	a.SetAttr("comment", variable.NewStrings(dims.Dimensions{}, []string{"hi"}))

	c := a.Copy()
	c.Data().Float64s()[0] = 99
	c.Coords()["x"].Float64s()[0] = 99
	c.Masks()["m"].Bools()[0] = false

	require.Equal(t, 1.0, a.Data().Float64s()[0])
	require.Equal(t, 0.5, a.Coords()["x"].Float64s()[0])
	require.True(t, a.Masks()["m"].Bools()[0])
	require.Len(t, c.Attrs(), 1)
}

func TestDataArray_ShareMetadataFrom(t *testing.T) {
	src := newTestArray(t)
	require.NoError(t, src.SetMask("m", variable.NewBool(dims.Of("x", 3), []bool{true, false, false})))

	dst := New(variable.NewFloat64(dims.Of("x", 3), unit.Counts, make([]float64, 3)))
	require.NoError(t, dst.SetCoord("x", variable.NewFloat64(dims.Of("x", 3), unit.Meter, []float64{9, 9, 9})))
	dst.ShareMetadataFrom(src)

	// Existing keys are kept, missing ones are aliased (not copied).
	require.Equal(t, []float64{9, 9, 9}, dst.Coords()["x"].Float64s())
	require.True(t, dst.Masks()["m"].SameStorage(src.Masks()["m"]))
}

func TestDataArray_ShareMetadataFrom_SkipsIncompatible(t *testing.T) {
	src := New(variable.NewFloat64(dims.Of("y", 4), unit.Counts, make([]float64, 4)))
	require.NoError(t, src.SetCoord("y", variable.NewFloat64(dims.Of("y", 4), unit.Meter, make([]float64, 4))))

	dst := New(variable.NewFloat64(dims.Of("x", 3), unit.Counts, make([]float64, 3)))
	dst.ShareMetadataFrom(src)

	require.Empty(t, dst.Coords())
}

func TestDataArray_String(t *testing.T) {
	a := newTestArray(t)
	require.Contains(t, a.String(), "dense")
	require.Contains(t, a.String(), "counts")
}
