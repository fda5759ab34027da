package binning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

func TestGroupIndices_Strings(t *testing.T) {
	coord := variable.NewStrings(dims.Of("event", 4), []string{"b", "a", "c", "a"})
	groups := variable.NewStrings(dims.Of("label", 2), []string{"a", "b"})

	idx, err := GroupIndices(coord, groups)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0, NoBin, 0}, idx.Indexes())
}

func TestGroupIndices_Int64(t *testing.T) {
	coord := variable.NewInt64(dims.Of("event", 5), unit.Dimensionless, []int64{7, 3, 7, 9, 3})
	groups := variable.NewInt64(dims.Of("id", 2), unit.Dimensionless, []int64{3, 7})

	idx, err := GroupIndices(coord, groups)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0, 1, NoBin, 0}, idx.Indexes())
}

func TestGroupIndices_Float64ExactEquality(t *testing.T) {
	coord := variable.NewFloat64(dims.Of("event", 3), unit.Meter, []float64{1.5, 1.5000000001, 2.5})
	groups := variable.NewFloat64(dims.Of("x", 2), unit.Meter, []float64{1.5, 2.5})

	idx, err := GroupIndices(coord, groups)
	require.NoError(t, err)
	// Matching is bit-exact; the nearby value does not match.
	require.Equal(t, []int{0, NoBin, 1}, idx.Indexes())
}

func TestGroupIndices_Errors(t *testing.T) {
	strCoord := variable.NewStrings(dims.Of("event", 1), []string{"a"})
	intGroups := variable.NewInt64(dims.Of("id", 1), unit.Dimensionless, []int64{1})

	_, err := GroupIndices(strCoord, intGroups)
	require.ErrorIs(t, err, errs.ErrDTypeMismatch)

	twoD := variable.NewStrings(dims.Of("a", 1, "b", 1), []string{"x"})
	_, err = GroupIndices(twoD, variable.NewStrings(dims.Of("g", 1), []string{"x"}))
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	withVar := variable.NewFloat64(dims.Of("event", 1), unit.Meter, []float64{1})
	require.NoError(t, withVar.SetVariances([]float64{1}))
	_, err = GroupIndices(withVar, variable.NewFloat64(dims.Of("g", 1), unit.Meter, []float64{1}))
	require.ErrorIs(t, err, errs.ErrVariancesNotAllowed)

	pairCoord := variable.NewIndexPairs(dims.Of("event", 1), []variable.IndexPair{{}})
	pairGroups := variable.NewIndexPairs(dims.Of("g", 1), []variable.IndexPair{{}})
	_, err = GroupIndices(pairCoord, pairGroups)
	require.ErrorIs(t, err, errs.ErrUnsupportedDType)
}
