package ndbin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/blob"
	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/format"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

// newEventTable builds a 5-event table with an "x" position and a discrete
// "label" coordinate.
func newEventTable(t *testing.T) *data.DataArray {
	t.Helper()
	rows := dims.Of("event", 5)
	table := data.New(variable.NewFloat64(rows, unit.Counts, []float64{1, 2, 3, 4, 5})).SetName("w")
	require.NoError(t, table.SetCoord("x",
		variable.NewFloat64(rows, unit.Meter, []float64{0.5, 1.5, 2.5, -1, 3.5})))
	require.NoError(t, table.SetCoord("label",
		variable.NewStrings(rows, []string{"b", "a", "c", "a", "b"})))

	return table
}

func TestBin_ByEdges(t *testing.T) {
	table := newEventTable(t)
	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})

	out, err := Bin(table, edges)
	require.NoError(t, err)
	require.True(t, out.IsBinned())
	require.True(t, out.Dims().Equal(dims.Of("x", 3)))
	require.Equal(t, []int{1, 1, 1}, out.Binned().BucketSizes().Indexes())
	require.Equal(t, []float64{1, 2, 3}, out.Binned().Buffer().Data().Float64s())
}

func TestGroup_ByLabels(t *testing.T) {
	table := newEventTable(t)
	groups := variable.NewStrings(dims.Of("label", 2), []string{"a", "b"})

	out, err := Group(table, groups)
	require.NoError(t, err)
	require.True(t, out.Dims().Equal(dims.Of("label", 2)))
	require.Equal(t, []int{2, 2}, out.Binned().BucketSizes().Indexes())
	require.Equal(t, []float64{2, 4, 1, 5}, out.Binned().Buffer().Data().Float64s())
}

func TestRebin_SplitsBinsAndMasks(t *testing.T) {
	hist := data.New(variable.NewFloat64(dims.Of("x", 2), unit.Counts, []float64{10, 20})).SetName("h")
	require.NoError(t, hist.SetCoord("x",
		variable.NewFloat64(dims.Of("x", 3), unit.Meter, []float64{0, 2, 4})))
	require.NoError(t, hist.SetMask("bad",
		variable.NewBool(dims.Of("x", 2), []bool{true, false})))
	require.NoError(t, hist.SetMask("global",
		variable.NewBool(dims.Dimensions{}, []bool{false})))
	hist.SetAttr("run", variable.NewInt64(dims.Dimensions{}, unit.Dimensionless, []int64{7}))

	newEdges := variable.NewFloat64(dims.Of("x", 5), unit.Meter, []float64{0, 1, 2, 3, 4})
	out, err := Rebin(hist, "x", newEdges)
	require.NoError(t, err)
	require.Equal(t, "h", out.Name())
	require.Equal(t, []float64{5, 5, 10, 10}, out.Data().Float64s())

	coord, err := out.Coord("x")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3, 4}, coord.Float64s())
	require.False(t, coord.SameStorage(newEdges))

	// A new bin is masked if any contributing old bin was.
	require.Equal(t, []bool{true, true, false, false}, out.Masks()["bad"].Bools())
	require.Equal(t, []bool{false}, out.Masks()["global"].Bools())
	require.Equal(t, []int64{7}, out.Attrs()["run"].Int64s())

	// The input is left untouched.
	require.Equal(t, []float64{10, 20}, hist.Data().Float64s())
}

func TestRebin_RejectsBinned(t *testing.T) {
	table := newEventTable(t)
	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
	binned, err := Bin(table, edges)
	require.NoError(t, err)

	_, err = Rebin(binned, "x", edges)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestRebin_MissingEdgeCoord(t *testing.T) {
	hist := data.New(variable.NewFloat64(dims.Of("x", 2), unit.Counts, []float64{10, 20}))
	newEdges := variable.NewFloat64(dims.Of("x", 3), unit.Meter, []float64{0, 1, 2})

	_, err := Rebin(hist, "x", newEdges)
	require.Error(t, err)
}

func TestSum_AppliesMasksAndKeepsIndependentMetadata(t *testing.T) {
	shape := dims.Of("x", 2, "y", 3)
	hist := data.New(variable.NewFloat64(shape, unit.Counts, []float64{1, 2, 3, 4, 5, 6})).SetName("h")
	require.NoError(t, hist.SetMask("noisy",
		variable.NewBool(dims.Of("y", 3), []bool{false, true, false})))
	require.NoError(t, hist.SetMask("dead",
		variable.NewBool(dims.Of("x", 2), []bool{false, false})))
	require.NoError(t, hist.SetCoord("x",
		variable.NewFloat64(dims.Of("x", 2), unit.Meter, []float64{0, 1})))
	require.NoError(t, hist.SetCoord("y",
		variable.NewFloat64(dims.Of("y", 3), unit.Second, []float64{0, 1, 2})))

	out, err := Sum(hist, "y")
	require.NoError(t, err)
	require.Equal(t, "h", out.Name())
	require.True(t, out.Dims().Equal(dims.Of("x", 2)))

	// The masked y=1 column contributes zero.
	require.Equal(t, []float64{4, 10}, out.Data().Float64s())

	// Metadata along y is consumed; the rest is carried.
	_, err = out.Coord("y")
	require.Error(t, err)
	x, err := out.Coord("x")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1}, x.Float64s())
	require.NotContains(t, out.Masks(), "noisy")
	require.Equal(t, []bool{false, false}, out.Masks()["dead"].Bools())
}

func TestSum_RejectsBinned(t *testing.T) {
	table := newEventTable(t)
	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
	binned, err := Bin(table, edges)
	require.NoError(t, err)

	_, err = Sum(binned, "x")
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestMean_ExcludesMaskedFromDenominator(t *testing.T) {
	hist := data.New(variable.NewFloat64(dims.Of("x", 4), unit.Counts, []float64{1, 2, 3, 4}))
	require.NoError(t, hist.SetMask("noisy",
		variable.NewBool(dims.Of("x", 4), []bool{false, true, false, true})))

	out, err := Mean(hist, "x")
	require.NoError(t, err)
	require.True(t, out.Dims().Empty())
	require.Equal(t, []float64{2}, out.Data().Float64s())
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	table := newEventTable(t)
	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
	binned, err := Bin(table, edges)
	require.NoError(t, err)

	raw, err := Snapshot(binned, blob.WithCompression(format.CompressionS2))
	require.NoError(t, err)

	restored, err := Restore(raw)
	require.NoError(t, err)
	require.True(t, restored.IsBinned())
	require.Equal(t, binned.Name(), restored.Name())
	require.True(t, restored.Dims().Equal(binned.Dims()))
	require.Equal(t,
		binned.Binned().BucketSizes().Indexes(),
		restored.Binned().BucketSizes().Indexes())
	require.Equal(t,
		binned.Binned().Buffer().Data().Float64s(),
		restored.Binned().Buffer().Data().Float64s())

	coord, err := restored.Coord("x")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3}, coord.Float64s())
}

func TestSnapshot_InvalidOption(t *testing.T) {
	table := newEventTable(t)
	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
	binned, err := Bin(table, edges)
	require.NoError(t, err)

	_, err = Snapshot(binned, blob.WithCompression(format.CompressionType(0x7f)))
	require.Error(t, err)
}
