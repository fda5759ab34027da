package data

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/unit"
	"github.com/arloliu/ndbin/variable"
)

// newTestBucketed builds a 3-bucket container over a 6-row event table:
// bucket 0 holds rows 0-1, bucket 1 rows 2-4, bucket 2 row 5.
func newTestBucketed(t *testing.T) *Bucketed {
	t.Helper()
	rows := dims.Of("event", 6)
	buffer := New(variable.NewFloat64(rows, unit.Counts, []float64{1, 2, 3, 4, 5, 6})).SetName("w")
	require.NoError(t, buffer.SetCoord("x", variable.NewFloat64(rows, unit.Meter, []float64{0, 1, 2, 3, 4, 5})))

	indices := variable.NewIndexPairs(dims.Of("x", 3), []variable.IndexPair{
		{Begin: 0, End: 2}, {Begin: 2, End: 5}, {Begin: 5, End: 6},
	})
	b, err := NewBucketed(indices, "event", buffer)
	require.NoError(t, err)

	return b
}

func TestBucketed_New_Validation(t *testing.T) {
	rows := dims.Of("event", 4)
	buffer := New(variable.NewFloat64(rows, unit.Counts, make([]float64, 4)))

	// Index table must be index pairs.
	_, err := NewBucketed(variable.NewIndex(dims.Of("x", 1), []int{0}), "event", buffer)
	require.ErrorIs(t, err, errs.ErrDTypeMismatch)

	// Buffer must contain the named dimension.
	_, err = NewBucketed(variable.NewIndexPairs(dims.Of("x", 1),
		[]variable.IndexPair{{Begin: 0, End: 4}}), "row", buffer)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	// Ranges must stay within the buffer extent.
	_, err = NewBucketed(variable.NewIndexPairs(dims.Of("x", 1),
		[]variable.IndexPair{{Begin: 0, End: 5}}), "event", buffer)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	// Ranges must be ordered.
	_, err = NewBucketed(variable.NewIndexPairs(dims.Of("x", 1),
		[]variable.IndexPair{{Begin: 3, End: 2}}), "event", buffer)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestBucketed_Accessors(t *testing.T) {
	b := newTestBucketed(t)

	require.Equal(t, 3, b.NumBuckets())
	require.Equal(t, "event", b.BufferDim())
	require.Equal(t, []int{2, 3, 1}, b.BucketSizes().Indexes())
	require.True(t, b.BucketSizes().Dims().Equal(dims.Of("x", 3)))
}

func TestBucketed_Bucket_Extract(t *testing.T) {
	b := newTestBucketed(t)

	mid, err := b.Bucket(1)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4, 5}, mid.Data().Float64s())
	require.Equal(t, []float64{2, 3, 4}, mid.Coords()["x"].Float64s())

	// Extraction copies; mutating the bucket leaves the buffer alone.
	mid.Data().Float64s()[0] = 99
	require.Equal(t, 3.0, b.Buffer().Data().Float64s()[2])

	_, err = b.Bucket(3)
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
}

func TestBucketed_Concat(t *testing.T) {
	b := newTestBucketed(t)

	flat, err := b.Concat()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat.Data().Float64s())
	require.Equal(t, []float64{0, 1, 2, 3, 4, 5}, flat.Coords()["x"].Float64s())
}

func TestBucketed_HideMasked(t *testing.T) {
	b := newTestBucketed(t)
	masks := map[string]*variable.Variable{
		"bad": variable.NewBool(dims.Of("x", 3), []bool{false, true, false}),
	}

	hidden := b.HideMasked(masks, []string{"x"})

	require.Equal(t, []int{2, 0, 1}, hidden.BucketSizes().Indexes())
	// The buffer is shared, only the index table changed.
	require.True(t, hidden.Buffer().Data().SameStorage(b.Buffer().Data()))

	// Concat of the hidden view drops the masked bucket's rows.
	flat, err := hidden.Concat()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 6}, flat.Data().Float64s())
}

func TestBucketed_HideMasked_NoMatchingMask(t *testing.T) {
	b := newTestBucketed(t)
	masks := map[string]*variable.Variable{
		"other": variable.NewBool(dims.Of("y", 2), []bool{true, true}),
	}

	hidden := b.HideMasked(masks, []string{"x"})
	require.Equal(t, []int{2, 3, 1}, hidden.BucketSizes().Indexes())
}

func TestBucketed_Copy_IsDeep(t *testing.T) {
	b := newTestBucketed(t)

	c := b.Copy()
	c.Buffer().Data().Float64s()[0] = 99
	require.Equal(t, 1.0, b.Buffer().Data().Float64s()[0])
	require.False(t, c.Buffer().Data().SameStorage(b.Buffer().Data()))
}
