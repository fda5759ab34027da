// Package ndbin provides labeled multi-dimensional arrays with event
// binning, grouping, rebinning and masked reductions.
//
// Data lives in variables: dense n-dimensional arrays with named
// dimensions, a unit and an element type, optionally carrying variances.
// A data array pairs a variable with coordinates, masks and attributes.
// Binning turns a flat table of events into a binned array whose buckets
// are index ranges into a shared flat buffer, so no event data is copied
// when slicing or re-binning.
//
// # Core Operations
//
//   - Bin events by coordinate value against bin edges
//   - Group events by discrete label values
//   - Rebin histogrammed data onto new bin edges, conserving totals
//   - Sum and Mean reductions that respect masks
//   - Snapshot/Restore binned arrays to a compact binary blob
//
// # Basic Usage
//
// Binning a table of events by one coordinate:
//
//	import (
//	    "github.com/arloliu/ndbin"
//	    "github.com/arloliu/ndbin/data"
//	    "github.com/arloliu/ndbin/dims"
//	    "github.com/arloliu/ndbin/unit"
//	    "github.com/arloliu/ndbin/variable"
//	)
//
//	events := dims.Of("event", 5)
//	table := data.New(variable.NewFloat64(events, unit.Counts, weights))
//	table.SetCoord("x", variable.NewFloat64(events, unit.Meter, positions))
//
//	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
//	binned, err := ndbin.Bin(table, edges)
//
// Reducing with masks applied:
//
//	total, err := ndbin.Sum(histogram, "x")
//
// This package provides convenient top-level wrappers around the binning,
// rebin, reduce and blob packages, simplifying the most common use cases.
// For advanced usage and fine-grained control, use those packages directly.
package ndbin

import (
	"fmt"

	"github.com/arloliu/ndbin/binning"
	"github.com/arloliu/ndbin/blob"
	"github.com/arloliu/ndbin/data"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/rebin"
	"github.com/arloliu/ndbin/reduce"
	"github.com/arloliu/ndbin/variable"
)

// Bin bins the events of a data array by coordinate value. Each edges
// variable is 1-D along the dimension it bins; the array must carry a
// per-event coordinate of the same name. Events outside the edges are
// dropped.
//
// The input may be dense (a flat event table) or already binned; binning a
// binned array re-buckets its events without copying the payload per event.
//
// For mixed edge/group binning or a custom output dimension order, use
// binning.Bin directly.
//
// Example:
//
//	edges := variable.NewFloat64(dims.Of("x", 4), unit.Meter, []float64{0, 1, 2, 3})
//	binned, err := ndbin.Bin(table, edges)
func Bin(a *data.DataArray, edges ...*variable.Variable) (*data.DataArray, error) {
	return binning.Bin(a, edges, nil)
}

// Group groups the events of a data array by discrete coordinate value.
// Each groups variable lists the wanted labels, 1-D along the dimension it
// creates; events whose label is not listed are dropped.
//
// Example:
//
//	labels := variable.NewStrings(dims.Of("detector", 2), []string{"a", "b"})
//	grouped, err := ndbin.Group(table, labels)
func Group(a *data.DataArray, groups ...*variable.Variable) (*data.DataArray, error) {
	return binning.Bin(a, nil, groups)
}

// Rebin redistributes histogrammed counts of a dense data array onto new
// bin edges along dim, conserving totals. The array must carry bin-edge
// coordinates for dim; the result carries newEdges in their place.
// Masks that span dim are rebinned with a logical OR, so a new bin is
// masked if any contributing old bin was. Coordinates and attributes that
// depend on dim (other than the edges themselves) cannot be carried and
// are dropped.
func Rebin(a *data.DataArray, dim string, newEdges *variable.Variable) (*data.DataArray, error) {
	if a.IsBinned() {
		return nil, fmt.Errorf("%w: rebin requires dense data, bin the events with new edges instead", errs.ErrDimensionMismatch)
	}
	oldEdges, err := a.Coord(dim)
	if err != nil {
		return nil, err
	}

	rebinned, err := rebin.Rebin(a.Data(), dim, oldEdges, newEdges)
	if err != nil {
		return nil, err
	}

	out := data.New(rebinned).SetName(a.Name())
	if err := out.SetCoord(dim, newEdges.Copy()); err != nil {
		return nil, err
	}
	for name, m := range a.Masks() {
		if !m.Dims().Contains(dim) {
			_ = out.SetMask(name, m.Copy())
			continue
		}
		rm, err := rebin.Rebin(m, dim, oldEdges, newEdges)
		if err != nil {
			return nil, fmt.Errorf("mask %q: %w", name, err)
		}
		if err := out.SetMask(name, rm); err != nil {
			return nil, fmt.Errorf("mask %q: %w", name, err)
		}
	}
	copyIndependentMetadata(out, a, dim)

	return out, nil
}

// Sum reduces a dense data array over dim, applying the array's masks.
// Masked elements contribute zero. Boolean data sums to int64 counts.
// Metadata that depends on dim is consumed by the reduction and dropped.
func Sum(a *data.DataArray, dim string) (*data.DataArray, error) {
	return reduceArray(a, dim, reduce.Sum)
}

// Mean reduces a dense data array over dim, applying the array's masks.
// Each output element is divided by its count of unmasked inputs; integer
// and boolean data promote to float64. Metadata that depends on dim is
// dropped.
func Mean(a *data.DataArray, dim string) (*data.DataArray, error) {
	return reduceArray(a, dim, reduce.Mean)
}

func reduceArray(a *data.DataArray, dim string, op func(*variable.Variable, string, map[string]*variable.Variable) (*variable.Variable, error)) (*data.DataArray, error) {
	if a.IsBinned() {
		return nil, fmt.Errorf("%w: reduction requires dense data, concatenate or sum the buckets first", errs.ErrDimensionMismatch)
	}
	reduced, err := op(a.Data(), dim, a.Masks())
	if err != nil {
		return nil, err
	}

	out := data.New(reduced).SetName(a.Name())
	for name, m := range a.Masks() {
		if !m.Dims().Contains(dim) {
			_ = out.SetMask(name, m.Copy())
		}
	}
	copyIndependentMetadata(out, a, dim)

	return out, nil
}

// copyIndependentMetadata copies coords and attrs that do not depend on dim.
func copyIndependentMetadata(dst, src *data.DataArray, dim string) {
	for name, c := range src.Coords() {
		if name != dim && !c.Dims().Contains(dim) {
			_ = dst.SetCoord(name, c.Copy())
		}
	}
	for name, at := range src.Attrs() {
		if !at.Dims().Contains(dim) {
			dst.SetAttr(name, at.Copy())
		}
	}
}

// Snapshot serializes a binned data array into a compact binary blob.
//
// Available options:
//   - blob.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
//   - blob.WithLittleEndian() / blob.WithBigEndian()
//
// Example:
//
//	raw, err := ndbin.Snapshot(binned, blob.WithCompression(format.CompressionS2))
func Snapshot(a *data.DataArray, opts ...blob.Option) ([]byte, error) {
	encoder, err := blob.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return encoder.Encode(a)
}

// Restore deserializes a snapshot blob back into a binned data array.
// The blob's byte order and compression are detected from its header.
func Restore(raw []byte) (*data.DataArray, error) {
	return blob.NewDecoder().Decode(raw)
}
