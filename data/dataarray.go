// Package data provides the labeled containers of ndbin: DataArray, a
// named data variable with coordinate, mask and attribute maps, and
// Bucketed, the ragged container produced by binning.
package data

import (
	"fmt"
	"maps"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/variable"
)

// DataArray associates a data variable with named coordinate, mask and
// attribute arrays. The data is either dense (a single Variable) or binned
// (a Bucketed container); exactly one of the two is set.
//
// Coordinates are keyed by the dimension (or name) they describe. Masks are
// boolean arrays where true means "excluded from reduction".
type DataArray struct {
	name   string
	dense  *variable.Variable
	binned *Bucketed
	coords map[string]*variable.Variable
	masks  map[string]*variable.Variable
	attrs  map[string]*variable.Variable
}

// New creates a DataArray over a dense data variable.
func New(data *variable.Variable) *DataArray {
	return &DataArray{
		dense:  data,
		coords: map[string]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		attrs:  map[string]*variable.Variable{},
	}
}

// NewBinned creates a DataArray over a bucketed container.
func NewBinned(binned *Bucketed) *DataArray {
	return &DataArray{
		binned: binned,
		coords: map[string]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		attrs:  map[string]*variable.Variable{},
	}
}

// Name returns the array name.
func (a *DataArray) Name() string { return a.name }

// SetName sets the array name and returns the array for chaining.
func (a *DataArray) SetName(name string) *DataArray {
	a.name = name
	return a
}

// IsBinned reports whether the data is a bucketed container.
func (a *DataArray) IsBinned() bool { return a.binned != nil }

// Data returns the dense data variable, or nil for binned arrays.
func (a *DataArray) Data() *variable.Variable { return a.dense }

// Binned returns the bucketed container, or nil for dense arrays.
func (a *DataArray) Binned() *Bucketed { return a.binned }

// Dims returns the logical shape: the data shape for dense arrays, the
// index-table shape for binned arrays.
func (a *DataArray) Dims() dims.Dimensions {
	if a.binned != nil {
		return a.binned.Indices().Dims()
	}

	return a.dense.Dims()
}

// Coords returns the coordinate map. The map is live; use SetCoord to add
// entries so dimension validation applies.
func (a *DataArray) Coords() map[string]*variable.Variable { return a.coords }

// Masks returns the mask map. The map is live; use SetMask to add entries.
func (a *DataArray) Masks() map[string]*variable.Variable { return a.masks }

// Attrs returns the attribute map.
func (a *DataArray) Attrs() map[string]*variable.Variable { return a.attrs }

// Coord returns the named coordinate, or an error naming the missing key.
func (a *DataArray) Coord(name string) (*variable.Variable, error) {
	c, ok := a.coords[name]
	if !ok {
		return nil, fmt.Errorf("%w: no coordinate %q", errs.ErrDimensionMismatch, name)
	}

	return c, nil
}

// SetCoord attaches a coordinate. The coordinate's dimensions must be
// resolvable against the array (bin-edge coordinates may exceed the data
// extent along their dimension by one).
func (a *DataArray) SetCoord(name string, coord *variable.Variable) error {
	if err := a.checkMetadataDims(name, coord, true); err != nil {
		return err
	}
	a.coords[name] = coord

	return nil
}

// SetMask attaches a named mask. Masks must be boolean and their dimensions
// must be a subset of the array's.
func (a *DataArray) SetMask(name string, mask *variable.Variable) error {
	if mask.DType() != variable.TypeBool {
		return fmt.Errorf("%w: mask %q must be bool, got %s",
			errs.ErrDTypeMismatch, name, mask.DType())
	}
	if err := a.checkMetadataDims(name, mask, false); err != nil {
		return err
	}
	a.masks[name] = mask

	return nil
}

// SetAttr attaches an attribute array. Attributes are free-form passengers;
// no dimension check applies.
func (a *DataArray) SetAttr(name string, attr *variable.Variable) {
	a.attrs[name] = attr
}

func (a *DataArray) checkMetadataDims(name string, v *variable.Variable, allowEdges bool) error {
	own := a.Dims()
	for i, label := range v.Dims().Labels() {
		size := v.Dims().Sizes()[i]
		if !own.Contains(label) {
			return fmt.Errorf("%w: %q has dimension %q not present in data %s",
				errs.ErrDimensionMismatch, name, label, own)
		}
		if own.Size(label) == size {
			continue
		}
		if allowEdges && own.Size(label)+1 == size {
			continue
		}

		return fmt.Errorf("%w: %q size %d along %q does not match data %s",
			errs.ErrDimensionMismatch, name, size, label, own)
	}

	return nil
}

// Copy returns a deep copy of the array, its data and all metadata.
func (a *DataArray) Copy() *DataArray {
	out := &DataArray{
		name:   a.name,
		coords: map[string]*variable.Variable{},
		masks:  map[string]*variable.Variable{},
		attrs:  map[string]*variable.Variable{},
	}
	if a.dense != nil {
		out.dense = a.dense.Copy()
	}
	if a.binned != nil {
		out.binned = a.binned.Copy()
	}
	for name, c := range a.coords {
		out.coords[name] = c.Copy()
	}
	for name, m := range a.masks {
		out.masks[name] = m.Copy()
	}
	for name, v := range a.attrs {
		out.attrs[name] = v.Copy()
	}

	return out
}

// ShareMetadataFrom aliases (does not copy) the metadata maps of src into a,
// skipping keys a already has. Used when an operation consumes src read-only
// and the produced array can safely share coordinate storage.
func (a *DataArray) ShareMetadataFrom(src *DataArray) {
	copyMissing := func(dst, from map[string]*variable.Variable) {
		for name, v := range from {
			if _, ok := dst[name]; ok {
				continue
			}
			if a.checkMetadataDims(name, v, true) == nil {
				dst[name] = v
			}
		}
	}
	copyMissing(a.coords, src.coords)
	copyMissing(a.masks, src.masks)
	maps.Copy(a.attrs, src.attrs)
}

// String returns a short description for diagnostics.
func (a *DataArray) String() string {
	kind := "dense"
	if a.IsBinned() {
		kind = "binned"
	}

	return fmt.Sprintf("DataArray(%q, %s, %s, %d coords, %d masks)",
		a.name, kind, a.Dims(), len(a.coords), len(a.masks))
}
