// Package dims provides the ordered dimension-label bookkeeping used by
// ndbin arrays.
//
// A Dimensions value is an ordered list of (label, size) pairs describing a
// rectangular array in row-major order: the first label is the outermost
// (slowest-varying) dimension, the last label is the innermost
// (fastest-varying) one.
//
// Dimensions values are immutable; mutating operations return a new value.
package dims

import (
	"fmt"
	"slices"
	"strings"
)

// Dimensions describes the shape of a rectangular array as an ordered list
// of labeled extents. The zero value is an empty (scalar) shape.
type Dimensions struct {
	labels []string
	sizes  []int
}

// New creates a Dimensions from parallel label/size lists.
//
// Panics if the lists differ in length, a label repeats, or a size is
// negative. Shape construction errors are programmer errors, not runtime
// conditions.
func New(labels []string, sizes []int) Dimensions {
	if len(labels) != len(sizes) {
		panic(fmt.Sprintf("dims: %d labels but %d sizes", len(labels), len(sizes)))
	}
	for i, label := range labels {
		if sizes[i] < 0 {
			panic(fmt.Sprintf("dims: negative size %d for dimension %q", sizes[i], label))
		}
		if slices.Index(labels, label) != i {
			panic(fmt.Sprintf("dims: duplicate dimension %q", label))
		}
	}

	return Dimensions{labels: slices.Clone(labels), sizes: slices.Clone(sizes)}
}

// Of is a convenience constructor for alternating label, size pairs:
//
//	d := dims.Of("row", 4, "col", 3)
func Of(pairs ...any) Dimensions {
	if len(pairs)%2 != 0 {
		panic("dims: Of requires label, size pairs")
	}

	labels := make([]string, 0, len(pairs)/2)
	sizes := make([]int, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		label, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("dims: Of label at %d is not a string", i))
		}
		size, ok := pairs[i+1].(int)
		if !ok {
			panic(fmt.Sprintf("dims: Of size for %q is not an int", label))
		}
		labels = append(labels, label)
		sizes = append(sizes, size)
	}

	return New(labels, sizes)
}

// NDim returns the number of dimensions.
func (d Dimensions) NDim() int { return len(d.labels) }

// Empty reports whether the shape is scalar (no dimensions).
func (d Dimensions) Empty() bool { return len(d.labels) == 0 }

// Labels returns the dimension labels in order, outermost first.
// The returned slice must not be modified.
func (d Dimensions) Labels() []string { return d.labels }

// Sizes returns the dimension sizes in label order.
// The returned slice must not be modified.
func (d Dimensions) Sizes() []int { return d.sizes }

// Contains reports whether the shape has a dimension with the given label.
func (d Dimensions) Contains(label string) bool {
	return slices.Contains(d.labels, label)
}

// Index returns the position of label, or -1 if absent.
func (d Dimensions) Index(label string) int {
	return slices.Index(d.labels, label)
}

// Size returns the extent of the labeled dimension, or -1 if absent.
func (d Dimensions) Size(label string) int {
	i := d.Index(label)
	if i < 0 {
		return -1
	}

	return d.sizes[i]
}

// Inner returns the innermost (fastest-varying) dimension label.
// Panics on an empty shape.
func (d Dimensions) Inner() string {
	if d.Empty() {
		panic("dims: Inner of empty shape")
	}

	return d.labels[len(d.labels)-1]
}

// Outer returns the outermost (slowest-varying) dimension label.
// Panics on an empty shape.
func (d Dimensions) Outer() string {
	if d.Empty() {
		panic("dims: Outer of empty shape")
	}

	return d.labels[0]
}

// Volume returns the total element count, i.e. the product of all sizes.
// An empty shape has volume 1 (a scalar).
func (d Dimensions) Volume() int {
	v := 1
	for _, s := range d.sizes {
		v *= s
	}

	return v
}

// Includes reports whether every dimension of other appears in d with the
// same size. Order is not significant.
func (d Dimensions) Includes(other Dimensions) bool {
	for i, label := range other.labels {
		if d.Size(label) != other.sizes[i] {
			return false
		}
	}

	return true
}

// Equal reports whether d and other have identical labels, order and sizes.
func (d Dimensions) Equal(other Dimensions) bool {
	return slices.Equal(d.labels, other.labels) && slices.Equal(d.sizes, other.sizes)
}

// Resize returns a copy with the labeled dimension set to size.
// Panics if the label is absent.
func (d Dimensions) Resize(label string, size int) Dimensions {
	i := d.Index(label)
	if i < 0 {
		panic(fmt.Sprintf("dims: Resize of unknown dimension %q", label))
	}

	out := New(d.labels, d.sizes)
	out.sizes[i] = size

	return out
}

// Erase returns a copy without the labeled dimension.
// Panics if the label is absent.
func (d Dimensions) Erase(label string) Dimensions {
	i := d.Index(label)
	if i < 0 {
		panic(fmt.Sprintf("dims: Erase of unknown dimension %q", label))
	}

	labels := slices.Delete(slices.Clone(d.labels), i, i+1)
	sizes := slices.Delete(slices.Clone(d.sizes), i, i+1)

	return Dimensions{labels: labels, sizes: sizes}
}

// AddInner returns a copy with a new innermost dimension appended.
// Panics if the label already exists.
func (d Dimensions) AddInner(label string, size int) Dimensions {
	if d.Contains(label) {
		panic(fmt.Sprintf("dims: AddInner of existing dimension %q", label))
	}

	out := New(append(slices.Clone(d.labels), label), append(slices.Clone(d.sizes), size))

	return out
}

// Merge returns the concatenation of d and other, keeping d's order and
// appending dimensions of other that d lacks. Panics if a shared label has
// conflicting sizes.
func (d Dimensions) Merge(other Dimensions) Dimensions {
	labels := slices.Clone(d.labels)
	sizes := slices.Clone(d.sizes)
	for i, label := range other.labels {
		if j := slices.Index(labels, label); j >= 0 {
			if sizes[j] != other.sizes[i] {
				panic(fmt.Sprintf("dims: Merge size conflict for %q: %d vs %d",
					label, sizes[j], other.sizes[i]))
			}

			continue
		}
		labels = append(labels, label)
		sizes = append(sizes, other.sizes[i])
	}

	return Dimensions{labels: labels, sizes: sizes}
}

// Strides returns the row-major stride (in elements) of each dimension.
func (d Dimensions) Strides() []int {
	strides := make([]int, len(d.sizes))
	stride := 1
	for i := len(d.sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= d.sizes[i]
	}

	return strides
}

// Decompose splits the shape around the labeled dimension into
// (outer, extent, inner): the element count of all dimensions before it,
// the extent of the dimension itself, and the element count of all
// dimensions after it. A flat element offset is then
// (o*extent + k)*inner + i. Panics if the label is absent.
func (d Dimensions) Decompose(label string) (outer, extent, inner int) {
	idx := d.Index(label)
	if idx < 0 {
		panic(fmt.Sprintf("dims: Decompose of unknown dimension %q", label))
	}

	outer, inner = 1, 1
	for i, s := range d.sizes {
		switch {
		case i < idx:
			outer *= s
		case i > idx:
			inner *= s
		}
	}

	return outer, d.sizes[idx], inner
}

// String formats the shape as {label: size, ...}, outermost first.
func (d Dimensions) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, label := range d.labels {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d", label, d.sizes[i])
	}
	sb.WriteByte('}')

	return sb.String()
}
