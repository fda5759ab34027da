// Package variable provides the dense, typed, unit-tagged N-dimensional
// array underlying all ndbin operations.
//
// A Variable owns a rectangular row-major buffer of one of a closed set of
// element types (see DType), an optional same-shape variances buffer for
// floating-point data, a physical unit tag and labeled dimensions.
//
// Typed accessors such as Float64s panic on a dtype mismatch: reaching into
// the wrong buffer is a programmer error, not a runtime condition.
// Operations that merely do not support a dtype return errs.ErrUnsupportedDType
// instead.
package variable

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/arloliu/ndbin/dims"
	"github.com/arloliu/ndbin/unit"
)

// Variable is a dense N-dimensional array of values with an optional
// variances buffer, a unit tag and labeled dimensions.
type Variable struct {
	dims      dims.Dimensions
	unit      unit.Unit
	dtype     DType
	values    any
	variances any
}

// New creates a zero-initialized Variable of the given dtype and shape.
func New(t DType, d dims.Dimensions, u unit.Unit) *Variable {
	return &Variable{dims: d, unit: u, dtype: t, values: zeroStorage(t, d.Volume())}
}

func newWithValues(t DType, d dims.Dimensions, u unit.Unit, values any, n int) *Variable {
	if n != d.Volume() {
		panic(fmt.Sprintf("variable: %d values for shape %s (volume %d)", n, d, d.Volume()))
	}

	return &Variable{dims: d, unit: u, dtype: t, values: values}
}

// NewFloat64 creates a float64 Variable adopting the given values buffer.
// The buffer length must equal the shape volume; it is not copied.
func NewFloat64(d dims.Dimensions, u unit.Unit, values []float64) *Variable {
	return newWithValues(TypeFloat64, d, u, values, len(values))
}

// NewFloat32 creates a float32 Variable adopting the given values buffer.
func NewFloat32(d dims.Dimensions, u unit.Unit, values []float32) *Variable {
	return newWithValues(TypeFloat32, d, u, values, len(values))
}

// NewInt64 creates an int64 Variable adopting the given values buffer.
func NewInt64(d dims.Dimensions, u unit.Unit, values []int64) *Variable {
	return newWithValues(TypeInt64, d, u, values, len(values))
}

// NewInt32 creates an int32 Variable adopting the given values buffer.
func NewInt32(d dims.Dimensions, u unit.Unit, values []int32) *Variable {
	return newWithValues(TypeInt32, d, u, values, len(values))
}

// NewBool creates a boolean Variable adopting the given values buffer.
// Boolean variables are dimensionless regardless of u by convention, so the
// unit argument is omitted.
func NewBool(d dims.Dimensions, values []bool) *Variable {
	return newWithValues(TypeBool, d, unit.Dimensionless, values, len(values))
}

// NewStrings creates a string Variable adopting the given values buffer.
func NewStrings(d dims.Dimensions, values []string) *Variable {
	return newWithValues(TypeString, d, unit.Dimensionless, values, len(values))
}

// NewIndex creates an index Variable adopting the given values buffer.
func NewIndex(d dims.Dimensions, values []int) *Variable {
	return newWithValues(TypeIndex, d, unit.Dimensionless, values, len(values))
}

// NewIndexPairs creates an index-pair Variable adopting the given buffer.
func NewIndexPairs(d dims.Dimensions, values []IndexPair) *Variable {
	return newWithValues(TypeIndexPair, d, unit.Dimensionless, values, len(values))
}

// Dims returns the labeled shape.
func (v *Variable) Dims() dims.Dimensions { return v.dims }

// Unit returns the physical unit tag.
func (v *Variable) Unit() unit.Unit { return v.unit }

// SetUnit replaces the physical unit tag.
func (v *Variable) SetUnit(u unit.Unit) { v.unit = u }

// DType returns the element type tag.
func (v *Variable) DType() DType { return v.dtype }

// Len returns the total element count (the shape volume).
func (v *Variable) Len() int { return v.dims.Volume() }

// HasVariances reports whether the variable carries a variances buffer.
func (v *Variable) HasVariances() bool { return v.variances != nil }

// SetVariances attaches a variances buffer. The buffer must have the same
// element type and length as the values buffer, and the dtype must be
// floating point. Passing nil removes the variances.
func (v *Variable) SetVariances(variances any) error {
	if variances == nil {
		v.variances = nil
		return nil
	}
	if !v.dtype.IsFloat() {
		return fmt.Errorf("variable: variances require a float dtype, have %s", v.dtype)
	}

	var n int
	switch s := variances.(type) {
	case []float64:
		if v.dtype != TypeFloat64 {
			return fmt.Errorf("variable: float64 variances on %s values", v.dtype)
		}
		n = len(s)
	case []float32:
		if v.dtype != TypeFloat32 {
			return fmt.Errorf("variable: float32 variances on %s values", v.dtype)
		}
		n = len(s)
	default:
		return fmt.Errorf("variable: unsupported variances buffer %T", variances)
	}
	if n != v.Len() {
		return fmt.Errorf("variable: %d variances for %d values", n, v.Len())
	}
	v.variances = variances

	return nil
}

func typedValues[T any](v *Variable, buf any, want DType) []T {
	s, ok := buf.([]T)
	if !ok {
		panic(fmt.Sprintf("variable: %s access on %s variable", want, v.dtype))
	}

	return s
}

// Float64s returns the float64 values buffer. Panics on dtype mismatch.
func (v *Variable) Float64s() []float64 { return typedValues[float64](v, v.values, TypeFloat64) }

// Float32s returns the float32 values buffer. Panics on dtype mismatch.
func (v *Variable) Float32s() []float32 { return typedValues[float32](v, v.values, TypeFloat32) }

// Int64s returns the int64 values buffer. Panics on dtype mismatch.
func (v *Variable) Int64s() []int64 { return typedValues[int64](v, v.values, TypeInt64) }

// Int32s returns the int32 values buffer. Panics on dtype mismatch.
func (v *Variable) Int32s() []int32 { return typedValues[int32](v, v.values, TypeInt32) }

// Bools returns the boolean values buffer. Panics on dtype mismatch.
func (v *Variable) Bools() []bool { return typedValues[bool](v, v.values, TypeBool) }

// Strings returns the string values buffer. Panics on dtype mismatch.
func (v *Variable) Strings() []string { return typedValues[string](v, v.values, TypeString) }

// Indexes returns the index values buffer. Panics on dtype mismatch.
func (v *Variable) Indexes() []int { return typedValues[int](v, v.values, TypeIndex) }

// IndexPairs returns the index-pair values buffer. Panics on dtype mismatch.
func (v *Variable) IndexPairs() []IndexPair {
	return typedValues[IndexPair](v, v.values, TypeIndexPair)
}

// Float64Variances returns the float64 variances buffer, or nil if the
// variable carries no variances. Panics on dtype mismatch.
func (v *Variable) Float64Variances() []float64 {
	if v.variances == nil {
		return nil
	}

	return typedValues[float64](v, v.variances, TypeFloat64)
}

// Float32Variances returns the float32 variances buffer, or nil if the
// variable carries no variances. Panics on dtype mismatch.
func (v *Variable) Float32Variances() []float32 {
	if v.variances == nil {
		return nil
	}

	return typedValues[float32](v, v.variances, TypeFloat32)
}

// Values returns the untyped values buffer. Intended for dtype-dispatching
// code; most callers should use the typed accessors.
func (v *Variable) Values() any { return v.values }

// Variances returns the untyped variances buffer, or nil.
func (v *Variable) Variances() any { return v.variances }

func cloneStorage(buf any) any {
	switch s := buf.(type) {
	case nil:
		return nil
	case []float64:
		return slices.Clone(s)
	case []float32:
		return slices.Clone(s)
	case []int64:
		return slices.Clone(s)
	case []int32:
		return slices.Clone(s)
	case []bool:
		return slices.Clone(s)
	case []string:
		return slices.Clone(s)
	case []int:
		return slices.Clone(s)
	case []IndexPair:
		return slices.Clone(s)
	default:
		panic(fmt.Sprintf("variable: unknown storage %T", buf))
	}
}

// Copy returns a deep copy of the variable, including variances.
func (v *Variable) Copy() *Variable {
	return &Variable{
		dims:      v.dims,
		unit:      v.unit,
		dtype:     v.dtype,
		values:    cloneStorage(v.values),
		variances: cloneStorage(v.variances),
	}
}

func storagePtr(buf any) unsafe.Pointer {
	switch s := buf.(type) {
	case nil:
		return nil
	case []float64:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []float32:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []int64:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []int32:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []bool:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []string:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []int:
		return unsafe.Pointer(unsafe.SliceData(s))
	case []IndexPair:
		return unsafe.Pointer(unsafe.SliceData(s))
	default:
		panic(fmt.Sprintf("variable: unknown storage %T", buf))
	}
}

// SameStorage reports whether v and other share the same underlying values
// buffer. In-place binary operations use this to detect self-aliasing
// (a += a) up front instead of relying on the generic elementwise path.
func (v *Variable) SameStorage(other *Variable) bool {
	return v != nil && other != nil && storagePtr(v.values) == storagePtr(other.values)
}

func storageEqual(a, b any) bool {
	switch s := a.(type) {
	case nil:
		return b == nil
	case []float64:
		t, ok := b.([]float64)
		return ok && slices.Equal(s, t)
	case []float32:
		t, ok := b.([]float32)
		return ok && slices.Equal(s, t)
	case []int64:
		t, ok := b.([]int64)
		return ok && slices.Equal(s, t)
	case []int32:
		t, ok := b.([]int32)
		return ok && slices.Equal(s, t)
	case []bool:
		t, ok := b.([]bool)
		return ok && slices.Equal(s, t)
	case []string:
		t, ok := b.([]string)
		return ok && slices.Equal(s, t)
	case []int:
		t, ok := b.([]int)
		return ok && slices.Equal(s, t)
	case []IndexPair:
		t, ok := b.([]IndexPair)
		return ok && slices.Equal(s, t)
	default:
		panic(fmt.Sprintf("variable: unknown storage %T", a))
	}
}

// Equal reports whether two variables have identical shape, unit, dtype,
// values and variances. Floating-point comparison is exact.
func Equal(a, b *Variable) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || a.unit != b.unit || !a.dims.Equal(b.dims) {
		return false
	}

	return storageEqual(a.values, b.values) && storageEqual(a.variances, b.variances)
}

// String returns a short description of the variable for diagnostics.
func (v *Variable) String() string {
	variances := ""
	if v.HasVariances() {
		variances = ", variances"
	}

	return fmt.Sprintf("Variable(%s, %s, unit=%s%s)", v.dtype, v.dims, v.unit, variances)
}
