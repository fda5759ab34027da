// Package unit provides the physical-unit tag attached to ndbin arrays.
//
// The unit is an opaque comparable token: ndbin only needs equality,
// identity combination for multiplicative masking, and the "count-like"
// check required by rebinning. A full unit algebra is out of scope.
package unit

import "fmt"

// Unit identifies the physical unit of an array's elements.
type Unit uint8

const (
	// Dimensionless is the unit of pure numbers, masks and indices.
	Dimensionless Unit = iota
	// Counts is the unit of event counts and histograms.
	Counts
	// Meter is a length unit, used by coordinate arrays.
	Meter
	// Second is a time unit, used by coordinate arrays.
	Second
	// Kelvin is a temperature unit, used by coordinate arrays.
	Kelvin
)

// String returns the conventional symbol for the unit.
func (u Unit) String() string {
	switch u {
	case Dimensionless:
		return "1"
	case Counts:
		return "counts"
	case Meter:
		return "m"
	case Second:
		return "s"
	case Kelvin:
		return "K"
	default:
		return fmt.Sprintf("unit(%d)", uint8(u))
	}
}

// CountsCompatible reports whether the unit qualifies as intensity-like for
// rebinning: event counts or dimensionless data.
func (u Unit) CountsCompatible() bool {
	return u == Counts || u == Dimensionless
}

// Mul combines two units under multiplication for the limited cases the
// engine needs: multiplying by a dimensionless factor (mask complements,
// overlap fractions) preserves the other operand's unit. Any other
// combination reports false.
func Mul(a, b Unit) (Unit, bool) {
	switch {
	case a == Dimensionless:
		return b, true
	case b == Dimensionless:
		return a, true
	default:
		return Dimensionless, false
	}
}
