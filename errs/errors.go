// Package errs defines sentinel errors shared across ndbin packages.
//
// Call sites wrap these with fmt.Errorf("%w: ...") to attach the concrete
// dimension or coordinate name that triggered the failure, so callers can
// both match with errors.Is and read a precise diagnostic.
package errs

import "errors"

var (
	// ErrDimensionMismatch indicates a structural dimension problem: a binning
	// key that is not 1-D, an output argument whose dimensions disagree with
	// the computed result, or a coordinate that cannot be carried through the
	// requested operation.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrBinEdgesNotSorted indicates bin edges that are neither strictly
	// ascending nor strictly descending, or old/new rebin edges in
	// incompatible sort orders.
	ErrBinEdgesNotSorted = errors.New("bin edges not sorted")

	// ErrNotBinEdges indicates a coordinate that does not qualify as bin
	// edges for the data it is paired with (edge count must exceed the data
	// extent along the edge dimension by exactly one).
	ErrNotBinEdges = errors.New("coordinate is not bin edges")

	// ErrVariancesNotAllowed indicates a binning or grouping key that carries
	// variances. Keys must be exact, error-free values.
	ErrVariancesNotAllowed = errors.New("variances not allowed")

	// ErrUnitMismatch indicates incompatible units for the requested
	// operation, e.g. rebinning data that is not count-like or dimensionless.
	ErrUnitMismatch = errors.New("unit mismatch")

	// ErrUnsupportedDType indicates an element type the requested operation
	// does not support, e.g. weighted rebinning of integer data.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrDTypeMismatch indicates two operands whose element types disagree
	// where they are required to match.
	ErrDTypeMismatch = errors.New("dtype mismatch")

	// ErrInvalidBlob indicates a corrupted or truncated snapshot blob.
	ErrInvalidBlob = errors.New("invalid blob")
)
