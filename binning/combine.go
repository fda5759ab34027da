package binning

import (
	"fmt"

	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

// combineInto folds the next per-key index array into the running combined
// index: combined = combined*extent + next, with NoBin absorbing on either
// side. Operates in place on combined.
func combineInto(combined, next []int, extent int) {
	_ = parallel.For(len(combined), 0, func(begin, end int) error {
		for i := begin; i < end; i++ {
			if combined[i] < 0 || next[i] < 0 {
				combined[i] = NoBin
			} else {
				combined[i] = combined[i]*extent + next[i]
			}
		}
		return nil
	})
}

// CombineIndices composes per-key index arrays into one flattened index via
// mixed-radix encoding: index = index_0*extent_1 + index_1, generalized
// left to right over all keys. The first key's extent is never multiplied
// in, and NoBin is absorbing. The resulting flattening is row-major in the
// order the keys are given, matching the dimension order of the output bin
// shape.
func CombineIndices(parts []*variable.Variable, extents []int) (*variable.Variable, error) {
	if len(parts) == 0 || len(parts) != len(extents) {
		return nil, fmt.Errorf("%w: %d index arrays with %d extents",
			errs.ErrDimensionMismatch, len(parts), len(extents))
	}
	first := parts[0]
	combined := make([]int, first.Len())
	copy(combined, first.Indexes())
	for k := 1; k < len(parts); k++ {
		if parts[k].Len() != first.Len() {
			return nil, fmt.Errorf("%w: index array %d has %d elements, expected %d",
				errs.ErrDimensionMismatch, k, parts[k].Len(), first.Len())
		}
		combineInto(combined, parts[k].Indexes(), extents[k])
	}

	return variable.NewIndex(first.Dims(), combined), nil
}
