package binning

import (
	"fmt"

	"github.com/arloliu/ndbin/errs"
	"github.com/arloliu/ndbin/internal/parallel"
	"github.com/arloliu/ndbin/variable"
)

// checkKey validates a grouping/binning key coordinate: it must be exactly
// 1-D and must not carry variances. Keys are exact, error-free values.
func checkKey(name string, key *variable.Variable) error {
	if key.Dims().NDim() != 1 {
		return fmt.Errorf("%w: key %q must be 1-D, got %s",
			errs.ErrDimensionMismatch, name, key.Dims())
	}
	if key.HasVariances() {
		return fmt.Errorf("%w: key %q carries variances", errs.ErrVariancesNotAllowed, name)
	}

	return nil
}

func groupSlots[T comparable](coord, groups []T, d *variable.Variable) *variable.Variable {
	slots := make(map[T]int, len(groups))
	for i, g := range groups {
		slots[g] = i
	}
	out := make([]int, len(coord))
	_ = parallel.For(len(coord), 0, func(begin, end int) error {
		for i := begin; i < end; i++ {
			slot, ok := slots[coord[i]]
			if !ok {
				slot = NoBin
			}
			out[i] = slot
		}
		return nil
	})

	return variable.NewIndex(d.Dims(), out)
}

// GroupIndices computes, for every element of coord, the position of the
// exactly matching value in groups, or NoBin when no group matches.
//
// Matching is exact equality in the coordinate's own type; floating-point
// keys compare bit-for-bit via Go map semantics, approximate matching is
// deliberately not provided. Group values are assumed unique; with
// duplicates the last occurrence wins.
func GroupIndices(coord, groups *variable.Variable) (*variable.Variable, error) {
	if err := checkKey(groups.Dims().Outer(), coord); err != nil {
		return nil, err
	}
	if err := checkKey(groups.Dims().Outer(), groups); err != nil {
		return nil, err
	}
	if coord.DType() != groups.DType() {
		return nil, fmt.Errorf("%w: coordinate is %s but groups are %s",
			errs.ErrDTypeMismatch, coord.DType(), groups.DType())
	}

	switch coord.DType() {
	case variable.TypeString:
		return groupSlots(coord.Strings(), groups.Strings(), coord), nil
	case variable.TypeFloat64:
		return groupSlots(coord.Float64s(), groups.Float64s(), coord), nil
	case variable.TypeInt64:
		return groupSlots(coord.Int64s(), groups.Int64s(), coord), nil
	case variable.TypeInt32:
		return groupSlots(coord.Int32s(), groups.Int32s(), coord), nil
	case variable.TypeBool:
		return groupSlots(coord.Bools(), groups.Bools(), coord), nil
	default:
		return nil, fmt.Errorf("%w: cannot group by %s keys",
			errs.ErrUnsupportedDType, coord.DType())
	}
}
