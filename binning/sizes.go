package binning

import (
	"github.com/arloliu/ndbin/internal/parallel"
)

// BinSizes counts how many elements fall into each of nbins output bins.
// Elements with the sentinel NoBin index are skipped (dropped, not binned).
//
// The count is a single increment-only pass. It parallelizes with a private
// histogram per worker merged by elementwise sum, so no two goroutines ever
// touch the same counter.
func BinSizes(indices []int, nbins int) []int {
	return parallel.Accumulate(len(indices), 0,
		func() []int { return make([]int, nbins) },
		func(hist []int, begin, end int) {
			for _, idx := range indices[begin:end] {
				if idx >= 0 {
					hist[idx]++
				}
			}
		},
		func(into, from []int) {
			for i, n := range from {
				into[i] += n
			}
		})
}

// SizesToBegin converts per-bin sizes into begin offsets (the exclusive
// prefix sum of sizes) and the total element count. The scan is a strict
// left-to-right pass: the resulting layout places bins in index order,
// which downstream consumers rely on for reproducible output order.
func SizesToBegin(sizes []int) (begin []int, total int) {
	begin = make([]int, len(sizes))
	for i, n := range sizes {
		begin[i] = total
		total += n
	}

	return begin, total
}
