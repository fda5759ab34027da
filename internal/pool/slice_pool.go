package pool

import "sync"

// Slice pool for the scratch cursors of the binning scatter pass. Pooled
// slices are returned zeroed.
var indexSlicePool = sync.Pool{
	New: func() any { return &[]int{} },
}

// GetIndexSlice retrieves a zeroed []int of the given length from the pool.
// The caller must call the returned cleanup function (typically with defer)
// to return the slice to the pool.
func GetIndexSlice(size int) ([]int, func()) {
	ptr, _ := indexSlicePool.Get().(*[]int)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]int, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		for i := range slice {
			slice[i] = 0
		}
		*ptr = slice
	}

	return slice, func() { indexSlicePool.Put(ptr) }
}
