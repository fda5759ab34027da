// Package parallel provides the fork-join work partitioning used by the
// binning and reduction engines.
//
// The model is a data-parallel "parallel for" over an index range: each call
// forks a bounded set of goroutines, blocks until all complete, and keeps no
// state across calls. There is no cancellation; a worker error propagates to
// the caller after all pending workers have joined.
//
// Reductions never share mutable accumulators between workers. Accumulate
// gives every worker a private accumulator and merges them in a final
// single-threaded pass, so no locks or atomics are needed.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxChunks bounds the number of chunks a range is split into.
	MaxChunks = 24

	// MinGrain is the smallest per-chunk element count worth forking for.
	MinGrain = 32

	// SerialThreshold is the element count below which accumulation along an
	// outer dimension is not worth partitioning directly; callers chunk along
	// an inner dimension or run single-threaded instead.
	SerialThreshold = 65536
)

// Grain returns the chunk size for partitioning n elements: the larger of
// MinGrain and n/MaxChunks. This balances goroutine startup overhead against
// load balance.
func Grain(n int) int {
	g := n / MaxChunks
	if g < MinGrain {
		g = MinGrain
	}

	return g
}

func chunks(n, grain int) int {
	if grain <= 0 {
		grain = Grain(n)
	}
	c := (n + grain - 1) / grain
	if c > MaxChunks {
		c = MaxChunks
	}
	if c < 1 {
		c = 1
	}

	return c
}

// For runs fn over [0, n) split into chunks of roughly grain elements.
// A grain of <= 0 selects Grain(n). With a single chunk fn runs on the
// calling goroutine. The first worker error is returned after all workers
// have joined.
func For(n, grain int, fn func(begin, end int) error) error {
	nchunk := chunks(n, grain)
	if nchunk == 1 {
		return fn(0, n)
	}

	size := (n + nchunk - 1) / nchunk
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := 0; c < nchunk; c++ {
		begin := c * size
		end := min(begin+size, n)
		if begin >= end {
			break
		}
		g.Go(func() error { return fn(begin, end) })
	}

	return g.Wait()
}

// Accumulate folds [0, n) into per-chunk private accumulators and merges
// them left to right on the calling goroutine. newAcc must return an
// identity accumulator; fold must only touch its own accumulator; merge
// receives accumulators in chunk order, so order-dependent merges (e.g.
// offset accumulation) remain deterministic.
func Accumulate[A any](n, grain int, newAcc func() A, fold func(acc A, begin, end int), merge func(into, from A)) A {
	nchunk := chunks(n, grain)
	into := newAcc()
	if nchunk == 1 {
		fold(into, 0, n)
		return into
	}

	size := (n + nchunk - 1) / nchunk
	accs := make([]A, 0, nchunk)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := 0; c < nchunk; c++ {
		begin := c * size
		end := min(begin+size, n)
		if begin >= end {
			break
		}
		acc := newAcc()
		accs = append(accs, acc)
		g.Go(func() error {
			fold(acc, begin, end)
			return nil
		})
	}
	// Workers never fail; Wait only joins.
	_ = g.Wait()

	for _, acc := range accs {
		merge(into, acc)
	}

	return into
}
