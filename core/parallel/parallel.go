// Package parallel provides the chunked fan-out used by the ensemble and
// neighbour estimators. Every chunk writes to a disjoint index range, so
// callers get deterministic output regardless of scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit worker count. workers <= 0
// means one worker per CPU core; workers == 1 runs fn(0, items) inline.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items // No need for more workers than items
	}
	if workers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
