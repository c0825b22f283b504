package types

import (
	"sync"

	"github.com/kovidgoyal/go-parallel"
)

// RunInParallel calls f over disjoint sub-ranges of [start, limit) using at
// most workers goroutines (zero means GOMAXPROCS) and returns once every call
// has finished. An *InvariantError raised inside f is returned as the error.
func RunInParallel(workers, start, limit int, f func(start, limit int)) (err error) {
	if limit <= start {
		return nil
	}
	var mutex sync.Mutex
	var violation *InvariantError
	err = parallel.Run_in_parallel_over_range(workers, func(start, limit int) {
		defer func() {
			if r := recover(); r != nil {
				ie, ok := r.(*InvariantError)
				if !ok {
					panic(r)
				}
				mutex.Lock()
				if violation == nil {
					violation = ie
				}
				mutex.Unlock()
			}
		}()
		f(start, limit)
	}, start, limit)
	if violation != nil {
		return violation
	}
	return err
}
