package fn

import "sync"

// ParMap applies f to every element using at most workers goroutines.
// Output order matches input order. workers <= 0 means one goroutine
// per element.
func ParMap[T, U any](in []T, workers int, f func(T) U) []U {
	out := make([]U, len(in))
	if len(in) == 0 {
		return out
	}
	if workers <= 0 || workers > len(in) {
		workers = len(in)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = f(in[i])
			}
		}()
	}
	for i := range in {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
