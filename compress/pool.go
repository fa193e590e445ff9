package compress

import "sync"

// parallelMap runs fn over every item using up to numWorkers goroutines,
// writing each result to its own index so concurrent workers never race.
//
// Grounded directly on runtime/decorators/parallel.go's
// parallelNode.Execute: a buffered channel as a counting semaphore, a
// WaitGroup to join, results addressed by index rather than appended.
func parallelMap(numWorkers int, items [][]byte, fn func(index int, item []byte) ([]byte, error)) ([][]byte, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	n := len(items)
	results := make([][]byte, n)
	errs := make([]error, n)
	sem := make(chan struct{}, numWorkers)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, data []byte) {
			defer wg.Done()
			defer func() { <-sem }()
			r, err := fn(index, data)
			results[index] = r
			errs[index] = err
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
