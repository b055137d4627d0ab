package density

import "sync"

// evaluateParallel computes f over every row of points using multiple
// goroutines. points is flat row-major with dims columns. Each worker handles
// a contiguous range of rows and writes only its own slots, so the result is
// bitwise identical to a sequential evaluation.
// Falls back to a single goroutine if numWorkers <= 1.
func evaluateParallel(points []float64, dims int, f func(point []float64) float64, numWorkers int) []float64 {
	n := len(points) / dims
	result := make([]float64, n)

	if numWorkers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			result[i] = f(points[i*dims : (i+1)*dims])
		}
		return result
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				result[i] = f(points[i*dims : (i+1)*dims])
			}
		}(startRow, endRow)
	}

	wg.Wait()
	return result
}
