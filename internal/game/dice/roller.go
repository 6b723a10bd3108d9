package dice

// Pool rolls count six-sided dice. A non-positive count yields an empty pool.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Results) == max(0, count); every result is in [1, 6].
func Pool(count int, src Source) PoolResult {
	if count <= 0 {
		return PoolResult{Results: []int{}}
	}
	res := PoolResult{Results: make([]int, count)}
	for i := range res.Results {
		face := src.Intn(Sides) + 1
		res.Results[i] = face
		res.Total += face
	}
	return res
}
