package formula

import "slices"

// The aggregates take numeric values in range iteration order. ok is false
// when the result is undefined for empty input.

func sum(nums []float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

// average is 0 for empty input.
func average(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	return sum(nums) / float64(len(nums))
}

func maximum(nums []float64) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	return slices.Max(nums), true
}

func minimum(nums []float64) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	return slices.Min(nums), true
}

func median(nums []float64) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	sorted := slices.Clone(nums)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// mode returns the most frequent value. Ties go to the value that occurs
// first.
func mode(nums []float64) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	freq := make(map[float64]int, len(nums))
	for _, n := range nums {
		freq[n]++
	}
	best, bestCount := nums[0], 0
	for _, n := range nums {
		if c := freq[n]; c > bestCount {
			best, bestCount = n, c
		}
	}
	return best, true
}
