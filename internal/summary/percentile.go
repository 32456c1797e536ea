package summary

import "math"

// Percentile computes the p-th percentile (0..1) of an ascending-sorted
// slice by linear interpolation between order statistics: the rank is
// (n-1)*p and the value is interpolated between the floor and ceil
// neighbours. p<=0 yields the minimum, p>=1 the maximum.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
