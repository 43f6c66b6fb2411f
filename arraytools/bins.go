// Package arraytools implements the small set of array-shaped primitives
// the rest of this module is built on: binning a sorted key sequence
// against sorted bin boundaries, prefix-sum displacements, and a
// variable-count collective redistribution.
package arraytools

// BinSorted distributes the non-decreasing sequence keys into len(bins)
// half-open intervals [bins[0], bins[1]), ..., [bins[n-2], bins[n-1]),
// [bins[n-1], +Inf), and returns, for each interval, how many keys fell
// into it. keys is assumed to lie entirely within [bins[0], +Inf).
//
// bins must be non-decreasing and have at least one element. Runs in
// O(len(keys) + len(bins)) via a single forward sweep: the bin cursor only
// ever advances, it never backtracks, which is what makes the linear pass
// correct given sorted input.
func BinSorted(keys, bins []int) []int {
	if len(bins) == 0 {
		panic("arraytools: BinSorted requires at least one bin")
	}

	counts := make([]int, len(bins))
	if len(bins) == 1 {
		counts[0] = len(keys)
		return counts
	}

	bin := 0
	for _, key := range keys {
		for bin < len(bins)-1 && key >= bins[bin+1] {
			bin++
		}
		counts[bin]++
	}
	return counts
}
