package indexlayout

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bempp/distributed-tools/arraytools"
	"github.com/bempp/distributed-tools/runtime"
)

// Remap redistributes data, laid out under from, into the corresponding
// slice laid out under to — two layouts over the same global index count
// but a different partitioning. Order within each rank's block is
// preserved; Remap(to, from, Remap(from, to, x)) recovers x.
//
// Algorithm: this rank's own contiguous range [lo, hi) under from is binned
// against to's per-rank lower bounds, which tells arraytools.Redistribute
// how many of our indices belong to each destination rank.
func Remap[T arraytools.Scalar](ctx context.Context, from, to Layout, data []T, rt runtime.MessagingRuntime) ([]T, error) {
	if len(data) != from.NumberOfLocalIndices() {
		panic("indexlayout: Remap requires len(data) == from.NumberOfLocalIndices()")
	}
	if from.NumberOfGlobalIndices() != to.NumberOfGlobalIndices() {
		panic("indexlayout: Remap requires from and to to share the same global index count")
	}

	lo, hi := from.LocalRange()

	otherBins := make([]int, to.Size())
	for r := 0; r < to.Size(); r++ {
		rlo, _, ok := to.IndexRange(r)
		if !ok {
			panic("indexlayout: Remap could not resolve to's own rank range")
		}
		otherBins[r] = rlo
	}

	sortedKeys := make([]int, hi-lo)
	for i := range sortedKeys {
		sortedKeys[i] = lo + i
	}

	sendCounts := arraytools.BinSorted(sortedKeys, otherBins)

	out, err := arraytools.Redistribute[T](ctx, data, sendCounts, rt)
	if err != nil {
		return nil, errors.Wrap(err, "indexlayout: remapping data between layouts")
	}
	return out, nil
}
