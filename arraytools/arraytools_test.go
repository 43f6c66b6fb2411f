package arraytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bempp/distributed-tools/runtime"
)

func TestBinSorted(t *testing.T) {
	counts := BinSorted([]int{0, 1, 1, 4, 7, 9}, []int{0, 2, 5, 8})
	assert.Equal(t, []int{3, 1, 1, 1}, counts)
}

func TestBinSortedSingleBin(t *testing.T) {
	counts := BinSorted([]int{1, 2, 3}, []int{0})
	assert.Equal(t, []int{3}, counts)
}

func TestBinSortedEmptyKeys(t *testing.T) {
	counts := BinSorted(nil, []int{0, 2, 5})
	assert.Equal(t, []int{0, 0, 0}, counts)
}

func TestBinSortedSumsToKeyCount(t *testing.T) {
	keys := []int{0, 0, 0, 5, 5, 10, 20, 20, 20, 20}
	bins := []int{0, 5, 10, 15}
	counts := BinSorted(keys, bins)

	sum := 0
	for _, c := range counts {
		sum += c
	}
	assert.Equal(t, len(keys), sum)
}

func TestDisplacements(t *testing.T) {
	counts := []int{3, 4, 5}
	displ := Displacements(counts)
	assert.Equal(t, []int{0, 3, 7}, displ)

	for i := range counts {
		assert.Equal(t, displ[i]+counts[i], displacementAt(displ, counts, i))
	}
}

// displacementAt returns displ[i+1] when it exists, else displ[i]+counts[i];
// used to check the prefix-sum invariant without indexing past the slice.
func displacementAt(displ, counts []int, i int) int {
	if i+1 < len(displ) {
		return displ[i+1]
	}
	return displ[i] + counts[i]
}

func TestDisplacementsEmpty(t *testing.T) {
	assert.Empty(t, Displacements(nil))
}

func TestRedistributeRoundTripsThroughMockRuntime(t *testing.T) {
	// Rank r contributes r*100..r*100+size-1 and sends one element to every
	// other rank (including itself); each rank should receive exactly one
	// element from every rank.
	size := 4
	err := runtime.RunRanks(context.Background(), size, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		data := make([]float64, size)
		sendCounts := make([]int, size)
		for i := range data {
			data[i] = float64(rank*100 + i)
			sendCounts[i] = 1
		}

		recv, err := Redistribute[float64](ctx, data, sendCounts, rt)
		if err != nil {
			return err
		}
		assert.Len(t, recv, size)
		for src, v := range recv {
			assert.Equal(t, float64(src*100+rank), v)
		}
		return nil
	})
	require.NoError(t, err)
}
