package mapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bempp/distributed-tools/indexlayout"
	"github.com/bempp/distributed-tools/runtime"
)

// identityLayout builds a 3-rank, 15-chunk, chunk-size-1 equidistributed
// layout, matching the ghost package's scenario 2 partition: rank 0 owns
// [0,5), rank 1 owns [5,10), rank 2 owns [10,15).
func identityLayout(rank int) *indexlayout.Equidistributed {
	return indexlayout.NewEquidistributed(15, 1, 3, rank)
}

// identityData returns this rank's own data, where data[local] equals its
// global index, so a correct Map reproduces the required list verbatim.
func identityData(layout indexlayout.Layout) []float64 {
	lo, hi := layout.LocalRange()
	out := make([]float64, hi-lo)
	for i := range out {
		out[i] = float64(lo + i)
	}
	return out
}

func TestMapperIdentityRoundTrip(t *testing.T) {
	required := map[int][]int{
		0: {5, 6, 2, 2},
		1: {10, 7, 7},
		2: {5, 0, 1, 2},
	}

	err := runtime.RunRanks(context.Background(), 3, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout := identityLayout(rank)
		m, err := New(ctx, layout, required[rank], rt)
		if err != nil {
			return err
		}

		data := identityData(layout)
		out, err := Map[float64](ctx, m, data, 1, rt)
		if err != nil {
			return err
		}

		want := make([]float64, len(required[rank]))
		for i, g := range required[rank] {
			want[i] = float64(g)
		}
		assert.Equal(t, want, out)
		return nil
	})
	require.NoError(t, err)
}

func TestMapperDuplicatePositionsAgree(t *testing.T) {
	err := runtime.RunRanks(context.Background(), 3, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout := identityLayout(rank)
		required := []int{5, 5, 11}
		m, err := New(ctx, layout, required, rt)
		if err != nil {
			return err
		}

		positions := m.Positions()
		assert.Equal(t, 1, positions[5], "duplicated index maps to its last occurrence")
		assert.Equal(t, 2, positions[11])

		data := identityData(layout)
		out, err := Map[float64](ctx, m, data, 1, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, []float64{5, 5, 11}, out, "every position of a duplicated index must agree")
		return nil
	})
	require.NoError(t, err)
}

func TestMapperChunkedData(t *testing.T) {
	const chunkSize = 3
	err := runtime.RunRanks(context.Background(), 3, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout := identityLayout(rank)
		required := []int{(rank + 1) % 3 * 5}

		m, err := New(ctx, layout, required, rt)
		if err != nil {
			return err
		}

		lo, hi := layout.LocalRange()
		data := make([]float64, (hi-lo)*chunkSize)
		for i := 0; i < hi-lo; i++ {
			for c := 0; c < chunkSize; c++ {
				data[i*chunkSize+c] = float64((lo+i)*100 + c)
			}
		}

		out, err := Map[float64](ctx, m, data, chunkSize, rt)
		if err != nil {
			return err
		}
		g := required[0]
		want := []float64{float64(g*100 + 0), float64(g*100 + 1), float64(g*100 + 2)}
		assert.Equal(t, want, out)
		return nil
	})
	require.NoError(t, err)
}
