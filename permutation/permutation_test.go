package permutation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bempp/distributed-tools/indexlayout"
	"github.com/bempp/distributed-tools/runtime"
)

// shuffle is a fixed, deterministic bijection on [0, n): multiplying by a
// value coprime with n is a permutation of Z_n.
func shuffle(i, n int) int { return (3 * i) % n }

func TestPermutationShuffleRoundTrip(t *testing.T) {
	const n = 1537
	const size = 4

	err := runtime.RunRanks(context.Background(), size, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout := indexlayout.NewEquidistributed(n, 1, size, rank)
		lo, hi := layout.LocalRange()

		permuted := make([]int, hi-lo)
		for j := range permuted {
			permuted[j] = shuffle(lo+j, n)
		}

		p, err := New(ctx, layout, permuted, rt)
		if err != nil {
			return err
		}

		data := make([]float64, hi-lo)
		for j := range data {
			data[j] = float64(lo + j)
		}

		forwarded, err := Forward[float64](ctx, p, data, 1, rt)
		if err != nil {
			return err
		}
		want := make([]float64, len(permuted))
		for j, g := range permuted {
			want[j] = float64(g)
		}
		assert.Equal(t, want, forwarded, "forward must land each permuted global index's own value at its C position")

		back, err := Backward[float64](ctx, p, forwarded, 1, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, data, back, "backward(forward(x)) must reproduce x")
		return nil
	})
	require.NoError(t, err)
}

func TestPermutationIdentityIsNoOp(t *testing.T) {
	const n = 20
	const size = 3

	err := runtime.RunRanks(context.Background(), size, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout := indexlayout.NewEquidistributed(n, 1, size, rank)
		lo, hi := layout.LocalRange()

		permuted := make([]int, hi-lo)
		for j := range permuted {
			permuted[j] = lo + j
		}

		p, err := New(ctx, layout, permuted, rt)
		if err != nil {
			return err
		}

		data := make([]float64, hi-lo)
		for j := range data {
			data[j] = float64(lo + j)
		}

		forwarded, err := Forward[float64](ctx, p, data, 1, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, data, forwarded)
		return nil
	})
	require.NoError(t, err)
}
