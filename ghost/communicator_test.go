package ghost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bempp/distributed-tools/runtime"
)

// repeatChunk builds a chunkSize-wide block for each value in values,
// mirroring the original_source ghost_communicator.rs example's use of
// std::iter::repeat.
func repeatChunk(values []int, chunkSize int) []float64 {
	out := make([]float64, 0, len(values)*chunkSize)
	for _, v := range values {
		for i := 0; i < chunkSize; i++ {
			out = append(out, float64(v))
		}
	}
	return out
}

func TestGhostForwardAndBackwardRoundTrip(t *testing.T) {
	const chunkSize = 5

	required := map[int][]int{0: {5, 6}, 1: {10}, 2: {5, 0, 1, 2}}
	owners := map[int][]int{0: {1, 1}, 1: {2}, 2: {1, 0, 0, 0}}
	pushed := map[int][]int{0: {10, 11, 12}, 1: {13, 14, 13}, 2: {15}}
	wantForward := map[int][]int{0: {13, 14}, 1: {15}, 2: {10, 11, 12, 13}}

	err := runtime.RunRanks(context.Background(), 3, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		comm, err := NewWithChunkSize(ctx, required[rank], owners[rank], chunkSize, rt)
		if err != nil {
			return err
		}

		sendBuf := repeatChunk(pushed[rank], chunkSize)
		recvBuf, err := Forward[float64](ctx, comm, sendBuf, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, repeatChunk(wantForward[rank], chunkSize), recvBuf)

		echoed, err := Backward[float64](ctx, comm, recvBuf, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, sendBuf, echoed, "backward must reconstruct the original push exactly")
		return nil
	})
	require.NoError(t, err)
}

func TestGhostEmptyGhostIsNoOp(t *testing.T) {
	err := runtime.RunRanks(context.Background(), 3, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		comm, err := New(ctx, nil, nil, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, 0, comm.TotalSendCount())
		assert.Equal(t, 0, comm.TotalReceiveCount())
		assert.Empty(t, comm.InRanks())
		assert.Empty(t, comm.OutRanks())

		recv, err := Forward[float64](ctx, comm, nil, rt)
		if err != nil {
			return err
		}
		assert.Empty(t, recv)

		send, err := Backward[float64](ctx, comm, nil, rt)
		if err != nil {
			return err
		}
		assert.Empty(t, send)
		return nil
	})
	require.NoError(t, err)
}

func TestGhostPropertiesForK1(t *testing.T) {
	// Two ranks, each importing the single index the other owns.
	err := runtime.RunRanks(context.Background(), 2, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		other := 1 - rank
		comm, err := New(ctx, []int{other}, []int{other}, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, []int{other}, comm.InRanks())
		assert.Equal(t, []int{other}, comm.OutRanks())
		assert.Equal(t, 1, comm.TotalReceiveCount())
		assert.Equal(t, 1, comm.TotalSendCount())

		mine := []float64{float64(rank)}
		received, err := Forward[float64](ctx, comm, mine, rt)
		if err != nil {
			return err
		}
		assert.Equal(t, []float64{float64(other)}, received)
		return nil
	})
	require.NoError(t, err)
}
