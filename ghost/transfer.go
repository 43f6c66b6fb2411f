package ghost

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bempp/distributed-tools/arraytools"
	"github.com/bempp/distributed-tools/runtime"
)

// Forward sends each owner's data to the processes that import it: sendBuf
// must hold comm.TotalSendCount()*comm.ChunkSize() elements, packed as
// len(comm.OutRanks()) contiguous blocks in the order of
// comm.SendIndices(). The result holds
// comm.TotalReceiveCount()*comm.ChunkSize() elements, in the order of
// comm.ReceiveIndices().
func Forward[T arraytools.Scalar](ctx context.Context, comm *Communicator, sendBuf []T, rt runtime.MessagingRuntime) ([]T, error) {
	want := comm.TotalSendCount() * comm.ChunkSize()
	if len(sendBuf) != want {
		panic("ghost: Forward requires len(sendBuf) == TotalSendCount()*ChunkSize()")
	}

	sendCounts := arraytools.ScaleCounts[T](scaleByChunk(comm.wantedByCounts, comm.chunkSize))
	recvCounts := arraytools.ScaleCounts[T](scaleByChunk(comm.desireCounts, comm.chunkSize))
	sendDispl := arraytools.Displacements(sendCounts)
	recvDispl := arraytools.Displacements(recvCounts)

	recvBytes, err := rt.AllToAllVarBytes(ctx, arraytools.BytesOf(sendBuf), sendCounts, sendDispl, recvCounts, recvDispl)
	if err != nil {
		return nil, errors.Wrap(err, "ghost: forward transfer")
	}
	return arraytools.ScalarsOf[T](recvBytes, comm.TotalReceiveCount()*comm.ChunkSize()), nil
}

// Backward sends previously-imported data back to its original owners,
// along the reverse arrows of the same plan: recvBuf must hold
// comm.TotalReceiveCount()*comm.ChunkSize() elements in the order of
// comm.ReceiveIndices(). The result holds
// comm.TotalSendCount()*comm.ChunkSize() elements, in the order of
// comm.SendIndices().
//
// Composed with Forward on the same data, Backward reproduces the original
// send buffer exactly: every request has its own slot in the result, so
// when multiple importers target the same owner index, each of their
// returned chunks lands in that request's slot and none overwrites another.
func Backward[T arraytools.Scalar](ctx context.Context, comm *Communicator, recvBuf []T, rt runtime.MessagingRuntime) ([]T, error) {
	want := comm.TotalReceiveCount() * comm.ChunkSize()
	if len(recvBuf) != want {
		panic("ghost: Backward requires len(recvBuf) == TotalReceiveCount()*ChunkSize()")
	}

	sendCounts := arraytools.ScaleCounts[T](scaleByChunk(comm.desireCounts, comm.chunkSize))
	recvCounts := arraytools.ScaleCounts[T](scaleByChunk(comm.wantedByCounts, comm.chunkSize))
	sendDispl := arraytools.Displacements(sendCounts)
	recvDispl := arraytools.Displacements(recvCounts)

	sendBytes, err := rt.AllToAllVarBytes(ctx, arraytools.BytesOf(recvBuf), sendCounts, sendDispl, recvCounts, recvDispl)
	if err != nil {
		return nil, errors.Wrap(err, "ghost: backward transfer")
	}
	return arraytools.ScalarsOf[T](sendBytes, comm.TotalSendCount()*comm.ChunkSize()), nil
}

// scaleByChunk multiplies each raw index count by chunkSize, so the wire
// transfer moves whole chunks. arraytools.ScaleCounts then converts those
// chunk-element counts into byte counts for the element type T.
func scaleByChunk(counts []int, chunkSize int) []int {
	out := make([]int, len(counts))
	for i, c := range counts {
		out[i] = c * chunkSize
	}
	return out
}
