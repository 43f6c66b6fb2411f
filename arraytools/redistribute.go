package arraytools

import (
	"context"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/bempp/distributed-tools/runtime"
)

// Redistribute is a collective: every process contributes data and a
// sendCounts vector of length Size(), where sendCounts[r] is how many
// consecutive elements of data go to rank r (in send-side order, per
// Displacements(sendCounts)). It returns the elements this process was sent
// by everyone, concatenated in rank order of the sender, preserving each
// sender's element order within its own block.
//
// Steps: (1) all-to-all the count vectors to learn recvCounts, (2)
// variable-count all-to-all of the data itself using exclusive-prefix-sum
// displacements on both sides.
func Redistribute[T Scalar](ctx context.Context, data []T, sendCounts []int, rt runtime.MessagingRuntime) ([]T, error) {
	size := rt.Size()
	if len(sendCounts) != size {
		panic("arraytools: Redistribute requires len(sendCounts) == runtime.Size()")
	}

	recvCounts, err := rt.AllToAll(ctx, sendCounts)
	if err != nil {
		return nil, errors.Wrap(err, "arraytools: exchanging redistribute counts")
	}

	sendDispl := Displacements(sendCounts)
	recvDispl := Displacements(recvCounts)

	recvBytes, err := rt.AllToAllVarBytes(ctx, BytesOf(data),
		ScaleCounts[T](sendCounts), ScaleCounts[T](sendDispl),
		ScaleCounts[T](recvCounts), ScaleCounts[T](recvDispl))
	if err != nil {
		return nil, errors.Wrap(err, "arraytools: redistributing data")
	}

	return ScalarsOf[T](recvBytes, lo.Sum(recvCounts)), nil
}

// ScaleCounts converts element counts/displacements into byte counts for
// the wire-level AllToAllVarBytes call.
func ScaleCounts[T Scalar](counts []int) []int {
	var zero T
	width := int(unsafe.Sizeof(zero))
	out := make([]int, len(counts))
	for i, c := range counts {
		out[i] = c * width
	}
	return out
}
