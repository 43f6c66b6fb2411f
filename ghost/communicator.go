// Package ghost implements the bidirectional, variable-count neighborhood
// exchange plan this module's data mapper and data permutation are built on
// top of.
//
// Terminology, since the two directions are easy to mix up:
//   - "receive" / "import" / "ghost": a global index this process needs but
//     does not own. receive_indices/receive_counts/in_ranks describe the
//     inbound side: who we ask, and what we get back.
//   - "send" / "export": a global index this process owns that some other
//     process asked for. send_indices/send_counts/out_ranks describe the
//     outbound side: who asks us, and what we give them.
//
// Construction is a symmetric discovery problem: no process knows who
// wants its data until it is told. This is resolved with one fixed-size
// all-to-all (learn per-peer desire counts) followed by one variable-count
// all-to-all (learn the actual requested indices) — the canonical
// dense-all-to-all neighborhood-discovery pattern; a one-sided or
// neighborhood-collective implementation would be equivalent as long as it
// produces the same metadata.
package ghost

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/bempp/distributed-tools/arraytools"
	"github.com/bempp/distributed-tools/runtime"
)

// Communicator is a static, immutable exchange plan built from a required-
// index list and its owners. It is exclusively owned by its creator and
// must not be invoked concurrently with itself.
type Communicator struct {
	chunkSize int

	receiveIndices []int
	sendIndices    []int

	inRanks       []int
	outRanks      []int
	receiveCounts []int
	sendCounts    []int

	// desireCounts[r] / wantedByCounts[r] are full P-length raw (index,
	// not byte) counts: desireCounts[r] is how many indices we asked rank
	// r for, wantedByCounts[r] is how many indices rank r asked us for.
	// Zero where a rank isn't a peer. These drive Forward/Backward
	// directly, without re-deriving them from the deduplicated
	// in_ranks/out_ranks views.
	desireCounts   []int
	wantedByCounts []int
}

// New builds a Communicator with chunk size 1. It is collective: every
// participant in rt must call New (or NewWithChunkSize) with its own
// (requiredIndices, owners) before any of them proceeds.
func New(ctx context.Context, requiredIndices, owners []int, rt runtime.MessagingRuntime) (*Communicator, error) {
	return NewWithChunkSize(ctx, requiredIndices, owners, 1, rt)
}

// NewWithChunkSize is New with an explicit chunk size k >= 1: each index
// addresses a block of k scalar elements.
func NewWithChunkSize(ctx context.Context, requiredIndices, owners []int, chunkSize int, rt runtime.MessagingRuntime) (*Communicator, error) {
	if len(requiredIndices) != len(owners) {
		panic("ghost: requiredIndices and owners must have the same length")
	}
	if chunkSize < 1 {
		panic("ghost: chunkSize must be >= 1")
	}
	size := rt.Size()
	for _, r := range owners {
		if r < 0 || r >= size {
			panic("ghost: owner rank out of range")
		}
	}

	// Step 1-2: sort (owners, requiredIndices) jointly by owner rank,
	// stably, which both groups receiveIndices by source and gives us a
	// sorted key sequence to bin in step 3.
	order := make([]int, len(requiredIndices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return owners[order[i]] < owners[order[j]]
	})

	receiveIndices := make([]int, len(requiredIndices))
	sortedOwners := make([]int, len(requiredIndices))
	for i, idx := range order {
		receiveIndices[i] = requiredIndices[idx]
		sortedOwners[i] = owners[idx]
	}

	// Step 3: bin the sorted owner sequence against the rank boundaries
	// [0, 1, ..., size-1] to learn how many indices we want from each
	// rank.
	rankBoundaries := make([]int, size)
	for r := range rankBoundaries {
		rankBoundaries[r] = r
	}
	desireCounts := arraytools.BinSorted(sortedOwners, rankBoundaries)

	// Step 4: all-to-all the desire counts so every rank learns how many
	// indices every other rank wants from it.
	wantedByCounts, err := rt.AllToAll(ctx, desireCounts)
	if err != nil {
		return nil, errors.Wrap(err, "ghost: exchanging desire counts")
	}

	// Step 5: variable-count all-to-all of the actual index values. Our
	// receiveIndices (grouped by owner, aligned with desireCounts) are
	// the send side; what comes back, grouped by requester rank, is
	// sendIndices.
	sendDispl := arraytools.Displacements(desireCounts)
	recvDispl := arraytools.Displacements(wantedByCounts)
	sendIndices, err := rt.AllToAllVarInt(ctx, receiveIndices, desireCounts, sendDispl, wantedByCounts, recvDispl)
	if err != nil {
		return nil, errors.Wrap(err, "ghost: exchanging requested indices")
	}

	inRanks, receiveCounts := nonzeroRanks(desireCounts)
	outRanks, sendCounts := nonzeroRanks(wantedByCounts)

	return &Communicator{
		chunkSize:      chunkSize,
		receiveIndices: receiveIndices,
		sendIndices:    sendIndices,
		inRanks:        inRanks,
		outRanks:       outRanks,
		receiveCounts:  receiveCounts,
		sendCounts:     sendCounts,
		desireCounts:   desireCounts,
		wantedByCounts: wantedByCounts,
	}, nil
}

// nonzeroRanks collapses a full P-length count vector into the sorted list
// of ranks with a nonzero count, and their counts in the same order.
func nonzeroRanks(counts []int) (ranks, nonzero []int) {
	all := lo.Range(len(counts))
	ranks = lo.Filter(all, func(r int, _ int) bool { return counts[r] > 0 })
	nonzero = lo.Map(ranks, func(r int, _ int) int { return counts[r] })
	return ranks, nonzero
}

// ReceiveIndices returns the imported global indices, grouped by source
// rank in the order of InRanks.
func (c *Communicator) ReceiveIndices() []int { return c.receiveIndices }

// SendIndices returns the exported global indices, grouped by destination
// rank in the order of OutRanks.
func (c *Communicator) SendIndices() []int { return c.sendIndices }

// InRanks returns the sorted ranks this process imports from.
func (c *Communicator) InRanks() []int { return c.inRanks }

// OutRanks returns the sorted ranks this process exports to.
func (c *Communicator) OutRanks() []int { return c.outRanks }

// ReceiveCounts returns per-peer receive counts, aligned with InRanks.
func (c *Communicator) ReceiveCounts() []int { return c.receiveCounts }

// SendCounts returns per-peer send counts, aligned with OutRanks.
func (c *Communicator) SendCounts() []int { return c.sendCounts }

// TotalReceiveCount is the total number of imported indices.
func (c *Communicator) TotalReceiveCount() int { return len(c.receiveIndices) }

// TotalSendCount is the total number of exported indices.
func (c *Communicator) TotalSendCount() int { return len(c.sendIndices) }

// ChunkSize returns the number of scalar elements addressed by each index.
func (c *Communicator) ChunkSize() int { return c.chunkSize }
