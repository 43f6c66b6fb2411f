// Package permutation implements the data permutation: a reordering
// between a layout's canonical per-rank ordering and a user-supplied
// global permutation partitioned the same way.
package permutation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bempp/distributed-tools/arraytools"
	"github.com/bempp/distributed-tools/ghost"
	"github.com/bempp/distributed-tools/indexlayout"
	"github.com/bempp/distributed-tools/runtime"
)

// DataPermutation reorders chunks between a layout L's canonical order and
// a caller-supplied permutation C of the same global indices, partitioned
// the same way: C[r] has length L.NumberOfLocalIndices(r). It wraps L by
// reference and is immutable after construction.
type DataPermutation struct {
	layout indexlayout.Layout
	comm   *ghost.Communicator

	// permuted holds this rank's slice of C, in the caller's order.
	permuted []int
	// positionOf maps a global index in C to its position within permuted.
	positionOf map[int]int
}

// New builds the permutation's backing ghost communicator: permuted is this
// rank's slice of the global permutation C, and layout is the canonical
// layout C is expressed against. It is collective: every participant must
// call New with its own (layout, permuted) slice.
func New(ctx context.Context, layout indexlayout.Layout, permuted []int, rt runtime.MessagingRuntime) (*DataPermutation, error) {
	if len(permuted) != layout.NumberOfLocalIndices() {
		panic("permutation: len(permuted) must equal layout.NumberOfLocalIndices()")
	}

	owners := make([]int, len(permuted))
	positionOf := make(map[int]int, len(permuted))
	for i, g := range permuted {
		owner, ok := layout.RankFromIndex(g)
		if !ok {
			panic("permutation: permuted index out of range for layout")
		}
		owners[i] = owner
		positionOf[g] = i
	}

	comm, err := ghost.New(ctx, permuted, owners, rt)
	if err != nil {
		return nil, errors.Wrap(err, "permutation: building ghost communicator")
	}

	return &DataPermutation{
		layout:     layout,
		comm:       comm,
		permuted:   permuted,
		positionOf: positionOf,
	}, nil
}

// Layout returns the canonical layout this permutation is expressed over.
func (p *DataPermutation) Layout() indexlayout.Layout { return p.layout }

// GhostCommunicator returns the exchange plan backing this permutation.
func (p *DataPermutation) GhostCommunicator() *ghost.Communicator { return p.comm }

// Forward reorders data, held in Layout()'s canonical local order, into
// this rank's slice of the permutation, in the caller's C order. data must
// hold layout.NumberOfLocalIndices()*chunkSize elements.
func Forward[T arraytools.Scalar](ctx context.Context, p *DataPermutation, data []T, chunkSize int, rt runtime.MessagingRuntime) ([]T, error) {
	rank := p.layout.Rank()
	want := p.layout.NumberOfLocalIndices() * chunkSize
	if len(data) != want {
		panic("permutation: Forward requires len(data) == layout.NumberOfLocalIndices()*chunkSize")
	}

	sendBuf := make([]T, p.comm.TotalSendCount()*chunkSize)
	for i, g := range p.comm.SendIndices() {
		local, ok := p.layout.Global2Local(rank, g)
		if !ok {
			panic("permutation: send index not owned by this rank")
		}
		copy(sendBuf[i*chunkSize:(i+1)*chunkSize], data[local*chunkSize:(local+1)*chunkSize])
	}

	recvBuf, err := ghost.Forward[T](ctx, p.comm, sendBuf, rt)
	if err != nil {
		return nil, errors.Wrap(err, "permutation: forward transfer")
	}

	out := make([]T, len(p.permuted)*chunkSize)
	for i, g := range p.comm.ReceiveIndices() {
		pos := p.positionOf[g]
		copy(out[pos*chunkSize:(pos+1)*chunkSize], recvBuf[i*chunkSize:(i+1)*chunkSize])
	}
	return out, nil
}

// Backward is Forward's inverse: data holds this rank's slice of the
// permutation in C order, and the result holds Layout()'s canonical local
// order. Composed with Forward on the same data, Backward is the identity
// provided the permutation's global indices are each used at most once.
func Backward[T arraytools.Scalar](ctx context.Context, p *DataPermutation, data []T, chunkSize int, rt runtime.MessagingRuntime) ([]T, error) {
	want := len(p.permuted) * chunkSize
	if len(data) != want {
		panic("permutation: Backward requires len(data) == len(permuted)*chunkSize")
	}

	// Re-pack in the order the forward transfer delivered its receive
	// buffer, so ghost.Backward can route it back along the same arrows.
	recvBuf := make([]T, p.comm.TotalReceiveCount()*chunkSize)
	for i, g := range p.comm.ReceiveIndices() {
		pos := p.positionOf[g]
		copy(recvBuf[i*chunkSize:(i+1)*chunkSize], data[pos*chunkSize:(pos+1)*chunkSize])
	}

	sendBuf, err := ghost.Backward[T](ctx, p.comm, recvBuf, rt)
	if err != nil {
		return nil, errors.Wrap(err, "permutation: backward transfer")
	}

	rank := p.layout.Rank()
	out := make([]T, p.layout.NumberOfLocalIndices()*chunkSize)
	for i, g := range p.comm.SendIndices() {
		local, ok := p.layout.Global2Local(rank, g)
		if !ok {
			panic("permutation: send index not owned by this rank")
		}
		copy(out[local*chunkSize:(local+1)*chunkSize], sendBuf[i*chunkSize:(i+1)*chunkSize])
	}
	return out, nil
}
