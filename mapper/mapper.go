// Package mapper implements the global-to-local data mapper: given a
// layout and an arbitrary, possibly-duplicated list of required global
// indices, it materializes the corresponding local vector via one ghost
// exchange plus a local scatter.
package mapper

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bempp/distributed-tools/arraytools"
	"github.com/bempp/distributed-tools/ghost"
	"github.com/bempp/distributed-tools/indexlayout"
	"github.com/bempp/distributed-tools/runtime"
)

// Global2LocalDataMapper materializes, for an arbitrary required-index list
// U (which may contain duplicates and locally-owned entries, in any
// order), the vector holding the chunk for each U[i]. It wraps a shared
// Layout by reference and is immutable after construction.
type Global2LocalDataMapper struct {
	layout indexlayout.Layout
	comm   *ghost.Communicator

	owned []int // required global indices this rank owns, in required-list order, duplicates included
	// dofToPosition maps a global index to ONE position in the required
	// list: the last occurrence wins, matching the original's
	// HashMap::insert-in-a-loop semantics. Every position sharing that
	// global index gets the same chunk regardless, via duplicatesOf
	// below.
	dofToPosition map[int]int
	// duplicatesOf holds, for every global index that appears more than
	// once in the required list, every position it appears at. Positions
	// that appear exactly once are not recorded here; Map uses
	// dofToPosition directly for those, which is the common case.
	duplicatesOf map[int][]int
}

// New partitions required into owned and ghost entries per layout, builds
// the backing ghost.Communicator for the ghost ones, and records where
// each required global index belongs in the output vector. It is
// collective: every participant in rt must call New with its own layout
// (shared) and required list.
func New(ctx context.Context, layout indexlayout.Layout, required []int, rt runtime.MessagingRuntime) (*Global2LocalDataMapper, error) {
	rank := layout.Rank()

	var owned []int
	var ghostIndices []int
	var ghostOwners []int
	dofToPosition := make(map[int]int, len(required))
	positionsOf := make(map[int][]int)

	for pos, g := range required {
		owner, ok := layout.RankFromIndex(g)
		if !ok {
			panic("mapper: required index out of range for layout")
		}
		dofToPosition[g] = pos
		positionsOf[g] = append(positionsOf[g], pos)
		if owner == rank {
			owned = append(owned, g)
		} else {
			ghostIndices = append(ghostIndices, g)
			ghostOwners = append(ghostOwners, owner)
		}
	}

	comm, err := ghost.New(ctx, ghostIndices, ghostOwners, rt)
	if err != nil {
		return nil, errors.Wrap(err, "mapper: building ghost communicator")
	}

	duplicatesOf := make(map[int][]int)
	for g, positions := range positionsOf {
		if len(positions) > 1 {
			duplicatesOf[g] = positions
		}
	}

	return &Global2LocalDataMapper{
		layout:        layout,
		comm:          comm,
		owned:         owned,
		dofToPosition: dofToPosition,
		duplicatesOf:  duplicatesOf,
	}, nil
}

// Layout returns the shared index layout this mapper was built from.
func (m *Global2LocalDataMapper) Layout() indexlayout.Layout { return m.layout }

// GhostCommunicator returns the ghost exchange plan backing this mapper.
func (m *Global2LocalDataMapper) GhostCommunicator() *ghost.Communicator { return m.comm }

// Positions returns, for each global index appearing in the required list
// this mapper was built from, its position in that list (the last
// occurrence, for duplicates).
func (m *Global2LocalDataMapper) Positions() map[int]int { return m.dofToPosition }

// Map gathers the chunk for every required global index into a fresh
// vector of length len(required)*chunkSize, where required is the list
// this mapper was built from.
//
// data must hold layout.NumberOfLocalIndices()*chunkSize elements, this
// rank's own data in canonical layout order.
func Map[T arraytools.Scalar](ctx context.Context, m *Global2LocalDataMapper, data []T, chunkSize int, rt runtime.MessagingRuntime) ([]T, error) {
	rank := m.layout.Rank()
	wantLocal := m.layout.NumberOfLocalIndices() * chunkSize
	if len(data) != wantLocal {
		panic("mapper: Map requires len(data) == layout.NumberOfLocalIndices()*chunkSize")
	}

	// Step 1: pack the send buffer in the order of the ghost
	// communicator's send_indices, reading each chunk out of our own
	// local data.
	sendBuf := make([]T, m.comm.TotalSendCount()*chunkSize)
	for i, g := range m.comm.SendIndices() {
		local, ok := m.layout.Global2Local(rank, g)
		if !ok {
			panic("mapper: send index not owned by this rank")
		}
		copy(sendBuf[i*chunkSize:(i+1)*chunkSize], data[local*chunkSize:(local+1)*chunkSize])
	}

	// Step 2: one ghost forward transfer delivers the ghost chunks, in
	// the order of receive_indices.
	recvBuf, err := ghost.Forward[T](ctx, m.comm, sendBuf, rt)
	if err != nil {
		return nil, errors.Wrap(err, "mapper: forwarding ghost data")
	}

	total := len(m.dofToPosition)
	for _, positions := range m.duplicatesOf {
		total += len(positions) - 1
	}
	// total above double-counts nothing: len(m.dofToPosition) already
	// covers one position per distinct global index, and duplicatesOf
	// adds back the extra occurrences. This equals len(required).
	out := make([]T, total*chunkSize)

	// Step 3: scatter the ghost chunks and the owned chunks into their
	// representative position.
	for i, g := range m.comm.ReceiveIndices() {
		pos := m.dofToPosition[g]
		copy(out[pos*chunkSize:(pos+1)*chunkSize], recvBuf[i*chunkSize:(i+1)*chunkSize])
	}
	for _, g := range m.owned {
		pos := m.dofToPosition[g]
		local, ok := m.layout.Global2Local(rank, g)
		if !ok {
			panic("mapper: owned index not actually owned by this rank")
		}
		copy(out[pos*chunkSize:(pos+1)*chunkSize], data[local*chunkSize:(local+1)*chunkSize])
	}

	// Step 4: every position holding a duplicated global index receives
	// the same chunk as its representative position, fixing the gap left
	// by the original's single-position map.
	for g, positions := range m.duplicatesOf {
		rep := m.dofToPosition[g]
		for _, pos := range positions {
			if pos == rep {
				continue
			}
			copy(out[pos*chunkSize:(pos+1)*chunkSize], out[rep*chunkSize:(rep+1)*chunkSize])
		}
	}

	return out, nil
}
