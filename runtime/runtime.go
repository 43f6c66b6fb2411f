// Package runtime defines the message-passing collaborator this module is
// built on top of, and a drop-in in-process double for tests and demos.
//
// Every collective here blocks until all participating ranks have entered
// the matching call: a process-parallel, single-threaded-per-process,
// synchronous model with no cooperative scheduler inside the library
// itself. The library never constructs a MessagingRuntime; it only
// borrows one.
package runtime

import "context"

// Rank identifies a participant in a MessagingRuntime, in [0, Size()).
type Rank int

// MessagingRuntime is the message-passing collaborator the rest of this
// module is built against. A real implementation might wrap an MPI
// communicator or a gRPC mesh; MockRuntime is an in-process simulation used
// by this module's own tests and demo commands.
//
// Index- and count-shaped metadata (ranks, global indices, per-peer counts)
// always travels as int. Bulk element data (the payload moved by a
// Forward/Backward chunk transfer) travels as raw bytes: transported
// element types must be trivially copyable with a stable binary
// representation, so callers marshal their chunk type to bytes themselves
// (see arraytools.BytesOf) rather than the runtime knowing about element types.
//
// Implementations must support exactly one in-flight collective per process
// at a time; this module never issues two concurrent collectives against
// the same runtime instance.
type MessagingRuntime interface {
	// Rank returns this process's identity, in [0, Size()).
	Rank() Rank

	// Size returns the number of participating processes.
	Size() int

	// AllToAll exchanges exactly one int per peer: send[r] is the value
	// destined for rank r, and the returned slice has recv[r] equal to
	// the value rank r sent here. len(send) must equal Size().
	AllToAll(ctx context.Context, send []int) ([]int, error)

	// AllGather exchanges a single int per process, returning a slice of
	// length Size() with the value contributed by each rank, in rank
	// order.
	AllGather(ctx context.Context, value int) ([]int, error)

	// AllToAllVarInt performs a variable-count all-to-all of int values
	// (global indices, chiefly). sendCounts/sendDispl/recvCounts/recvDispl
	// each have length Size(); displacements are exclusive prefix sums
	// over the matching counts. sendBuf must have length
	// sum(sendCounts), and the returned slice has length sum(recvCounts).
	AllToAllVarInt(ctx context.Context, sendBuf []int, sendCounts, sendDispl, recvCounts, recvDispl []int) ([]int, error)

	// AllToAllVarBytes is the byte-level counterpart of AllToAllVarInt,
	// used to move chunked element payloads. Counts/displacements are
	// measured in bytes.
	AllToAllVarBytes(ctx context.Context, sendBuf []byte, sendCounts, sendDispl, recvCounts, recvDispl []int) ([]byte, error)
}
