package runtime

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MockRuntime is an in-process MessagingRuntime double: Size() ranks
// simulated as goroutines in the same process, synchronized by a shared
// barrier instead of real sockets. It exists purely as ambient test/demo
// infrastructure and plays the role the teacher's TCP-connected server
// processes played, minus the network: NewMockGroup stands in for starting
// NUM_PROCS separate server instances, and each collective call here stands
// in for one round of the teacher's broadcast/fetchMessages exchange.
type MockRuntime struct {
	rank  Rank
	group *mockGroup
}

// NewMockGroup builds size MockRuntime handles, one per simulated rank,
// sharing the same collective-synchronization state. size must be >= 1.
func NewMockGroup(size int) []*MockRuntime {
	if size < 1 {
		panic("runtime: NewMockGroup requires size >= 1")
	}
	g := newMockGroup(size)
	runtimes := make([]*MockRuntime, size)
	for r := 0; r < size; r++ {
		runtimes[r] = &MockRuntime{rank: Rank(r), group: g}
	}
	return runtimes
}

// RunRanks drives an SPMD program against size simulated ranks: fn is
// invoked once per rank, concurrently, each with its own MessagingRuntime
// handle into the same MockRuntime group. If any invocation returns an
// error, the remaining ones are left to fail their next collective (their
// context is canceled) and the first error is returned.
func RunRanks(ctx context.Context, size int, fn func(ctx context.Context, rt MessagingRuntime) error) error {
	runtimes := NewMockGroup(size)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, rt := range runtimes {
		rt := rt
		eg.Go(func() error {
			return fn(egCtx, rt)
		})
	}
	return eg.Wait()
}

func (m *MockRuntime) Rank() Rank { return m.rank }
func (m *MockRuntime) Size() int  { return m.group.size }

func (m *MockRuntime) AllToAll(ctx context.Context, send []int) ([]int, error) {
	if len(send) != m.group.size {
		panic("runtime: AllToAll requires len(send) == Size()")
	}
	result, err := m.group.collective(ctx, m.rank, send, func(contributions []any) any {
		return combineAllToAll(contributions)
	})
	if err != nil {
		return nil, err
	}
	table := result.([][]int)
	return table[m.rank], nil
}

// combineAllToAll turns the per-source send vectors into a [size][size]
// table where table[dst][src] == contributions[src][dst], then the caller
// picks out its own row.
func combineAllToAll(contributions []any) [][]int {
	size := len(contributions)
	table := make([][]int, size)
	for dst := 0; dst < size; dst++ {
		table[dst] = make([]int, size)
		for src := 0; src < size; src++ {
			table[dst][src] = contributions[src].([]int)[dst]
		}
	}
	return table
}

func (m *MockRuntime) AllGather(ctx context.Context, value int) ([]int, error) {
	result, err := m.group.collective(ctx, m.rank, value, func(contributions []any) any {
		out := make([]int, len(contributions))
		for r, v := range contributions {
			out[r] = v.(int)
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return result.([]int), nil
}

type varIntContribution struct {
	buf                                    []int
	sendCounts, sendDispl, recvCounts, recvDispl []int
}

func (m *MockRuntime) AllToAllVarInt(ctx context.Context, sendBuf []int, sendCounts, sendDispl, recvCounts, recvDispl []int) ([]int, error) {
	size := m.group.size
	if len(sendCounts) != size || len(sendDispl) != size || len(recvCounts) != size || len(recvDispl) != size {
		panic("runtime: AllToAllVarInt count/displacement slices must have length Size()")
	}
	contribution := varIntContribution{sendBuf, sendCounts, sendDispl, recvCounts, recvDispl}
	result, err := m.group.collective(ctx, m.rank, contribution, func(contributions []any) any {
		return resolveVarInt(contributions)
	})
	if err != nil {
		return nil, err
	}
	return result.([][]int)[m.rank], nil
}

// resolveVarInt routes each source's outgoing blocks to their destinations
// and lets the destination's own recvCounts/recvDispl say where each
// incoming block lands in its receive buffer.
func resolveVarInt(contributions []any) [][]int {
	size := len(contributions)
	cs := make([]varIntContribution, size)
	for r, c := range contributions {
		cs[r] = c.(varIntContribution)
	}
	out := make([][]int, size)
	for dst := 0; dst < size; dst++ {
		total := 0
		if len(cs[dst].recvCounts) > 0 {
			total = cs[dst].recvDispl[size-1] + cs[dst].recvCounts[size-1]
		}
		out[dst] = make([]int, total)
	}
	for src := 0; src < size; src++ {
		for dst := 0; dst < size; dst++ {
			n := cs[src].sendCounts[dst]
			if n == 0 {
				continue
			}
			srcOff := cs[src].sendDispl[dst]
			dstOff := cs[dst].recvDispl[src]
			copy(out[dst][dstOff:dstOff+n], cs[src].buf[srcOff:srcOff+n])
		}
	}
	return out
}

type varBytesContribution struct {
	buf                                    []byte
	sendCounts, sendDispl, recvCounts, recvDispl []int
}

func (m *MockRuntime) AllToAllVarBytes(ctx context.Context, sendBuf []byte, sendCounts, sendDispl, recvCounts, recvDispl []int) ([]byte, error) {
	size := m.group.size
	if len(sendCounts) != size || len(sendDispl) != size || len(recvCounts) != size || len(recvDispl) != size {
		panic("runtime: AllToAllVarBytes count/displacement slices must have length Size()")
	}
	contribution := varBytesContribution{sendBuf, sendCounts, sendDispl, recvCounts, recvDispl}
	result, err := m.group.collective(ctx, m.rank, contribution, func(contributions []any) any {
		cs := make([]varBytesContribution, len(contributions))
		for r, c := range contributions {
			cs[r] = c.(varBytesContribution)
		}
		out := make([][]byte, len(cs))
		for dst := range cs {
			total := 0
			if len(cs[dst].recvCounts) > 0 {
				total = cs[dst].recvDispl[len(cs)-1] + cs[dst].recvCounts[len(cs)-1]
			}
			out[dst] = make([]byte, total)
		}
		for src := range cs {
			for dst := range cs {
				n := cs[src].sendCounts[dst]
				if n == 0 {
					continue
				}
				srcOff := cs[src].sendDispl[dst]
				dstOff := cs[dst].recvDispl[src]
				copy(out[dst][dstOff:dstOff+n], cs[src].buf[srcOff:srcOff+n])
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return result.([][]byte)[m.rank], nil
}

// mockGroup is the shared rendezvous state for one simulated MessagingRuntime
// group: every rank must arrive at a collective before any of them leaves it.
type mockGroup struct {
	size int

	mu           sync.Mutex
	contribution []any
	arrived      int
	combine      func([]any) any
	result       any
	done         chan struct{}
}

func newMockGroup(size int) *mockGroup {
	return &mockGroup{
		size:         size,
		contribution: make([]any, size),
		done:         make(chan struct{}),
	}
}

// collective implements a single barrier round: every rank contributes a
// value, the last arrival computes the shared result via combine, and every
// rank observes that same result.
func (g *mockGroup) collective(ctx context.Context, rank Rank, contribution any, combine func([]any) any) (any, error) {
	g.mu.Lock()
	g.contribution[rank] = contribution
	g.arrived++
	g.combine = combine
	done := g.done

	if g.arrived == g.size {
		g.result = g.combine(g.contribution)
		// Reset for the next round before releasing waiters so a rank
		// that immediately re-enters sees fresh state.
		g.contribution = make([]any, g.size)
		g.arrived = 0
		g.done = make(chan struct{})
		close(done)
		g.mu.Unlock()
		return g.result, nil
	}
	g.mu.Unlock()

	select {
	case <-done:
		g.mu.Lock()
		result := g.result
		g.mu.Unlock()
		return result, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "runtime: collective canceled while waiting for peers")
	}
}
