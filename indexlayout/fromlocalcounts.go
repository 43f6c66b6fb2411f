package indexlayout

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bempp/distributed-tools/runtime"
)

// FromLocalCounts is a collective construction: it all-gathers each rank's
// own local_count and prefix-sums the result, so every rank ends up with
// the same global boundaries without anyone knowing the total N in
// advance.
type FromLocalCounts struct {
	base
}

// NewFromLocalCounts blocks until every participant in rt has called it
// with its own localCount.
func NewFromLocalCounts(ctx context.Context, localCount int, rt runtime.MessagingRuntime) (*FromLocalCounts, error) {
	if localCount < 0 {
		panic("indexlayout: NewFromLocalCounts requires localCount >= 0")
	}

	gathered, err := rt.AllGather(ctx, localCount)
	if err != nil {
		return nil, errors.Wrap(err, "indexlayout: gathering local counts")
	}

	counts := make([]int, len(gathered)+1)
	for i, c := range gathered {
		counts[i+1] = counts[i] + c
	}

	return &FromLocalCounts{base: newBase(counts, int(rt.Rank()))}, nil
}
