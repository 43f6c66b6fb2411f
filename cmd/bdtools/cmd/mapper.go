package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bempp/distributed-tools/indexlayout"
	"github.com/bempp/distributed-tools/mapper"
	"github.com/bempp/distributed-tools/runtime"
)

var mapperCmd = &cobra.Command{
	Use:   "mapper",
	Short: "Run the two-rank global-to-local data mapper demo",
	Long: `Two simulated ranks each own 5 indices under a from-local-counts
layout. Each asks for an arbitrary, duplicate-laden list of required
indices and the command reports the gathered vector, which should equal
the required list verbatim since every rank's local data is the identity.`,
	RunE: runMapper,
}

func runMapper(cmd *cobra.Command, args []string) error {
	const nIndices = 5
	required := map[int][]int{
		0: {0, 1, 2, 3, 6, 9, 5, 2, 1},
		1: {0, 1, 2, 0, 6, 9, 2, 0},
	}

	return runtime.RunRanks(context.Background(), 2, func(ctx context.Context, rt runtime.MessagingRuntime) error {
		rank := int(rt.Rank())
		layout, err := indexlayout.NewFromLocalCounts(ctx, nIndices, rt)
		if err != nil {
			return errors.Wrap(err, "building layout")
		}

		m, err := mapper.New(ctx, layout, required[rank], rt)
		if err != nil {
			return errors.Wrap(err, "building mapper")
		}

		data := make([]int, nIndices)
		for i := range data {
			data[i] = rank*nIndices + i
		}

		out, err := mapper.Map[int](ctx, m, data, 1, rt)
		if err != nil {
			return errors.Wrap(err, "mapping data")
		}

		fmt.Printf("rank %d: required=%v mapped=%v\n", rank, required[rank], out)
		return nil
	})
}
