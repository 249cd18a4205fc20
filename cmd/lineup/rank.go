package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/lineup/internal/rank"
	"github.com/steveyegge/lineup/internal/types"
)

func newRankCmd(a *app) *cobra.Command {
	var partition string

	cmd := &cobra.Command{
		Use:     "rank [prev] [next]",
		GroupID: "setup",
		Short:   "Compute the rank the allocator would assign between two ranks",
		Long: `Runs the rank allocator without touching any store. Use "-" for a missing
neighbour. With no arguments it prints the partition's default rank.`,
		Example: `  lineup rank 5000000000
  lineup rank 5000000000 K000000000
  lineup rank - - --partition completed`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParsePartition(partition)
			if err != nil {
				return err
			}
			var bounds [2]*rank.Rank
			for i, arg := range args {
				if arg == "-" || arg == "" {
					continue
				}
				r := rank.Rank(strings.ToUpper(arg)).Pad()
				if !r.Valid() {
					return fmt.Errorf("invalid rank %q: use symbols %s", arg, rank.Alphabet)
				}
				bounds[i] = &r
			}

			r := rank.Allocate(bounds[0], bounds[1], p)
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
					"rank":      r.String(),
					"partition": r.Partition(),
					"prev":      rankOrNil(bounds[0]),
					"next":      rankOrNil(bounds[1]),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r)
			return err
		},
	}
	cmd.Flags().StringVarP(&partition, "partition", "p", string(types.PartitionIncomplete), "Partition: incomplete or completed")
	return cmd
}

func rankOrNil(r *rank.Rank) interface{} {
	if r == nil {
		return nil
	}
	return r.String()
}
