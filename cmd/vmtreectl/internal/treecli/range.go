package treecli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRangeCommand(log *logrus.Logger, filePath *string) *cobra.Command {
	var from, to uint64
	var limit int

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print values in [--from, --to) in sorted order",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTree(*filePath, log)
			if err != nil {
				return err
			}
			defer t.Close()

			printed := 0
			for it := t.Begin(); it.Valid(); it.Next() {
				v := it.Value()
				if v < from {
					continue
				}
				if v >= to {
					break
				}
				fmt.Println(v)
				printed++
				if limit > 0 && printed >= limit {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "inclusive lower bound")
	cmd.Flags().Uint64Var(&to, "to", ^uint64(0), "exclusive upper bound")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many values (0 = unlimited)")
	return cmd
}
