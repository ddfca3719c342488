package treecli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newStatCommand(log *logrus.Logger, filePath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Print a tree's size, depth, and projected capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTree(*filePath, log)
			if err != nil {
				return err
			}
			defer t.Close()

			fmt.Printf("size: %d\n", t.Len())
			fmt.Printf("depth: %d\n", t.Depth())
			fmt.Printf("projected_capacity: %d\n", t.ProjectedCapacity())

			if verbose {
				fmt.Println(t.DebugString())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "also print per-node occupancy")
	return cmd
}
