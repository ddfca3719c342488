package treecli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newFlushCommand(log *logrus.Logger, filePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Force the tree's node pool to durable storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTree(*filePath, log)
			if err != nil {
				return err
			}
			defer t.Close()
			return t.Flush()
		},
	}
}

func newCompactCommand(log *logrus.Logger, filePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Shrink the node-pool mapping to the pool's current node count",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := openTree(*filePath, log)
			if err != nil {
				return err
			}
			defer t.Close()
			return t.Compact()
		},
	}
}
