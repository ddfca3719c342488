// Package treecli implements the vmtreectl command tree on Cobra, the CLI
// framework the rest of the retrieved example pack
// (intel-cri-resource-manager, gardener-extension-cri-rm) builds its own
// command surfaces on.
package treecli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the vmtreectl command tree: stat, range, flush,
// and compact, each operating on a uint64-keyed tree file named by
// the --file flag.
func NewRootCommand(log *logrus.Logger) *cobra.Command {
	var filePath string

	root := &cobra.Command{
		Use:   "vmtreectl",
		Short: "Inspect and maintain vmtree B+ tree files",
	}
	root.PersistentFlags().StringVar(&filePath, "file", "", "path to the tree file")
	root.MarkPersistentFlagRequired("file")

	root.AddCommand(newStatCommand(log, &filePath))
	root.AddCommand(newRangeCommand(log, &filePath))
	root.AddCommand(newFlushCommand(log, &filePath))
	root.AddCommand(newCompactCommand(log, &filePath))

	return root
}
