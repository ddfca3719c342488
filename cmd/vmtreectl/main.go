// Command vmtreectl inspects and maintains vmtree files from the shell:
// open a tree, print its depth/size, scan a key range, or force a flush
// or compaction. It binds the generic btree.Tree to
// a concrete uint64-keyed instantiation, the same way an embedding
// program would choose its own value type and Comparator/Codec pair.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sirgallo/vmtree/cmd/vmtreectl/internal/treecli"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := treecli.NewRootCommand(log).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
