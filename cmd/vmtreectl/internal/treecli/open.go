package treecli

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sirgallo/vmtree/btree"
	"github.com/sirgallo/vmtree/vector"
)

func openTree(path string, log *logrus.Logger) (*btree.Tree[uint64], error) {
	opts := btree.Options[uint64]{
		Comparator: btree.Uint64Comparator{},
		Codec:      btree.Uint64Codec{},
		Logger:     log,
	}

	t, err := btree.OpenFile[uint64](path, vector.OpenOrCreate, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "vmtreectl: opening %s", path)
	}
	return t, nil
}
