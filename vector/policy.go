package vector

import "github.com/sirgallo/vmtree/vm"

// InitPolicy selects what happens to newly-exposed slots when a Vector
// grows. The B+ tree pool always uses NoInit: a freshly
// allocated node slot is meaningful only once its header is written, and
// zeroing or default-constructing it first would be wasted work on the
// hot insert path.
type InitPolicy int

const (
	// NoInit leaves new slots with indeterminate contents.
	NoInit InitPolicy = iota
	// DefaultInit writes the Go zero value into every new slot, the same
	// as ValueInit.
	DefaultInit
	// ValueInit explicitly constructs every new slot to its zero value,
	// regardless of what the backing storage would have given for free.
	ValueInit
)

// OpenPolicy re-exports vm.OpenPolicy: the vector layer doesn't add any
// policy of its own over the file-open semantics the VM layer already
// defines.
type OpenPolicy = vm.OpenPolicy

const (
	CreateNew                   = vm.CreateNew
	CreateNewOrTruncateExisting = vm.CreateNewOrTruncateExisting
	OpenExisting                = vm.OpenExisting
	OpenOrCreate                = vm.OpenOrCreate
	OpenAndTruncateExisting     = vm.OpenAndTruncateExisting
)
