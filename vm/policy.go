package vm

import "os"

// AccessMode mirrors the access mode parameter accepted by map operations
// throughout the stack. It never encodes OS mapping flag bit layouts
// directly -- that translation lives in region_unix.go / region_windows.go.
type AccessMode int

const (
	// AccessNone maps no permissions; useful for reserving address space
	// a caller intends to commit piecemeal later.
	AccessNone AccessMode = iota
	// AccessRead maps the region read-only.
	AccessRead
	// AccessReadWrite maps the region read-write. Required for any
	// mutating vector.Vector or btree.Tree operation.
	AccessReadWrite
	// AccessReadExecute maps the region read-execute.
	AccessReadExecute
)

// Backing identifies what physical storage underlies a Region.
type Backing int

const (
	// BackingAnonymous regions have no file behind them; contents do not
	// survive process exit.
	BackingAnonymous Backing = iota
	// BackingFile regions are backed by an os.File at some byte Offset.
	BackingFile
)

// OpenPolicy selects how vector.Open (and therefore btree.OpenFile)
// treats an existing or missing backing file. This is the opaque policy
// parameter handed to callers; the mapping onto OS-level
// O_CREAT/O_EXCL/O_TRUNC bits lives entirely in this package.
type OpenPolicy int

const (
	// CreateNew fails if the file already exists.
	CreateNew OpenPolicy = iota
	// CreateNewOrTruncateExisting always starts from an empty file.
	CreateNewOrTruncateExisting
	// OpenExisting fails if the file is missing.
	OpenExisting
	// OpenOrCreate opens the file if present, creates an empty one otherwise.
	OpenOrCreate
	// OpenAndTruncateExisting fails if missing, else truncates to zero and
	// re-initializes.
	OpenAndTruncateExisting
)

// osFileFlags translates an OpenPolicy into the os.OpenFile flag bits for
// the given path, reporting whether the file is expected to start empty.
func osFileFlags(policy OpenPolicy, path string) (flags int, truncateExisting bool, err error) {
	switch policy {
	case CreateNew:
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, false, nil
	case CreateNewOrTruncateExisting:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, false, nil
	case OpenExisting:
		if _, statErr := os.Stat(path); statErr != nil {
			return 0, false, statErr
		}
		return os.O_RDWR, false, nil
	case OpenOrCreate:
		return os.O_RDWR | os.O_CREATE, false, nil
	case OpenAndTruncateExisting:
		if _, statErr := os.Stat(path); statErr != nil {
			return 0, false, statErr
		}
		return os.O_RDWR | os.O_TRUNC, true, nil
	default:
		return os.O_RDWR | os.O_CREATE, false, nil
	}
}

// OpenFile opens (or creates) path per policy and reports whether the
// resulting file is freshly-initialized (empty) storage.
func OpenFile(path string, policy OpenPolicy) (file *os.File, fresh bool, err error) {
	flags, truncated, flagErr := osFileFlags(policy, path)
	if flagErr != nil {
		return nil, false, flagErr
	}

	f, openErr := os.OpenFile(path, flags, 0600)
	if openErr != nil {
		return nil, false, openErr
	}

	stat, statErr := f.Stat()
	if statErr != nil {
		f.Close()
		return nil, false, statErr
	}

	return f, truncated || stat.Size() == 0, nil
}
