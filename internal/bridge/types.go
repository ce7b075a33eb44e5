package bridge

import "errors"

// MetadataEntry is one key/value pair of model package metadata. Entries are
// returned in the order the native loader reports them; duplicate keys are
// possible and left to the caller to resolve.
type MetadataEntry struct {
	Key   string
	Value string
}

// ErrUnavailable is returned by every boundary call when the package was
// built without cgo and no native libtorch is linked in.
var ErrUnavailable = errors.New("go-aoti built without cgo: libtorch bindings unavailable")
