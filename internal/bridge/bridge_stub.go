//go:build !cgo

// Stubs for builds without cgo. Every boundary call fails with
// ErrUnavailable so dependent code still compiles and tests cleanly on
// hosts without libtorch.
package bridge

import "unsafe"

// Loader is a stub for builds without cgo.
type Loader struct{}

// NewLoader fails on builds without cgo.
func NewLoader(path, modelName string, runSingleThreaded bool, numRunners int, deviceIndex int) (*Loader, error) {
	return nil, ErrUnavailable
}

// Close is a stub.
func (l *Loader) Close() {}

// Valid is a stub.
func (l *Loader) Valid() bool { return false }

// Run is a stub.
func (l *Loader) Run(inputs []*Tensor) ([]*Tensor, error) {
	return nil, ErrUnavailable
}

// BoxedRun is a stub.
func (l *Loader) BoxedRun(inputs []*Tensor) ([]*Tensor, error) {
	return nil, ErrUnavailable
}

// Metadata is a stub.
func (l *Loader) Metadata() ([]MetadataEntry, error) {
	return nil, ErrUnavailable
}

// CallSpec is a stub.
func (l *Loader) CallSpec() ([]string, error) {
	return nil, ErrUnavailable
}

// ConstantFQNs is a stub.
func (l *Loader) ConstantFQNs() ([]string, error) {
	return nil, ErrUnavailable
}

// LoadMetadataFromPackage fails on builds without cgo.
func LoadMetadataFromPackage(path, modelName string) ([]MetadataEntry, error) {
	return nil, ErrUnavailable
}

// Tensor is a stub for builds without cgo.
type Tensor struct{}

// NewTensor fails on builds without cgo.
func NewTensor(shape []int64, dtype int32) (*Tensor, error) {
	return nil, ErrUnavailable
}

// NewTensorFromData fails on builds without cgo.
func NewTensorFromData(shape []int64, dtype int32, data unsafe.Pointer) (*Tensor, error) {
	return nil, ErrUnavailable
}

// Close is a stub.
func (t *Tensor) Close() {}

// Valid is a stub.
func (t *Tensor) Valid() bool { return false }

// Rank is a stub.
func (t *Tensor) Rank() int { return 0 }

// Dim is a stub.
func (t *Tensor) Dim(axis int) int64 { return 0 }

// Shape is a stub.
func (t *Tensor) Shape() []int64 { return nil }

// DType is a stub.
func (t *Tensor) DType() int32 { return 0 }

// DeviceType is a stub.
func (t *Tensor) DeviceType() int32 { return 0 }

// DeviceIndex is a stub.
func (t *Tensor) DeviceIndex() int32 { return 0 }

// Numel is a stub.
func (t *Tensor) Numel() int64 { return 0 }

// SizeBytes is a stub.
func (t *Tensor) SizeBytes() int64 { return 0 }

// CopyData is a stub.
func (t *Tensor) CopyData(dst unsafe.Pointer, nbytes int64) error {
	return ErrUnavailable
}
