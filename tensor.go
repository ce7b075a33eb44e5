package aoti

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/avtrujillo/go-aoti/internal/bridge"
)

// Tensor is a host-owned handle to a native at::Tensor. Tensors returned by
// a Loader transfer ownership to the caller; release each one with Close
// when done. A Tensor is not safe for concurrent mutation.
type Tensor struct {
	t *bridge.Tensor
}

// numelOf returns the element count implied by shape. An empty shape is a
// scalar with one element.
func numelOf(shape []int64) int64 {
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func checkShape(dataLen int, shape []int64) error {
	if n := numelOf(shape); int64(dataLen) != n {
		return errors.Errorf("data length %d does not match shape %v (%d elements)", dataLen, shape, n)
	}
	return nil
}

func newTensorFromData(data unsafe.Pointer, dtype DType, shape []int64) (*Tensor, error) {
	t, err := bridge.NewTensorFromData(shape, int32(dtype), data)
	if err != nil {
		return nil, err
	}
	return &Tensor{t: t}, nil
}

// Zeros creates a zero-filled CPU tensor.
func Zeros(dtype DType, shape ...int64) (*Tensor, error) {
	t, err := bridge.NewTensor(shape, int32(dtype))
	if err != nil {
		return nil, err
	}
	return &Tensor{t: t}, nil
}

// FromFloat32 creates a CPU tensor from float32 data in row-major order.
// The slice is copied; it is not retained past the call.
func FromFloat32(data []float32, shape ...int64) (*Tensor, error) {
	if err := checkShape(len(data), shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return Zeros(Float32, shape...)
	}
	return newTensorFromData(unsafe.Pointer(&data[0]), Float32, shape)
}

// FromFloat64 creates a CPU tensor from float64 data in row-major order.
func FromFloat64(data []float64, shape ...int64) (*Tensor, error) {
	if err := checkShape(len(data), shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return Zeros(Float64, shape...)
	}
	return newTensorFromData(unsafe.Pointer(&data[0]), Float64, shape)
}

// FromInt32 creates a CPU tensor from int32 data in row-major order.
func FromInt32(data []int32, shape ...int64) (*Tensor, error) {
	if err := checkShape(len(data), shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return Zeros(Int32, shape...)
	}
	return newTensorFromData(unsafe.Pointer(&data[0]), Int32, shape)
}

// FromInt64 creates a CPU tensor from int64 data in row-major order.
func FromInt64(data []int64, shape ...int64) (*Tensor, error) {
	if err := checkShape(len(data), shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return Zeros(Int64, shape...)
	}
	return newTensorFromData(unsafe.Pointer(&data[0]), Int64, shape)
}

// FromFloat16 creates a CPU half-precision tensor. float16.Float16 shares
// IEEE 754 binary16 representation with at::Half, so the bits are copied
// unchanged.
func FromFloat16(data []float16.Float16, shape ...int64) (*Tensor, error) {
	if err := checkShape(len(data), shape); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return Zeros(Float16, shape...)
	}
	return newTensorFromData(unsafe.Pointer(&data[0]), Float16, shape)
}

// Close releases the native tensor. Safe to call more than once.
func (t *Tensor) Close() {
	if t.t != nil {
		t.t.Close()
	}
}

func (t *Tensor) valid() bool {
	return t.t != nil && t.t.Valid()
}

// Shape returns the tensor's dimensions, or nil if it has been released.
func (t *Tensor) Shape() []int64 {
	if !t.valid() {
		return nil
	}
	return t.t.Shape()
}

// DType returns the tensor's element type.
func (t *Tensor) DType() DType {
	if !t.valid() {
		return DType(-1)
	}
	return DType(t.t.DType())
}

// Device returns where the tensor's storage lives.
func (t *Tensor) Device() Device {
	if !t.valid() {
		return Device{Type: DeviceType(-1)}
	}
	return Device{Type: DeviceType(t.t.DeviceType()), Index: t.t.DeviceIndex()}
}

// Numel returns the total number of elements.
func (t *Tensor) Numel() int64 {
	if !t.valid() {
		return 0
	}
	return t.t.Numel()
}

// require checks the tensor is live and of the given dtype before data
// extraction.
func (t *Tensor) require(dtype DType) error {
	if !t.valid() {
		return ErrClosed
	}
	if got := DType(t.t.DType()); got != dtype {
		return errors.Errorf("tensor is %s, not %s", got, dtype)
	}
	return nil
}

// Float32s copies the tensor's contents into a new float32 slice, moving the
// data to CPU first if necessary.
func (t *Tensor) Float32s() ([]float32, error) {
	if err := t.require(Float32); err != nil {
		return nil, err
	}
	out := make([]float32, t.t.Numel())
	if len(out) == 0 {
		return out, nil
	}
	if err := t.t.CopyData(unsafe.Pointer(&out[0]), t.t.SizeBytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// Float64s copies the tensor's contents into a new float64 slice.
func (t *Tensor) Float64s() ([]float64, error) {
	if err := t.require(Float64); err != nil {
		return nil, err
	}
	out := make([]float64, t.t.Numel())
	if len(out) == 0 {
		return out, nil
	}
	if err := t.t.CopyData(unsafe.Pointer(&out[0]), t.t.SizeBytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// Int32s copies the tensor's contents into a new int32 slice.
func (t *Tensor) Int32s() ([]int32, error) {
	if err := t.require(Int32); err != nil {
		return nil, err
	}
	out := make([]int32, t.t.Numel())
	if len(out) == 0 {
		return out, nil
	}
	if err := t.t.CopyData(unsafe.Pointer(&out[0]), t.t.SizeBytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// Int64s copies the tensor's contents into a new int64 slice.
func (t *Tensor) Int64s() ([]int64, error) {
	if err := t.require(Int64); err != nil {
		return nil, err
	}
	out := make([]int64, t.t.Numel())
	if len(out) == 0 {
		return out, nil
	}
	if err := t.t.CopyData(unsafe.Pointer(&out[0]), t.t.SizeBytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// Float16s copies the tensor's contents into a new float16 slice.
func (t *Tensor) Float16s() ([]float16.Float16, error) {
	if err := t.require(Float16); err != nil {
		return nil, err
	}
	out := make([]float16.Float16, t.t.Numel())
	if len(out) == 0 {
		return out, nil
	}
	if err := t.t.CopyData(unsafe.Pointer(&out[0]), t.t.SizeBytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// borrowTensors collects the bridge handles of the inputs for one boundary
// call. Fails if any input has already been released.
func borrowTensors(inputs []*Tensor) ([]*bridge.Tensor, error) {
	borrowed := make([]*bridge.Tensor, len(inputs))
	for i, t := range inputs {
		if t == nil || !t.valid() {
			return nil, errors.Wrapf(ErrClosed, "input %d", i)
		}
		borrowed[i] = t.t
	}
	return borrowed, nil
}

// adoptTensors wraps owned bridge tensors returned by a boundary call. Each
// bridge tensor is adopted exactly once.
func adoptTensors(outputs []*bridge.Tensor) []*Tensor {
	tensors := make([]*Tensor, len(outputs))
	for i, t := range outputs {
		tensors[i] = &Tensor{t: t}
	}
	return tensors
}
