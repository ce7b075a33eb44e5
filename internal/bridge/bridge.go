//go:build cgo

// Package bridge provides low-level cgo bindings to libtorch's AOTInductor
// model package loader.
//
// This package wraps the C++ shim in aoti_bridge.cc and exposes Go-friendly
// APIs for loading .pt2 model packages, running inference, and querying
// package metadata. Every native call site catches C++ exceptions on the
// native side and reports them here as errors; no exception ever unwinds
// across the boundary.
package bridge

/*
#cgo CXXFLAGS: -std=c++17
#cgo LDFLAGS: -ltorch -ltorch_cpu -lc10 -lstdc++
#include "bridge.h"
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// takeError consumes the message of a failed boundary call. The message is
// malloc'd on the native side and freed here.
func takeError(cerr *C.AotiError, op string) error {
	msg := "unknown error"
	if cerr.message != nil {
		msg = C.GoString(cerr.message)
		C.free(unsafe.Pointer(cerr.message))
	}
	return fmt.Errorf("%s: %s", op, msg)
}

// Loader owns a native AOTIModelPackageLoader handle. It is not safe for
// concurrent use; the caller serializes calls.
type Loader struct {
	handle C.AotiLoader
}

// NewLoader loads a .pt2 model package and constructs the native loader.
// A negative deviceIndex selects the current default device.
func NewLoader(path, modelName string, runSingleThreaded bool, numRunners int, deviceIndex int) (*Loader, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cName := C.CString(modelName)
	defer C.free(unsafe.Pointer(cName))

	var cerr C.AotiError
	handle := C.aoti_loader_new(cPath, cName, C.bool(runSingleThreaded),
		C.size_t(numRunners), C.int8_t(deviceIndex), &cerr)
	if handle == nil {
		return nil, takeError(&cerr, "load model package")
	}
	return &Loader{handle: handle}, nil
}

// Close releases the native loader. Safe to call more than once.
func (l *Loader) Close() {
	if l.handle != nil {
		C.aoti_loader_free(l.handle)
		l.handle = nil
	}
}

// Valid reports whether the loader still owns a native handle.
func (l *Loader) Valid() bool {
	return l.handle != nil
}

// borrowHandles builds the C array of borrowed input handles. The array and
// the pointees are only valid for the duration of the call.
func borrowHandles(inputs []*Tensor) []C.AotiTensor {
	handles := make([]C.AotiTensor, len(inputs))
	for i, t := range inputs {
		handles[i] = t.handle
	}
	return handles
}

// adoptOutputs converts each owned handle in the returned C array into
// exactly one Tensor, then frees the array itself.
func adoptOutputs(couts *C.AotiTensor, n C.size_t) []*Tensor {
	outputs := make([]*Tensor, int(n))
	for i, handle := range unsafe.Slice(couts, int(n)) {
		outputs[i] = &Tensor{handle: handle}
	}
	C.aoti_tensor_array_free(couts)
	return outputs
}

// Run executes the model against the input tensors. Inputs are borrowed for
// the duration of the call; each returned tensor is owned by the caller and
// must be released with Close.
func (l *Loader) Run(inputs []*Tensor) ([]*Tensor, error) {
	handles := borrowHandles(inputs)
	var chandles *C.AotiTensor
	if len(handles) > 0 {
		chandles = &handles[0]
	}

	var n C.size_t
	var cerr C.AotiError
	couts := C.aoti_loader_run(l.handle, chandles, C.size_t(len(handles)), &n, &cerr)
	if couts == nil {
		return nil, takeError(&cerr, "run")
	}
	return adoptOutputs(couts, n), nil
}

// BoxedRun executes the model, allowing the native side to consume the input
// tensors' storage in place. The inputs must not be relied upon after this
// call returns.
func (l *Loader) BoxedRun(inputs []*Tensor) ([]*Tensor, error) {
	handles := borrowHandles(inputs)
	var chandles *C.AotiTensor
	if len(handles) > 0 {
		chandles = &handles[0]
	}

	var n C.size_t
	var cerr C.AotiError
	couts := C.aoti_loader_boxed_run(l.handle, chandles, C.size_t(len(handles)), &n, &cerr)
	if couts == nil {
		return nil, takeError(&cerr, "boxed_run")
	}
	return adoptOutputs(couts, n), nil
}

func goMetadata(centries *C.AotiMetadataEntry, n C.size_t) []MetadataEntry {
	entries := make([]MetadataEntry, int(n))
	for i, e := range unsafe.Slice(centries, int(n)) {
		entries[i] = MetadataEntry{
			Key:   C.GoString(e.key),
			Value: C.GoString(e.value),
		}
	}
	C.aoti_metadata_free(centries, n)
	return entries
}

func goStrings(cstrings **C.char, n C.size_t) []string {
	strings := make([]string, int(n))
	for i, s := range unsafe.Slice(cstrings, int(n)) {
		strings[i] = C.GoString(s)
	}
	C.aoti_string_array_free(cstrings, n)
	return strings
}

// Metadata returns the model's metadata entries in native order.
func (l *Loader) Metadata() ([]MetadataEntry, error) {
	var n C.size_t
	var cerr C.AotiError
	centries := C.aoti_loader_get_metadata(l.handle, &n, &cerr)
	if centries == nil {
		return nil, takeError(&cerr, "get_metadata")
	}
	return goMetadata(centries, n), nil
}

// CallSpec returns the model's input/output signature strings.
func (l *Loader) CallSpec() ([]string, error) {
	var n C.size_t
	var cerr C.AotiError
	cstrings := C.aoti_loader_get_call_spec(l.handle, &n, &cerr)
	if cstrings == nil {
		return nil, takeError(&cerr, "get_call_spec")
	}
	return goStrings(cstrings, n), nil
}

// ConstantFQNs returns the fully qualified names of the model's constants.
func (l *Loader) ConstantFQNs() ([]string, error) {
	var n C.size_t
	var cerr C.AotiError
	cstrings := C.aoti_loader_get_constant_fqns(l.handle, &n, &cerr)
	if cstrings == nil {
		return nil, takeError(&cerr, "get_constant_fqns")
	}
	return goStrings(cstrings, n), nil
}

// LoadMetadataFromPackage reads package metadata directly, without
// constructing a loader.
func LoadMetadataFromPackage(path, modelName string) ([]MetadataEntry, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cName := C.CString(modelName)
	defer C.free(unsafe.Pointer(cName))

	var n C.size_t
	var cerr C.AotiError
	centries := C.aoti_load_metadata_from_package(cPath, cName, &n, &cerr)
	if centries == nil {
		return nil, takeError(&cerr, "load_metadata_from_package")
	}
	return goMetadata(centries, n), nil
}

// Tensor owns a native at::Tensor handle.
type Tensor struct {
	handle C.AotiTensor
}

// NewTensor creates a zero-filled tensor with the given shape and
// at::ScalarType code.
func NewTensor(shape []int64, dtype int32) (*Tensor, error) {
	var cshape *C.int64_t
	if len(shape) > 0 {
		cshape = (*C.int64_t)(unsafe.Pointer(&shape[0]))
	}

	var cerr C.AotiError
	handle := C.aoti_tensor_create(cshape, C.int(len(shape)), C.int32_t(dtype), &cerr)
	if handle == nil {
		return nil, takeError(&cerr, "create tensor")
	}
	return &Tensor{handle: handle}, nil
}

// NewTensorFromData creates a tensor and copies data into it. The buffer is
// not retained past the call.
func NewTensorFromData(shape []int64, dtype int32, data unsafe.Pointer) (*Tensor, error) {
	var cshape *C.int64_t
	if len(shape) > 0 {
		cshape = (*C.int64_t)(unsafe.Pointer(&shape[0]))
	}

	var cerr C.AotiError
	handle := C.aoti_tensor_create_with_data(cshape, C.int(len(shape)), C.int32_t(dtype), data, &cerr)
	if handle == nil {
		return nil, takeError(&cerr, "create tensor")
	}
	return &Tensor{handle: handle}, nil
}

// Close releases the native tensor. Safe to call more than once.
func (t *Tensor) Close() {
	if t.handle != nil {
		C.aoti_tensor_free(t.handle)
		t.handle = nil
	}
}

// Valid reports whether the tensor still owns a native handle.
func (t *Tensor) Valid() bool {
	return t.handle != nil
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return int(C.aoti_tensor_rank(t.handle))
}

// Dim returns the size of the given dimension.
func (t *Tensor) Dim(axis int) int64 {
	return int64(C.aoti_tensor_dim(t.handle, C.int(axis)))
}

// Shape returns the shape as a slice.
func (t *Tensor) Shape() []int64 {
	rank := t.Rank()
	shape := make([]int64, rank)
	for i := 0; i < rank; i++ {
		shape[i] = t.Dim(i)
	}
	return shape
}

// DType returns the at::ScalarType code.
func (t *Tensor) DType() int32 {
	return int32(C.aoti_tensor_dtype(t.handle))
}

// DeviceType returns the c10::DeviceType code.
func (t *Tensor) DeviceType() int32 {
	return int32(C.aoti_tensor_device_type(t.handle))
}

// DeviceIndex returns the device ordinal, or -1 for the default device.
func (t *Tensor) DeviceIndex() int32 {
	return int32(C.aoti_tensor_device_index(t.handle))
}

// Numel returns the total number of elements.
func (t *Tensor) Numel() int64 {
	return int64(C.aoti_tensor_numel(t.handle))
}

// SizeBytes returns the total size in bytes.
func (t *Tensor) SizeBytes() int64 {
	return int64(C.aoti_tensor_size_bytes(t.handle))
}

// CopyData copies the tensor's contents into dst, moving it to CPU first if
// necessary. nbytes must equal SizeBytes.
func (t *Tensor) CopyData(dst unsafe.Pointer, nbytes int64) error {
	var cerr C.AotiError
	if !C.aoti_tensor_copy_data(t.handle, dst, C.size_t(nbytes), &cerr) {
		return takeError(&cerr, "copy tensor data")
	}
	return nil
}
