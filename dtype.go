package aoti

import "fmt"

// DType identifies a tensor element type. Values mirror libtorch's
// at::ScalarType codes so they cross the boundary unchanged.
type DType int32

const (
	Uint8    DType = 0
	Int8     DType = 1
	Int16    DType = 2
	Int32    DType = 3
	Int64    DType = 4
	Float16  DType = 5
	Float32  DType = 6
	Float64  DType = 7
	Bool     DType = 11
	BFloat16 DType = 15
)

// Size returns the element size in bytes, or 0 for an unknown dtype.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8, Bool:
		return 1
	case Int16, Float16, BFloat16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case BFloat16:
		return "bfloat16"
	default:
		return fmt.Sprintf("DType(%d)", int32(d))
	}
}

// DeviceType identifies where tensor storage lives. Values mirror libtorch's
// c10::DeviceType codes.
type DeviceType int32

const (
	CPU  DeviceType = 0
	CUDA DeviceType = 1
)

func (d DeviceType) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return fmt.Sprintf("DeviceType(%d)", int32(d))
	}
}

// Device is a tensor's placement: a device type plus an ordinal.
// Index -1 means the current default device of that type.
type Device struct {
	Type  DeviceType
	Index int32
}

func (d Device) String() string {
	if d.Index < 0 {
		return d.Type.String()
	}
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}
