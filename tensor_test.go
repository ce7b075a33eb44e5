package aoti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestNumelOf(t *testing.T) {
	assert.Equal(t, int64(1), numelOf(nil), "scalar shape has one element")
	assert.Equal(t, int64(6), numelOf([]int64{2, 3}))
	assert.Equal(t, int64(0), numelOf([]int64{2, 0, 3}))
}

func TestConstructorsRejectShapeMismatch(t *testing.T) {
	_, err := FromFloat32([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match shape")

	_, err = FromFloat64([]float64{1}, 3)
	require.Error(t, err)

	_, err = FromInt32([]int32{1, 2}, 1)
	require.Error(t, err)

	_, err = FromInt64(nil, 4)
	require.Error(t, err)

	_, err = FromFloat16([]float16.Float16{float16.Fromfloat32(1.5)}, 2)
	require.Error(t, err)
}

func TestDTypeSize(t *testing.T) {
	assert.Equal(t, 1, Uint8.Size())
	assert.Equal(t, 1, Bool.Size())
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 2, BFloat16.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 8, Int64.Size())
	assert.Equal(t, 0, DType(99).Size())
}

func TestDTypeString(t *testing.T) {
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "int64", Int64.String())
	assert.Equal(t, "DType(99)", DType(99).String())
}

func TestDeviceString(t *testing.T) {
	assert.Equal(t, "cpu", Device{Type: CPU, Index: -1}.String())
	assert.Equal(t, "cuda", Device{Type: CUDA, Index: -1}.String())
	assert.Equal(t, "cuda:1", Device{Type: CUDA, Index: 1}.String())
}

func TestClosedTensor(t *testing.T) {
	tensor := &Tensor{}
	tensor.Close() // no-op on a tensor without a handle

	assert.Nil(t, tensor.Shape())
	assert.Equal(t, int64(0), tensor.Numel())
	assert.Equal(t, DType(-1), tensor.DType())

	_, err := tensor.Float32s()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = tensor.Int64s()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = tensor.Float16s()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBorrowTensorsRejectsReleasedInput(t *testing.T) {
	_, err := borrowTensors([]*Tensor{{}})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = borrowTensors([]*Tensor{nil})
	assert.ErrorIs(t, err, ErrClosed)
}
