package aoti_test

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/avtrujillo/go-aoti"
)

// These tests exercise the full boundary and need a real AOTInductor package.
// Set AOTI_TEST_PACKAGE to a .pt2 path to enable them, and
// AOTI_TEST_INPUT_SHAPE (e.g. "1,3") for the tests that run inference with a
// single float32 input.

func testPackage(t *testing.T) string {
	t.Helper()
	path := os.Getenv("AOTI_TEST_PACKAGE")
	if path == "" {
		t.Skip("AOTI_TEST_PACKAGE not set")
	}
	return path
}

func testInput(t *testing.T) *aoti.Tensor {
	t.Helper()
	raw := os.Getenv("AOTI_TEST_INPUT_SHAPE")
	if raw == "" {
		t.Skip("AOTI_TEST_INPUT_SHAPE not set")
	}
	var shape []int64
	for _, part := range strings.Split(raw, ",") {
		dim, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			t.Fatalf("bad AOTI_TEST_INPUT_SHAPE %q: %v", raw, err)
		}
		shape = append(shape, dim)
	}

	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i) * 0.01
	}
	input, err := aoti.FromFloat32(data, shape...)
	if err != nil {
		t.Fatalf("FromFloat32() error = %v", err)
	}
	t.Cleanup(input.Close)
	return input
}

func TestLoadAndMetadata(t *testing.T) {
	path := testPackage(t)

	loader, err := aoti.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer loader.Close()

	metadata, err := loader.Metadata()
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if device, ok := metadata[aoti.DeviceKey]; ok {
		got, err := loader.Device()
		if err != nil {
			t.Fatalf("Device() error = %v", err)
		}
		if got != device {
			t.Errorf("Device() = %q, want %q", got, device)
		}
	} else {
		t.Logf("package defines no %s entry", aoti.DeviceKey)
	}

	// Static metadata access must agree with the loaded instance.
	static, err := aoti.LoadMetadataFromPackage(path)
	if err != nil {
		t.Fatalf("LoadMetadataFromPackage() error = %v", err)
	}
	if !reflect.DeepEqual(static, metadata) {
		t.Errorf("LoadMetadataFromPackage() = %v, want %v", static, metadata)
	}
}

func TestCallSpecAndConstants(t *testing.T) {
	loader, err := aoti.Load(testPackage(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer loader.Close()

	spec, err := loader.CallSpec()
	if err != nil {
		t.Fatalf("CallSpec() error = %v", err)
	}
	if len(spec) == 0 {
		t.Error("CallSpec() returned no entries")
	}

	if _, err := loader.ConstantFQNs(); err != nil {
		t.Fatalf("ConstantFQNs() error = %v", err)
	}
}

func TestRunMatchesBoxedRun(t *testing.T) {
	loader, err := aoti.Load(testPackage(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer loader.Close()

	outputs, err := loader.Run([]*aoti.Tensor{testInput(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, out := range outputs {
		defer out.Close()
	}
	if len(outputs) == 0 {
		t.Fatal("Run() returned no outputs")
	}

	// BoxedRun may consume its inputs, so it gets a fresh tensor.
	boxed, err := loader.BoxedRun([]*aoti.Tensor{testInput(t)})
	if err != nil {
		t.Fatalf("BoxedRun() error = %v", err)
	}
	for _, out := range boxed {
		defer out.Close()
	}

	if len(boxed) != len(outputs) {
		t.Fatalf("BoxedRun() returned %d outputs, Run() returned %d", len(boxed), len(outputs))
	}
	for i := range outputs {
		if !reflect.DeepEqual(outputs[i].Shape(), boxed[i].Shape()) {
			t.Errorf("output %d: shape %v != %v", i, outputs[i].Shape(), boxed[i].Shape())
		}
		if outputs[i].DType() != boxed[i].DType() {
			t.Errorf("output %d: dtype %v != %v", i, outputs[i].DType(), boxed[i].DType())
			continue
		}
		if outputs[i].DType() != aoti.Float32 {
			continue
		}
		want, err := outputs[i].Float32s()
		if err != nil {
			t.Fatalf("Float32s() error = %v", err)
		}
		got, err := boxed[i].Float32s()
		if err != nil {
			t.Fatalf("Float32s() error = %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("output %d: boxed_run values differ from run", i)
		}
	}
}

func TestUseAfterClose(t *testing.T) {
	loader, err := aoti.Load(testPackage(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := loader.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := loader.Metadata(); !errors.Is(err, aoti.ErrClosed) {
		t.Errorf("Metadata() after Close: error = %v, want ErrClosed", err)
	}
	if _, err := loader.Run(nil); !errors.Is(err, aoti.ErrClosed) {
		t.Errorf("Run() after Close: error = %v, want ErrClosed", err)
	}
}
