// Package aoti provides Go bindings to libtorch's AOTInductor model package
// loader.
//
// An AOTInductor package (.pt2) contains a model compiled ahead of time by
// PyTorch, ready for direct execution without a Python runtime. This package
// loads such packages, runs inference against tensors, and exposes package
// metadata, delegating all graph execution and memory planning to libtorch.
//
// # Architecture
//
//   - internal/bridge: low-level cgo bindings via a C++ shim; every native
//     exception is caught at the boundary and converted to an error
//   - root package: resource-safe Loader and Tensor types over the bridge
//   - cmd/aoti-inspect: command-line tool for examining packages
//
// # Usage
//
//	loader, err := aoti.Load("model.pt2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer loader.Close()
//
//	input, err := aoti.FromFloat32(data, 1, 3, 224, 224)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer input.Close()
//
//	outputs, err := loader.Run([]*aoti.Tensor{input})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, out := range outputs {
//	    defer out.Close()
//	}
//
// # Requirements
//
// Building with cgo requires a libtorch installation. Point the compiler and
// linker at it when building:
//
//	export LIBTORCH=/path/to/libtorch
//	export CGO_CXXFLAGS="-I$LIBTORCH/include -I$LIBTORCH/include/torch/csrc/api/include"
//	export CGO_LDFLAGS="-L$LIBTORCH/lib -Wl,-rpath,$LIBTORCH/lib"
//
// Without cgo the package still compiles; every boundary call then fails
// with an "unavailable" error.
//
// # Concurrency
//
// A Loader serializes boundary calls on an internal mutex, so one instance
// may be shared across goroutines. Parallelism within a single inference
// call is governed by the native runner pool, sized with WithNumRunners.
package aoti
