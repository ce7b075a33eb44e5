package aoti

import "github.com/pkg/errors"

// ErrClosed is returned when an operation is attempted on a Loader or Tensor
// whose native handle has already been released. It marks a local contract
// violation, distinct from failures raised by libtorch itself.
var ErrClosed = errors.New("aoti: native handle has been released")
