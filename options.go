package aoti

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultModelName is the model selected within a package when no
// WithModelName option is given.
const DefaultModelName = "model"

// validate is a package-level singleton; constructing a validator per call
// is expensive.
var validate = validator.New()

// config holds loader construction parameters. It is consumed once by Load.
type config struct {
	Path              string `validate:"required"`
	ModelName         string `validate:"required"`
	NumRunners        int    `validate:"min=1"`
	DeviceIndex       int8
	RunSingleThreaded bool

	logger *zap.Logger
}

func defaultConfig(path string) config {
	return config{
		Path:        path,
		ModelName:   DefaultModelName,
		NumRunners:  1,
		DeviceIndex: -1,
		logger:      zap.NewNop(),
	}
}

func (c *config) check() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid loader configuration")
	}
	return nil
}

// Option configures loader construction.
type Option func(*config)

// WithModelName selects the model within the package (default "model").
func WithModelName(name string) Option {
	return func(c *config) {
		c.ModelName = name
	}
}

// WithNumRunners sets the size of the native runner pool (default 1).
// With more than one runner the native loader can serve concurrent calls.
func WithNumRunners(n int) Option {
	return func(c *config) {
		c.NumRunners = n
	}
}

// WithDeviceIndex sets the CUDA device ordinal. The default of -1 selects
// the current default device.
func WithDeviceIndex(index int8) Option {
	return func(c *config) {
		c.DeviceIndex = index
	}
}

// WithSingleThreaded runs the loader in single-threaded mode, avoiding
// thread synchronization overhead. Useful when running under CUDA graphs.
func WithSingleThreaded(singleThreaded bool) Option {
	return func(c *config) {
		c.RunSingleThreaded = singleThreaded
	}
}

// WithLogger attaches a logger to the loader. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
