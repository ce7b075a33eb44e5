package aoti

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/avtrujillo/go-aoti/internal/bridge"
)

// DeviceKey is the metadata key under which a package records the device it
// was compiled for.
const DeviceKey = "AOTI_DEVICE_KEY"

// Loader is a loaded AOT-compiled model package, ready for inference. It
// exclusively owns the native loader handle; the handle is released exactly
// once, by Close.
//
// A Loader serializes its boundary calls internally, so sharing one across
// goroutines is safe, though calls block each other. The native runner pool
// (see WithNumRunners) parallelizes work within a call, not across calls.
type Loader struct {
	mu    sync.Mutex
	inner *bridge.Loader
	log   *zap.Logger
}

// Load opens a .pt2 model package and constructs the native loader.
//
//	loader, err := aoti.Load("resnet.pt2", aoti.WithDeviceIndex(0))
//	if err != nil { ... }
//	defer loader.Close()
func Load(path string, opts ...Option) (*Loader, error) {
	cfg := defaultConfig(path)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}

	start := time.Now()
	inner, err := bridge.NewLoader(cfg.Path, cfg.ModelName, cfg.RunSingleThreaded,
		cfg.NumRunners, int(cfg.DeviceIndex))
	if err != nil {
		return nil, errors.Wrapf(err, "load model %q", cfg.ModelName)
	}
	cfg.logger.Info("model package loaded",
		zap.String("path", cfg.Path),
		zap.String("model", cfg.ModelName),
		zap.Int("num_runners", cfg.NumRunners),
		zap.Int8("device_index", cfg.DeviceIndex),
		zap.Duration("elapsed", time.Since(start)))
	return &Loader{inner: inner, log: cfg.logger}, nil
}

// acquire returns the live bridge loader. Callers hold l.mu.
func (l *Loader) acquire() (*bridge.Loader, error) {
	if l.inner == nil || !l.inner.Valid() {
		return nil, ErrClosed
	}
	return l.inner, nil
}

// Run executes the model against the input tensors.
//
// Inputs are borrowed for the duration of the call and remain owned by the
// caller. Input count, shapes, dtypes, and device must match the compiled
// model's expectations; mismatches are reported by libtorch. Each returned
// tensor is owned by the caller and must be released with Close.
func (l *Loader) Run(inputs []*Tensor) ([]*Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inner, err := l.acquire()
	if err != nil {
		return nil, err
	}
	borrowed, err := borrowTensors(inputs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outputs, err := inner.Run(borrowed)
	if err != nil {
		return nil, err
	}
	l.log.Debug("run complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("outputs", len(outputs)),
		zap.Duration("elapsed", time.Since(start)))
	return adoptTensors(outputs), nil
}

// BoxedRun executes the model, allowing libtorch to consume the input
// tensors' storage in place for buffer reuse. The inputs may be invalidated
// by the call and must not be relied upon afterwards; callers opting into
// this trade the borrow guarantee of Run for performance.
func (l *Loader) BoxedRun(inputs []*Tensor) ([]*Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inner, err := l.acquire()
	if err != nil {
		return nil, err
	}
	borrowed, err := borrowTensors(inputs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outputs, err := inner.BoxedRun(borrowed)
	if err != nil {
		return nil, err
	}
	l.log.Debug("boxed_run complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("outputs", len(outputs)),
		zap.Duration("elapsed", time.Since(start)))
	return adoptTensors(outputs), nil
}

// metadataMap flattens ordered entries into a map. Later entries win when a
// key repeats.
func metadataMap(entries []bridge.MetadataEntry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}

// Metadata returns the model's metadata as a key-value map. Typical keys
// include DeviceKey, naming the device the package targets.
func (l *Loader) Metadata() (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inner, err := l.acquire()
	if err != nil {
		return nil, err
	}
	entries, err := inner.Metadata()
	if err != nil {
		return nil, err
	}
	return metadataMap(entries), nil
}

// Device returns the value of the DeviceKey metadata entry.
func (l *Loader) Device() (string, error) {
	metadata, err := l.Metadata()
	if err != nil {
		return "", err
	}
	device, ok := metadata[DeviceKey]
	if !ok {
		return "", errors.Errorf("package metadata has no %s entry", DeviceKey)
	}
	return device, nil
}

// CallSpec returns the model's input/output signature strings.
func (l *Loader) CallSpec() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inner, err := l.acquire()
	if err != nil {
		return nil, err
	}
	return inner.CallSpec()
}

// ConstantFQNs returns the fully qualified names of the model's constants.
func (l *Loader) ConstantFQNs() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inner, err := l.acquire()
	if err != nil {
		return nil, err
	}
	return inner.ConstantFQNs()
}

// Close releases the native loader. Safe to call more than once; every
// method after Close fails with ErrClosed.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner != nil {
		l.inner.Close()
		if l.log != nil {
			l.log.Debug("loader released")
		}
	}
	return nil
}

// LoadMetadataFromPackage reads a package's metadata without constructing a
// loader. Only the WithModelName option applies.
func LoadMetadataFromPackage(path string, opts ...Option) (map[string]string, error) {
	cfg := defaultConfig(path)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}

	entries, err := bridge.LoadMetadataFromPackage(cfg.Path, cfg.ModelName)
	if err != nil {
		return nil, errors.Wrapf(err, "metadata for model %q", cfg.ModelName)
	}
	return metadataMap(entries), nil
}
