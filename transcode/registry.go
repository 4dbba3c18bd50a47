package transcode

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("transcode: already registered")
	// ErrNotRegistered is returned by New for an unknown name.
	ErrNotRegistered = errors.New("transcode: not registered")
	// ErrNilFactory is returned when registering a nil factory.
	ErrNilFactory = errors.New("transcode: nil factory")
)

// Factory builds a transcoder. Implementations apply the options they
// understand.
type Factory func(opts ...Option) Transcoder

// Registry maps names to transcoder factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister registers a factory and panics on error.
// Use this for static registration at init time.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// New builds the transcoder registered under name.
func (r *Registry) New(name string, opts ...Option) (Transcoder, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return f(opts...), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry instance for convenience.
var globalRegistry = NewRegistry()

// Name of the built-in XML transcoder.
const NameXML = "xml"

func init() {
	globalRegistry.MustRegister(NameXML, func(opts ...Option) Transcoder { return NewXML(opts...) })
}

// Global returns the global transcoder registry.
func Global() *Registry {
	return globalRegistry
}

// Register adds a factory to the global registry.
func Register(name string, f Factory) error {
	return globalRegistry.Register(name, f)
}

// New builds a transcoder from the global registry.
func New(name string, opts ...Option) (Transcoder, error) {
	return globalRegistry.New(name, opts...)
}

// Names lists the global registry.
func Names() []string {
	return globalRegistry.Names()
}
