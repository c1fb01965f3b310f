// Package registry maps runtime kinds to the guest runtimes that host them.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/domain/ports"
)

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	strictMode bool // Fail on duplicate registrations
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		strictMode: true,
	}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithStrictMode enables/disables strict mode for duplicate registrations.
// Default is true (fail on duplicates). Disabled, a later runtime replaces
// an earlier one of the same kind.
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.strictMode = enabled
	}
}

// Registry holds one ports.GuestRuntime per runtime kind. It is safe for
// concurrent use.
type Registry struct {
	config   registryConfig
	runtimes sync.Map // map[entities.RuntimeKind]ports.GuestRuntime
}

// NewRegistry creates a new Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{config: cfg}
}

// Register adds a runtime under its Kind.
func (r *Registry) Register(rt ports.GuestRuntime) error {
	kind := rt.Kind()
	if r.config.strictMode {
		if _, loaded := r.runtimes.LoadOrStore(kind, rt); loaded {
			return fmt.Errorf("runtime %q already registered", kind)
		}
		return nil
	}
	r.runtimes.Store(kind, rt)
	return nil
}

// Lookup returns the runtime registered for kind.
func (r *Registry) Lookup(kind entities.RuntimeKind) (ports.GuestRuntime, error) {
	v, ok := r.runtimes.Load(kind)
	if !ok {
		return nil, fmt.Errorf("no runtime registered for kind %q", kind)
	}
	return v.(ports.GuestRuntime), nil
}

// Kinds returns the registered runtime kinds in sorted order.
func (r *Registry) Kinds() []entities.RuntimeKind {
	var kinds []entities.RuntimeKind
	r.runtimes.Range(func(k, _ any) bool {
		kinds = append(kinds, k.(entities.RuntimeKind))
		return true
	})
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
