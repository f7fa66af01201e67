package services

import (
	"sync"

	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/pkg/errors"
)

// ConfigRegistry hands out one ConfigStore per module. Stores are created
// on first request and live for the lifetime of the registry.
type ConfigRegistry struct {
	store    ports.DocumentStore
	defaults *bootstrap.Defaults
	identity ports.IdentityProvider

	mu     sync.Mutex
	stores map[string]*ConfigStore
}

// NewConfigRegistry creates a registry over the given document store
func NewConfigRegistry(store ports.DocumentStore, defaults *bootstrap.Defaults, identity ports.IdentityProvider) *ConfigRegistry {
	return &ConfigRegistry{
		store:    store,
		defaults: defaults,
		identity: identity,
		stores:   make(map[string]*ConfigStore),
	}
}

// Store returns the ConfigStore of a known module
func (r *ConfigRegistry) Store(module string) (*ConfigStore, error) {
	if !r.defaults.HasModule(module) {
		return nil, errors.NewNotFoundError("module", module)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[module]; ok {
		return s, nil
	}
	s := NewConfigStore(module, r.store, r.defaults, r.identity)
	r.stores[module] = s
	return s, nil
}

// Modules lists the known module names in sorted order
func (r *ConfigRegistry) Modules() []string {
	return r.defaults.ModuleNames()
}

// SearchFields returns the base search fields of a module
func (r *ConfigRegistry) SearchFields(module string) []string {
	return r.defaults.SearchFields(module)
}
