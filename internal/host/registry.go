package host

import (
	"fmt"
	"sort"
	"sync"
)

// SharedAPI is a named capability table exported by one extension for
// others. The value is stored and returned as is.
type SharedAPI struct {
	Name     string
	Exporter string
	Value    any
}

// Registry holds shared APIs by name. Names are never reused.
type Registry struct {
	mu   sync.RWMutex
	apis map[string]SharedAPI
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		apis: make(map[string]SharedAPI),
	}
}

// Export adds an API. Exporting a name twice is an error.
func (r *Registry) Export(api SharedAPI) error {
	if api.Name == "" || api.Value == nil {
		return fmt.Errorf("%w: name=%q", ErrInvalidAPI, api.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.apis[api.Name]; exists {
		return fmt.Errorf("%w: %q (exported by %q)", ErrAPIExists, api.Name, prev.Exporter)
	}
	r.apis[api.Name] = api
	return nil
}

// Get returns an API by name.
func (r *Registry) Get(name string) (SharedAPI, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	api, ok := r.apis[name]
	return api, ok
}

// List returns all exported API names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.apis))
	for name := range r.apis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
