package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an adapter from its configuration map.
type Factory func(cfg map[string]string) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an adapter available under the given platform name.
// Typically called from an adapter package's init(). Registering the same
// name twice panics: it means two integrations claim one platform.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("adapter: Register called twice for %q", name))
	}
	registry[name] = factory
}

// Open builds the adapter registered under name.
func Open(name string, cfg map[string]string) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (registered: %v)", name, Registered())
	}
	return factory(cfg)
}

// Registered returns the sorted names of all registered adapters.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
