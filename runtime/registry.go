package runtime

import (
	"sync"
)

// Registry names for runtimes that ship with or plug into this module.
const (
	// NameOpenXR is the conventional name for a runtime backed by a native
	// OpenXR loader. Such runtimes register themselves from their own
	// packages.
	NameOpenXR = "openxr"
	// NameHeadless is the in-process runtime with no device requirement.
	NameHeadless = "headless"
)

// Factory creates a new runtime instance.
type Factory func() Runtime

// registry holds registered runtimes.
var (
	registryMu sync.RWMutex
	runtimes   = make(map[string]Factory)
	// Priority order for runtime selection (first available wins).
	// A real device runtime always beats the headless fallback.
	runtimePriority = []string{NameOpenXR, NameHeadless}
)

// Register registers a runtime factory with the given name.
// This is typically called from init() functions in runtime packages.
// If a runtime with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	runtimes[name] = factory
}

// Unregister removes a runtime from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(runtimes, name)
}

// Available returns a list of registered runtime names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(runtimes))
	for name := range runtimes {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a runtime with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := runtimes[name]
	return ok
}

// Get returns a runtime instance by name.
// Returns nil if the runtime is not registered.
func Get(name string) Runtime {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := runtimes[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available runtime based on priority.
// Returns nil if no runtimes are registered.
func Default() Runtime {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range runtimePriority {
		if factory, ok := runtimes[name]; ok {
			if rt := factory(); rt != nil {
				return rt
			}
		}
	}

	// Fall back to any registered runtime.
	for _, factory := range runtimes {
		if rt := factory(); rt != nil {
			return rt
		}
	}
	return nil
}
