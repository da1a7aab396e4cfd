package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds every SignalModule/RiskEngine/BacktestEngine/PaperTrader/
// RatingEngine capability the process exposes. Registration happens once at
// startup; after the process begins serving dispatch() calls the map is
// treated as read-only, a single registration pass followed by concurrent
// lookups.
type Registry struct {
	mu sync.RWMutex
	modules map[string]*Module
	log zerolog.Logger
}

// New builds an empty Registry.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		log: log.With().Str("component", "module_registry").Logger(),
	}
}

// RegisterModule adds a module and its capabilities. Registering the same
// module_id twice is a programmer error (startup wiring bug), not a runtime
// condition, so it panics rather than returning an error.
func (r *Registry) RegisterModule(moduleID string, capabilities...Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[moduleID]; exists {
		panic(fmt.Sprintf("registry: module %q already registered", moduleID))
	}

	capMap := make(map[string]Capability, len(capabilities))
	for _, c := range capabilities {
		capMap[c.ID] = c
	}
	r.modules[moduleID] = &Module{ID: moduleID, Capabilities: capMap}

	r.log.Info().
		Str("module_id", moduleID).
		Int("capability_count", len(capMap)).
		Msg("registered module")
}

// ErrModuleNotFound and ErrCapabilityNotFound are returned by Lookup; the
// Dispatcher maps both to a NotFound Failure.
var (
	ErrModuleNotFound = fmt.Errorf("module not found")
	ErrCapabilityNotFound = fmt.Errorf("capability not found")
)

// Lookup resolves a (module_id, capability_id) pair to its Capability.
func (r *Registry) Lookup(moduleID, capabilityID string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, ok := r.modules[moduleID]
	if !ok {
		return Capability{}, ErrModuleNotFound
	}
	cap, ok := module.Capabilities[capabilityID]
	if !ok {
		return Capability{}, ErrCapabilityNotFound
	}
	return cap, nil
}

// ModuleIDs lists every registered module_id, sorted for deterministic
// introspection output.
func (r *Registry) ModuleIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Capabilities lists the capability ids of one module, sorted.
func (r *Registry) Capabilities(moduleID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	module, ok := r.modules[moduleID]
	if !ok {
		return nil, ErrModuleNotFound
	}
	ids := make([]string, 0, len(module.Capabilities))
	for id := range module.Capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
