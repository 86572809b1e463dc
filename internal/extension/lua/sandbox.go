package lua

import (
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Capability is a permission an extension can be granted.
type Capability string

// Known capabilities.
const (
	// CapabilityAPI allows looking up shared APIs.
	CapabilityAPI Capability = "api"

	// CapabilityNotify allows publishing keyspace notifications.
	CapabilityNotify Capability = "notify"

	// CapabilityKeyspaceRead allows listing and probing keys.
	CapabilityKeyspaceRead Capability = "keyspace.read"
)

// KnownCapabilities lists every capability the host understands.
func KnownCapabilities() []Capability {
	return []Capability{CapabilityAPI, CapabilityNotify, CapabilityKeyspaceRead}
}

// IsKnown reports whether c is a capability the host understands.
func (c Capability) IsKnown() bool {
	for _, k := range KnownCapabilities() {
		if c == k {
			return true
		}
	}
	return false
}

// Sandbox restricts what Lua code can reach.
type Sandbox struct {
	L *lua.LState

	mu           sync.RWMutex
	capabilities map[Capability]bool
	modules      map[string]bool
}

// NewSandbox creates a sandbox for L.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L:            L,
		capabilities: make(map[Capability]bool),
		modules: map[string]bool{
			"string": true,
			"table":  true,
			"math":   true,
		},
	}
}

// Install removes file loading from the globals and replaces require with
// a whitelisting version.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// installSafeRequire clears the package search paths so nothing is loaded
// from disk, then wraps require so only whitelisted modules resolve.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		s.mu.RLock()
		allowed := s.modules[modName]
		s.mu.RUnlock()
		if !allowed {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}

// AllowModule whitelists a preloaded module for require.
func (s *Sandbox) AllowModule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[name] = true
}

// Grant enables a capability.
func (s *Sandbox) Grant(c Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities[c] = true
}

// Revoke disables a capability.
func (s *Sandbox) Revoke(c Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.capabilities, c)
}

// HasCapability reports whether c is granted.
func (s *Sandbox) HasCapability(c Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilities[c]
}

// Capabilities returns the granted capabilities, sorted.
func (s *Sandbox) Capabilities() []Capability {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := make([]Capability, 0, len(s.capabilities))
	for c := range s.capabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// CheckCapability returns a *CapabilityError if c is not granted.
func (s *Sandbox) CheckCapability(c Capability) error {
	if !s.HasCapability(c) {
		return &CapabilityError{Capability: c}
	}
	return nil
}

// CapabilityError is returned when a capability is not granted.
type CapabilityError struct {
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return "capability not granted: " + string(e.Capability)
}
