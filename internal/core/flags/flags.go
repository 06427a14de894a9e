// Package flags holds per-module rollout enablement state with layered
// precedence: runtime override, wildcard, access-qualified flag, module flag
package flags

import "sync"

// Module names a migratable business area. The set is closed; call sites
// reference these constants rather than free-form strings.
type Module string

// ModuleAll is the wildcard: a flag or override on it applies to every module.
const ModuleAll Module = "ALL"

// The migratable business areas.
const (
	ModuleAuth      Module = "AUTH"
	ModuleTeams     Module = "TEAMS"
	ModuleProjects  Module = "PROJECTS"
	ModuleTasks     Module = "TASKS"
	ModuleComments  Module = "COMMENTS"
	ModuleInventory Module = "INVENTORY"
)

// Modules lists every migratable area, wildcard excluded.
var Modules = []Module{
	ModuleAuth,
	ModuleTeams,
	ModuleProjects,
	ModuleTasks,
	ModuleComments,
	ModuleInventory,
}

// Access qualifies a flag by the kind of operation it gates.
type Access string

// Access qualifiers.
const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

type accessKey struct {
	module Module
	access Access
}

// Settings seeds a Registry. Zero value means everything disabled.
type Settings struct {
	// Flags are the plain per-module flags; ModuleAll acts as the global
	// enable when true
	Flags map[Module]bool

	// AccessFlags qualify a module flag by read/write, e.g. enable the new
	// path for TEAMS reads while writes stay on the legacy path
	AccessFlags map[Module]map[Access]bool
}

// Registry resolves per-module enablement. Overrides are transient and
// in-memory only; they vanish on restart or explicit clear.
type Registry struct {
	mu        sync.RWMutex
	flags     map[Module]bool
	access    map[accessKey]bool
	overrides map[Module]bool
}

// NewRegistry builds a Registry from settings. Each call returns a fresh,
// isolated instance; there is no package-level state.
func NewRegistry(s Settings) *Registry {
	r := &Registry{overrides: make(map[Module]bool)}
	r.load(s)
	return r
}

func (r *Registry) load(s Settings) {
	r.flags = make(map[Module]bool, len(s.Flags))
	for m, v := range s.Flags {
		r.flags[m] = v
	}
	r.access = make(map[accessKey]bool)
	for m, byAccess := range s.AccessFlags {
		for a, v := range byAccess {
			r.access[accessKey{module: m, access: a}] = v
		}
	}
}

// Replace swaps the flag state for a freshly loaded Settings while keeping
// runtime overrides intact. Used by settings reload.
func (r *Registry) Replace(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(s)
}

// Enabled resolves whether the new path answers calls for m.
//
// Precedence, highest first:
//  1. a runtime override for m
//  2. a runtime override for ModuleAll (global kill-switch or force-enable)
//  3. the wildcard flag, when true
//  4. the access-qualified flag for (m, access), when access is given
//  5. the plain module flag, defaulting to false
func (r *Registry) Enabled(m Module, access ...Access) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.overrides[m]; ok {
		return v
	}
	if v, ok := r.overrides[ModuleAll]; ok {
		return v
	}
	if r.flags[ModuleAll] {
		return true
	}
	if len(access) > 0 {
		if v, ok := r.access[accessKey{module: m, access: access[0]}]; ok {
			return v
		}
	}
	return r.flags[m]
}

// SetOverride forces m to the given value until cleared. Operators use this
// for instant rollback (false) or forced promotion (true) without a restart.
func (r *Registry) SetOverride(m Module, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[m] = enabled
}

// ClearOverride removes the override for m, reverting resolution to the
// next-highest-precedence source.
func (r *Registry) ClearOverride(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, m)
}

// ClearOverrides removes every override at once.
func (r *Registry) ClearOverrides() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = make(map[Module]bool)
}

// Overrides returns a copy of the active runtime overrides.
func (r *Registry) Overrides() map[Module]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Module]bool, len(r.overrides))
	for m, v := range r.overrides {
		out[m] = v
	}
	return out
}

// Summary reports each module's resolved state (unqualified access).
type Summary struct {
	Enabled  []Module `json:"enabled"`
	Disabled []Module `json:"disabled"`
}

// Summary resolves every known module and buckets it by outcome.
func (r *Registry) Summary() Summary {
	var s Summary
	for _, m := range Modules {
		if r.Enabled(m) {
			s.Enabled = append(s.Enabled, m)
		} else {
			s.Disabled = append(s.Disabled, m)
		}
	}
	return s
}
