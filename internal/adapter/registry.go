package adapter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/law-makers/taxcert/internal/acquire"
)

// County is one directory entry: a display name and its routing path.
type County struct {
	County string `json:"county"`
	Path   string `json:"path"`
}

// Registry maps "OH/mercer" style paths to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]acquire.Adapter
}

// NewRegistry builds a registry from adapters. Duplicate paths panic: the
// set is fixed at compile time.
func NewRegistry(adapters ...acquire.Adapter) *Registry {
	r := &Registry{adapters: make(map[string]acquire.Adapter)}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds an adapter under its jurisdiction's path.
func (r *Registry) Register(a acquire.Adapter) error {
	id := a.Jurisdiction().ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("adapter already registered for %s", id)
	}
	r.adapters[id] = a
	return nil
}

// Lookup finds the adapter for a state and county, case-insensitively.
func (r *Registry) Lookup(state, county string) (acquire.Adapter, bool) {
	id := strings.ToUpper(strings.TrimSpace(state)) + "/" + strings.ToLower(strings.TrimSpace(county))
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// LookupPath finds the adapter for "STATE/county".
func (r *Registry) LookupPath(path string) (acquire.Adapter, bool) {
	state, county, ok := strings.Cut(strings.Trim(path, "/"), "/")
	if !ok {
		return nil, false
	}
	return r.Lookup(state, county)
}

// Jurisdictions lists every registered jurisdiction ordered by path.
func (r *Registry) Jurisdictions() []acquire.Jurisdiction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]acquire.Jurisdiction, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Jurisdiction())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Counties lists the directory entries for one state, or all states when
// state is empty.
func (r *Registry) Counties(state string) []County {
	state = strings.ToUpper(strings.TrimSpace(state))
	var out []County
	for _, j := range r.Jurisdictions() {
		if state != "" && strings.ToUpper(j.State) != state {
			continue
		}
		out = append(out, County{County: j.Name, Path: j.ID()})
	}
	return out
}
