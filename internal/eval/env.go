package eval

import (
	"sort"
	"sync"

	"github.com/aretw0/tlisp/pkg/types"
)

// Env is a lexical scope. Lookups walk the parent chain.
type Env struct {
	mu     sync.RWMutex
	vars   map[string]types.Value
	parent *Env
}

// NewEnv creates a scope nested in parent (nil for a root scope).
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]types.Value), parent: parent}
}

// Define binds name in this scope, shadowing outer bindings.
func (e *Env) Define(name string, v types.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = v
}

// Delete removes a binding from this scope only.
func (e *Env) Delete(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.vars, name)
}

// Lookup resolves name through the scope chain.
func (e *Env) Lookup(name string) (types.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.vars[name]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Set rebinds an existing variable in the nearest scope that defines it.
func (e *Env) Set(name string, v types.Value) bool {
	for cur := e; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			cur.mu.Unlock()
			return true
		}
		cur.mu.Unlock()
	}
	return false
}

// Names lists the names bound directly in this scope.
func (e *Env) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
