package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tlisp/pkg/types"
)

// Func defines the signature of a native procedure.
// It receives a context and the evaluated arguments, and returns a value or error.
type Func func(ctx context.Context, args []types.Value) (types.Value, error)

// Native is a procedure implemented in Go.
type Native struct {
	name     string
	min      int
	variadic bool
	fn       Func
}

// NewNative wraps fn. Calls with fewer than min arguments, or more than min when not
// variadic, fail with an arity error before fn runs.
func NewNative(name string, min int, variadic bool, fn Func) *Native {
	return &Native{name: name, min: min, variadic: variadic, fn: fn}
}

func (n *Native) TypeName() string { return "procedure" }
func (n *Native) String() string { return "#<procedure " + n.name + ">" }
func (n *Native) Name() string { return n.name }

func (n *Native) Arity() (int, bool) {
	return n.min, n.variadic
}

func (n *Native) Call(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < n.min || (!n.variadic && len(args) > n.min) {
		want := fmt.Sprintf("%d", n.min)
		if n.variadic {
			want = "at least " + want
		}
		return nil, types.NewError(types.KindArity, "%s expects %s argument(s), got %d", n.name, want, len(args))
	}
	return n.fn(ctx, args)
}

// Registry manages the available native procedures.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]*Native
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		procs: make(map[string]*Native),
	}
}

// Register adds a procedure to the registry.
// If a procedure with the same name exists, it is overwritten.
func (r *Registry) Register(name string, min int, variadic bool, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[name] = NewNative(name, min, variadic, fn)
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (*Native, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	return p, ok
}

// Execute looks up a procedure by name and calls it.
// Returns an error if the procedure is not found.
func (r *Registry) Execute(ctx context.Context, name string, args []types.Value) (types.Value, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, types.NewError(types.KindUnbound, "procedure not found: %s", name)
	}
	return p.Call(ctx, args)
}

// Names lists registered procedures in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
