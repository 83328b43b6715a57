package ports

import (
	"context"
	"errors"

	"github.com/aretw0/tlisp/pkg/schema"
)

// ErrDefinitionNotFound is returned when no definition exists under a name.
var ErrDefinitionNotFound = errors.New("automaton definition not found")

// LibraryLoader gives read-only access to automaton definitions.
type LibraryLoader interface {
	// Load retrieves a definition by name.
	// Returns ErrDefinitionNotFound if the definition does not exist.
	Load(ctx context.Context, name string) (*schema.Definition, error)

	// List returns the names of all definitions, sorted.
	List(ctx context.Context) ([]string, error)
}

// DefinitionStore persists automaton definitions.
type DefinitionStore interface {
	LibraryLoader

	// Save stores def under def.Name, replacing any previous definition.
	Save(ctx context.Context, def *schema.Definition) error

	// Delete removes a definition. Deleting a missing definition is not an error.
	Delete(ctx context.Context, name string) error
}

// Watchable is implemented by loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the name of every changed definition.
	Watch(ctx context.Context) (<-chan string, error)
}
