package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
)

type validationMiddleware struct {
	ports.DefinitionStore
}

// NewValidationMiddleware creates a middleware that refuses to save definitions with errors.
// The returned error wraps the *schema.AggregateError, so schema.ValidationErrors lists the problems.
func NewValidationMiddleware() Middleware {
	return func(next ports.DefinitionStore) ports.DefinitionStore {
		return &validationMiddleware{DefinitionStore: next}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, def *schema.Definition) error {
	if err := schema.Validate(def); err != nil {
		return fmt.Errorf("refusing to save %q: %w", def.Name, err)
	}
	return m.DefinitionStore.Save(ctx, def)
}
