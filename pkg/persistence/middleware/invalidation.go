package middleware

import (
	"context"

	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
)

type invalidationMiddleware struct {
	ports.DefinitionStore
	forget func(name string)
}

// NewInvalidationMiddleware creates a middleware that calls forget with the name of every
// definition saved or deleted, once the store accepted the change.
func NewInvalidationMiddleware(forget func(name string)) Middleware {
	return func(next ports.DefinitionStore) ports.DefinitionStore {
		return &invalidationMiddleware{DefinitionStore: next, forget: forget}
	}
}

func (m *invalidationMiddleware) Save(ctx context.Context, def *schema.Definition) error {
	if err := m.DefinitionStore.Save(ctx, def); err != nil {
		return err
	}
	m.forget(def.Name)
	return nil
}

func (m *invalidationMiddleware) Delete(ctx context.Context, name string) error {
	if err := m.DefinitionStore.Delete(ctx, name); err != nil {
		return err
	}
	m.forget(name)
	return nil
}
