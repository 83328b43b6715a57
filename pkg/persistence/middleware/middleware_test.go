package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/tlisp/pkg/adapters/memory"
	"github.com/aretw0/tlisp/pkg/persistence/middleware"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accepting(name string) *schema.Definition {
	return &schema.Definition{
		Name:   name,
		States: []schema.StateDef{{Name: "s", Transitions: []schema.TransitionDef{{Any: true, Next: "accept"}}}},
	}
}

func TestValidationMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewValidationMiddleware()(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, accepting("ok")))

	err := store.Save(ctx, &schema.Definition{Name: "bad", States: []schema.StateDef{{Name: "halt"}}})
	require.Error(t, err)
	assert.NotEmpty(t, schema.ValidationErrors(err))

	_, err = underlying.Load(ctx, "bad")
	assert.ErrorIs(t, err, ports.ErrDefinitionNotFound)
	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, names)
}

func TestInvalidationMiddleware(t *testing.T) {
	var forgotten []string
	store := middleware.Chain(memory.NewStore(),
		middleware.NewValidationMiddleware(),
		middleware.NewInvalidationMiddleware(func(name string) { forgotten = append(forgotten, name) }),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, accepting("a")))
	require.Error(t, store.Save(ctx, &schema.Definition{Name: "b"}))
	require.NoError(t, store.Delete(ctx, "a"))

	assert.Equal(t, []string{"a", "a"}, forgotten, "rejected saves are not reported")
}

func TestMiddleware_DefinitionStoreContract(t *testing.T) {
	ports.RunDefinitionStoreContract(t, middleware.Chain(memory.NewStore(),
		middleware.NewValidationMiddleware(),
		middleware.NewInvalidationMiddleware(func(string) {}),
	))
}
