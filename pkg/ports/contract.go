package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDefinitionStoreContract runs a suite of tests to verify that a DefinitionStore
// implementation adheres to the defined interface contract.
// The store must be empty.
func RunDefinitionStoreContract(t *testing.T, store DefinitionStore) {
	ctx := context.Background()

	def := &schema.Definition{
		Name:  "contract-flip",
		Tapes: 1,
		States: []schema.StateDef{{
			Name: "flip",
			Transitions: []schema.TransitionDef{
				{Match: "0", Ops: []schema.Op{{Kind: schema.OpWrite, Value: "1"}, {Kind: schema.OpRight}}, Next: "self"},
				{Match: "1", Ops: []schema.Op{{Kind: schema.OpWrite, Value: "0"}, {Kind: schema.OpRight}}, Next: "self"},
				{Any: true, Next: "accept"},
			},
		}},
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, def))

		loaded, err := store.Load(ctx, def.Name)
		require.NoError(t, err)
		assert.Equal(t, def.Name, loaded.Name)
		require.Len(t, loaded.States, 1)
		require.Len(t, loaded.States[0].Transitions, 3)
		assert.Equal(t, def.States[0].Transitions[0].Ops, loaded.States[0].Transitions[0].Ops)
		assert.Equal(t, "0", loaded.States[0].Transitions[0].Match)
		assert.True(t, loaded.States[0].Transitions[2].Any)
		assert.Equal(t, "accept", loaded.States[0].Transitions[2].Next)

		_, err = schema.Compiler{}.Compile(ctx, loaded)
		assert.NoError(t, err, "loaded definition should compile")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.True(t, errors.Is(err, ErrDefinitionNotFound), "got %v", err)
	})

	t.Run("Overwrite", func(t *testing.T) {
		changed := *def
		changed.Description = "changed"
		require.NoError(t, store.Save(ctx, &changed))

		loaded, err := store.Load(ctx, def.Name)
		require.NoError(t, err)
		assert.Equal(t, "changed", loaded.Description)
	})

	t.Run("List", func(t *testing.T) {
		other := *def
		other.Name = "contract-another"
		require.NoError(t, store.Save(ctx, &other))

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract-another", "contract-flip"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, def.Name))
		_, err := store.Load(ctx, def.Name)
		assert.True(t, errors.Is(err, ErrDefinitionNotFound))

		require.NoError(t, store.Delete(ctx, def.Name), "deleting twice is fine")

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract-another"}, names)
	})

	t.Run("Save Invalid Name", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, &schema.Definition{}))
	})
}
