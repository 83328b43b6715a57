package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/tlisp/pkg/adapters/memory"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDefinitionStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	def := &schema.Definition{Name: "iso", States: []schema.StateDef{{Name: "a"}}}
	store, err := memory.NewFromDefinitions(def)
	require.NoError(t, err)

	def.States[0].Name = "mutated"

	loaded, err := store.Load(context.Background(), "iso")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.States[0].Name)
}
