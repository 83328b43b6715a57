package loam

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/tlisp/internal/testutils"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flipDoc = `---
states:
  - name: flip
    transitions:
      - match: "0"
        ops: [{write: "1"}, right]
        next: self
      - match: "1"
        ops: [{write: "0"}, "->"]
        next: self
      - any: true
        next: accept
---
Inverts every bit.`

const renamedDoc = `---
name: pair-copy
tapes: 2
blank: "_"
states:
  - name: copy
    transitions:
      - match: ["a", "_"]
        ops: [{write: "a", tape: 1}, {move: right, tape: 0}, {move: right, tape: 1}]
        next: self
      - any: true
        next: halt
---`

func setupLibrary(t *testing.T, files map[string]string) *Library {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return New(loam.NewTypedRepository[AutomatonMetadata](repo))
}

func TestLibrary_Load(t *testing.T) {
	lib := setupLibrary(t, map[string]string{
		"flip.md":  flipDoc,
		"other.md": renamedDoc,
	})
	ctx := context.Background()

	def, err := lib.Load(ctx, "flip")
	require.NoError(t, err)
	assert.Equal(t, "flip", def.Name)
	assert.Equal(t, "Inverts every bit.", def.Description)
	require.Len(t, def.States[0].Transitions, 3)
	assert.Equal(t, []schema.Op{{Kind: schema.OpWrite, Value: "0"}, {Kind: schema.OpRight}}, def.States[0].Transitions[1].Ops)

	_, err = schema.Compiler{}.Compile(ctx, def)
	require.NoError(t, err)

	pair, err := lib.Load(ctx, "pair-copy")
	require.NoError(t, err)
	assert.Equal(t, 2, pair.TapeCount())
	a, err := schema.Compiler{}.Compile(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Tapes())

	_, err = lib.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ports.ErrDefinitionNotFound), "got %v", err)
}

func TestLibrary_List_NormalizesNames(t *testing.T) {
	lib := setupLibrary(t, map[string]string{
		"flip.md":  flipDoc,
		"other.md": renamedDoc,
	})

	names, err := lib.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"flip", "pair-copy"}, names)
}

func TestLibrary_List_DetectsCollisions(t *testing.T) {
	lib := setupLibrary(t, map[string]string{
		"pair-copy.md": flipDoc,
		"other.md":     renamedDoc,
	})

	_, err := lib.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "pair-copy")
}

func TestLibrary_SavedThroughRepository(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, core.Document{ID: "flip.md", Content: flipDoc}))

	lib := New(loam.NewTypedRepository[AutomatonMetadata](repo))
	def, err := lib.Load(ctx, "flip")
	require.NoError(t, err)
	assert.Equal(t, "accept", def.States[0].Transitions[2].Next)
}
