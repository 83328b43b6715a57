package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
)

// Store implements ports.DefinitionStore in memory.
// Definitions are kept serialized so callers never share them with the store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// NewFromDefinitions creates a store holding defs.
func NewFromDefinitions(defs ...*schema.Definition) (*Store, error) {
	s := NewStore()
	for _, def := range defs {
		if err := s.Save(context.Background(), def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Save persists the definition in memory.
func (s *Store) Save(ctx context.Context, def *schema.Definition) error {
	if def.Name == "" {
		return errors.New("definition missing name")
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[def.Name] = data
	return nil
}

// Load retrieves a definition from memory.
func (s *Store) Load(ctx context.Context, name string) (*schema.Definition, error) {
	s.mu.RLock()
	data, ok := s.data[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
	}
	return schema.ParseJSON(data)
}

// Delete removes a definition.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns all definition names in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
