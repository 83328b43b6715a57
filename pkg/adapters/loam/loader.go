package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tlisp/pkg/ports"
	"github.com/aretw0/tlisp/pkg/schema"
)

// Library adapts a Loam repository of automaton documents to ports.LibraryLoader.
// Each document holds one definition in its frontmatter; the body becomes the
// description when the frontmatter has none.
type Library struct {
	Repo *loam.TypedRepository[AutomatonMetadata]
}

// New creates a new Loam library.
func New(repo *loam.TypedRepository[AutomatonMetadata]) *Library {
	return &Library{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[AutomatonMetadata](repo)), nil
}

// Load retrieves a definition by name.
// Loam resolves file names without extension; definitions whose name differs
// from their file are found through List.
func (l *Library) Load(ctx context.Context, name string) (*schema.Definition, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err == nil {
		return decode(doc.ID, doc.Data, doc.Content)
	}

	docs, listErr := l.Repo.List(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", name, err)
	}
	for _, d := range docs {
		if documentName(d.ID, d.Data) == name {
			return decode(d.ID, d.Data, d.Content)
		}
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
}

func decode(id string, meta AutomatonMetadata, content string) (*schema.Definition, error) {
	def, err := schema.Decode(meta.raw())
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	def.Name = documentName(id, meta)
	if def.Description == "" {
		def.Description = strings.TrimSpace(content)
	}
	return def, nil
}

// List returns the names of all documents in the repository.
func (l *Library) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))

	for _, doc := range docs {
		name := documentName(doc.ID, doc.Data)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: automaton '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func documentName(id string, meta AutomatonMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	return trimExtension(id)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Library) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
