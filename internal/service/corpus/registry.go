package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/champs-software/support-chat/internal/service/assistant"
)

// Name is one of the fixed document corpora a session can be scoped to.
type Name string

const (
	Mobile  Name = "mobile"
	Desktop Name = "desktop"
	All     Name = "all"
)

// Resolve maps a caller-supplied hint onto a recognized corpus name. Anything
// unrecognized, including the empty string, falls back to the catch-all.
func Resolve(hint string) Name {
	switch Name(hint) {
	case Mobile, Desktop:
		return Name(hint)
	default:
		return All
	}
}

// Sources names the document directory backing each corpus.
type Sources struct {
	Mobile  string
	Desktop string
	All     string
}

// Registry holds the pre-built retrieval index per corpus. Read-only after
// Build, so lookups need no locking.
type Registry struct {
	indexes map[Name]assistant.IndexID
}

// Build scans each source directory for markdown documents and materializes a
// remote retrieval index per corpus. A missing or empty directory produces an
// empty index rather than an error.
func Build(ctx context.Context, client assistant.Client, sources Sources) (*Registry, error) {
	indexes := make(map[Name]assistant.IndexID, 3)
	for name, dir := range map[Name]string{
		Mobile:  sources.Mobile,
		Desktop: sources.Desktop,
		All:     sources.All,
	} {
		docs, err := collectMarkdown(dir)
		if err != nil {
			return nil, fmt.Errorf("scan %s corpus: %w", name, err)
		}

		index, err := client.CreateIndex(ctx, "cda-"+string(name), docs)
		if err != nil {
			return nil, fmt.Errorf("build %s corpus index: %w", name, err)
		}

		log.Printf("[corpus] built %s index from %d documents", name, len(docs))
		indexes[name] = index
	}

	return &Registry{indexes: indexes}, nil
}

// Lookup returns the index for a corpus. Callers pass a name produced by
// Resolve, so every recognized name has an entry.
func (r *Registry) Lookup(name Name) assistant.IndexID {
	if index, ok := r.indexes[name]; ok {
		return index
	}
	return r.indexes[All]
}

// collectMarkdown walks dir recursively and loads every markdown file. A
// directory that does not exist yields no documents.
func collectMarkdown(dir string) ([]assistant.Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var docs []assistant.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, assistant.Document{Name: d.Name(), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
