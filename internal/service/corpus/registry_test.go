package corpus_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/champs-software/support-chat/internal/service/assistant"
	"github.com/champs-software/support-chat/internal/service/corpus"
)

// indexRecorder implements assistant.Client and captures index builds.
type indexRecorder struct {
	mu   sync.Mutex
	docs map[string][]assistant.Document
}

func newIndexRecorder() *indexRecorder {
	return &indexRecorder{docs: make(map[string][]assistant.Document)}
}

func (r *indexRecorder) CreateIndex(_ context.Context, name string, docs []assistant.Document) (assistant.IndexID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[name] = docs
	return assistant.IndexID("idx-" + name), nil
}

func (r *indexRecorder) CreateAgent(context.Context, string, string, assistant.IndexID) (assistant.AgentID, error) {
	return "", nil
}

func (r *indexRecorder) CreateThread(context.Context, assistant.IndexID, string) (assistant.ThreadID, error) {
	return "", nil
}

func (r *indexRecorder) AppendMessage(context.Context, assistant.ThreadID, assistant.Role, string) error {
	return nil
}

func (r *indexRecorder) RunToCompletion(context.Context, assistant.ThreadID, assistant.AgentID) (assistant.RunID, error) {
	return "", nil
}

func (r *indexRecorder) ListRunMessages(context.Context, assistant.ThreadID, assistant.RunID) ([]assistant.Message, error) {
	return nil, nil
}

func (r *indexRecorder) DeleteAgent(context.Context, assistant.AgentID) error { return nil }

func (r *indexRecorder) DeleteThread(context.Context, assistant.ThreadID) error { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir err: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

func TestBuildCollectsMarkdownRecursively(t *testing.T) {
	root := t.TempDir()
	mobileDir := filepath.Join(root, "mobile")
	writeFile(t, filepath.Join(mobileDir, "guide.md"), "# guide")
	writeFile(t, filepath.Join(mobileDir, "nested", "faq.MD"), "# faq")
	writeFile(t, filepath.Join(mobileDir, "notes.txt"), "ignored")

	allDir := filepath.Join(root, "all")
	writeFile(t, filepath.Join(allDir, "all.md"), "# all")

	client := newIndexRecorder()
	registry, err := corpus.Build(context.Background(), client, corpus.Sources{
		Mobile:  mobileDir,
		Desktop: filepath.Join(root, "does-not-exist"),
		All:     allDir,
	})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}

	if got := len(client.docs["cda-mobile"]); got != 2 {
		t.Fatalf("expected 2 mobile documents, got %d", got)
	}
	// a missing source directory yields an empty index, not an error
	if got := len(client.docs["cda-desktop"]); got != 0 {
		t.Fatalf("expected empty desktop corpus, got %d documents", got)
	}
	if got := len(client.docs["cda-all"]); got != 1 {
		t.Fatalf("expected 1 all document, got %d", got)
	}

	if registry.Lookup(corpus.Mobile) != "idx-cda-mobile" {
		t.Fatalf("unexpected mobile index: %s", registry.Lookup(corpus.Mobile))
	}
}

func TestLookupFallsBackToCatchAll(t *testing.T) {
	client := newIndexRecorder()
	registry, err := corpus.Build(context.Background(), client, corpus.Sources{
		Mobile:  filepath.Join(t.TempDir(), "m"),
		Desktop: filepath.Join(t.TempDir(), "d"),
		All:     filepath.Join(t.TempDir(), "a"),
	})
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}

	if registry.Lookup(corpus.Name("bogus")) != "idx-cda-all" {
		t.Fatal("expected catch-all index for unknown corpus name")
	}
}

func TestResolveHints(t *testing.T) {
	if corpus.Resolve("mobile") != corpus.Mobile {
		t.Fatal("mobile hint should resolve to mobile")
	}
	if corpus.Resolve("desktop") != corpus.Desktop {
		t.Fatal("desktop hint should resolve to desktop")
	}
	if corpus.Resolve("tablet") != corpus.All {
		t.Fatal("unrecognized hint should resolve to catch-all")
	}
	if corpus.Resolve("") != corpus.All {
		t.Fatal("empty hint should resolve to catch-all")
	}
}
