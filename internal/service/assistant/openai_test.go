package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func newTestClient(baseURL string, runTimeout time.Duration) *OpenAI {
	return NewOpenAI(OpenAIConfig{
		APIKey:       "test-key",
		Model:        "gpt-4o",
		BaseURL:      baseURL,
		RunTimeout:   runTimeout,
		PollInterval: 5 * time.Millisecond,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func TestRunToCompletionPollsUntilComplete(t *testing.T) {
	var polls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/thr_1/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "queued"})
	})
	mux.HandleFunc("/v1/threads/thr_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		status := "in_progress"
		if atomic.AddInt32(&polls, 1) >= 2 {
			status = "completed"
		}
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": status})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL+"/v1", 5*time.Second)
	run, err := client.RunToCompletion(context.Background(), "thr_1", "agent_1")
	if err != nil {
		t.Fatalf("RunToCompletion err: %v", err)
	}
	if run != "run_1" {
		t.Fatalf("unexpected run id: %s", run)
	}
	if atomic.LoadInt32(&polls) < 2 {
		t.Fatalf("expected at least 2 polls, got %d", polls)
	}
}

func TestRunToCompletionTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/thr_1/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "queued"})
	})
	mux.HandleFunc("/v1/threads/thr_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "in_progress"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL+"/v1", 50*time.Millisecond)
	_, err := client.RunToCompletion(context.Background(), "thr_1", "agent_1")
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("expected ErrRunTimeout, got %v", err)
	}
}

func TestRunToCompletionFailedStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/thr_1/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "run_1", "object": "thread.run", "status": "failed"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL+"/v1", time.Second)
	_, err := client.RunToCompletion(context.Background(), "thr_1", "agent_1")
	if err == nil {
		t.Fatal("expected a terminal-failure error")
	}
	if errors.Is(err, ErrRunTimeout) {
		t.Fatalf("failed status must not look like a timeout: %v", err)
	}
}

func TestListRunMessagesScopesToRun(t *testing.T) {
	var gotRunID string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads/thr_1/messages", func(w http.ResponseWriter, r *http.Request) {
		gotRunID = r.URL.Query().Get("run_id")
		writeJSON(w, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "the answer", "annotations": []any{}}},
					},
				},
				{
					"id":      "msg_1",
					"role":    "user",
					"content": []map[string]any{},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL+"/v1", time.Second)
	messages, err := client.ListRunMessages(context.Background(), "thr_1", "run_1")
	if err != nil {
		t.Fatalf("ListRunMessages err: %v", err)
	}

	if gotRunID != "run_1" {
		t.Fatalf("expected run_id query param, got %q", gotRunID)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != RoleAssistant || messages[0].Content.Blocks[0].Text != "the answer" {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Content.Kind != ContentAbsent {
		t.Fatalf("expected absent content for empty payload, got %+v", messages[1].Content)
	}
}

func TestConvertContent(t *testing.T) {
	if got := convertContent(nil); got.Kind != ContentAbsent {
		t.Fatalf("expected absent for nil blocks, got %v", got.Kind)
	}

	text := convertContent([]openai.MessageContent{
		{Type: "text", Text: &openai.MessageText{Value: "hi"}},
	})
	if text.Kind != ContentBlocks || text.Blocks[0].Text != "hi" {
		t.Fatalf("unexpected text conversion: %+v", text)
	}

	image := convertContent([]openai.MessageContent{{Type: "image_file"}})
	if image.Kind != ContentBlocks || image.Blocks[0].Raw == "" {
		t.Fatalf("expected raw rendering for non-text block: %+v", image)
	}
}
