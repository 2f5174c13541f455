package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultRunTimeout   = 2 * time.Minute
	defaultPollInterval = time.Second
)

// OpenAIConfig carries the settings needed to talk to the OpenAI Assistants API.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	RunTimeout   time.Duration
	PollInterval time.Duration
}

// OpenAI implements Client against the OpenAI Assistants API.
type OpenAI struct {
	api          *openai.Client
	model        string
	runTimeout   time.Duration
	pollInterval time.Duration
}

// NewOpenAI builds an OpenAI-backed assistant client.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &OpenAI{
		api:          openai.NewClientWithConfig(apiCfg),
		model:        cfg.Model,
		runTimeout:   runTimeout,
		pollInterval: pollInterval,
	}
}

// CreateIndex uploads the documents and materializes them into a vector store.
// The file batch is polled until ingestion finishes. No documents means an
// empty but usable store.
func (c *OpenAI) CreateIndex(ctx context.Context, name string, docs []Document) (IndexID, error) {
	store, err := c.api.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("create vector store %s: %w", name, err)
	}

	if len(docs) == 0 {
		return IndexID(store.ID), nil
	}

	fileIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		file, err := c.api.CreateFileBytes(ctx, openai.FileBytesRequest{
			Name:    doc.Name,
			Bytes:   doc.Data,
			Purpose: openai.PurposeAssistants,
		})
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", doc.Name, err)
		}
		fileIDs = append(fileIDs, file.ID)
	}

	batch, err := c.api.CreateVectorStoreFileBatch(ctx, store.ID, openai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return "", fmt.Errorf("create file batch for %s: %w", name, err)
	}

	for batch.Status == "in_progress" {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		batch, err = c.api.RetrieveVectorStoreFileBatch(ctx, store.ID, batch.ID)
		if err != nil {
			return "", fmt.Errorf("poll file batch for %s: %w", name, err)
		}
	}
	if batch.Status != "completed" {
		return "", fmt.Errorf("file batch for %s ended with status %s", name, batch.Status)
	}

	return IndexID(store.ID), nil
}

// CreateAgent provisions an assistant with file search bound to the index.
func (c *OpenAI) CreateAgent(ctx context.Context, name, instructions string, index IndexID) (AgentID, error) {
	a, err := c.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        c.model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{
				VectorStoreIDs: []string{string(index)},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return AgentID(a.ID), nil
}

// CreateThread provisions a thread seeded with the first user message.
func (c *OpenAI) CreateThread(ctx context.Context, index IndexID, seed string) (ThreadID, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{
			{Role: openai.ThreadMessageRoleUser, Content: seed},
		},
		ToolResources: &openai.ToolResourcesRequest{
			FileSearch: &openai.FileSearchToolResourcesRequest{
				VectorStoreIDs: []string{string(index)},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return ThreadID(thread.ID), nil
}

// AppendMessage adds one message to the thread.
func (c *OpenAI) AppendMessage(ctx context.Context, thread ThreadID, role Role, content string) error {
	_, err := c.api.CreateMessage(ctx, string(thread), openai.MessageRequest{
		Role:    string(role),
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// RunToCompletion creates a run and polls it until it reaches a terminal
// state, bounded by the configured run timeout.
func (c *OpenAI) RunToCompletion(ctx context.Context, thread ThreadID, agent AgentID) (RunID, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	run, err := c.api.CreateRun(runCtx, string(thread), openai.RunRequest{AssistantID: string(agent)})
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return RunID(run.ID), nil
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
			// still working, keep polling
		default:
			return "", fmt.Errorf("run %s ended with status %s", run.ID, run.Status)
		}

		select {
		case <-runCtx.Done():
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return "", fmt.Errorf("run %s: %w", run.ID, ErrRunTimeout)
			}
			return "", runCtx.Err()
		case <-time.After(c.pollInterval):
		}

		run, err = c.api.RetrieveRun(runCtx, string(thread), run.ID)
		if err != nil {
			return "", fmt.Errorf("retrieve run: %w", err)
		}
	}
}

// ListRunMessages returns the messages produced during a run, newest first.
func (c *OpenAI) ListRunMessages(ctx context.Context, thread ThreadID, run RunID) ([]Message, error) {
	runID := string(run)
	list, err := c.api.ListMessage(ctx, string(thread), nil, nil, nil, nil, &runID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		messages = append(messages, Message{
			Role:    Role(m.Role),
			Content: convertContent(m.Content),
		})
	}
	return messages, nil
}

// DeleteAgent removes a remote assistant.
func (c *OpenAI) DeleteAgent(ctx context.Context, agent AgentID) error {
	if _, err := c.api.DeleteAssistant(ctx, string(agent)); err != nil {
		return fmt.Errorf("delete assistant: %w", err)
	}
	return nil
}

// DeleteThread removes a remote thread.
func (c *OpenAI) DeleteThread(ctx context.Context, thread ThreadID) error {
	if _, err := c.api.DeleteThread(ctx, string(thread)); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// convertContent maps the wire payload onto the tagged content variant.
func convertContent(blocks []openai.MessageContent) Content {
	if len(blocks) == 0 {
		return Content{Kind: ContentAbsent}
	}

	converted := make([]Block, 0, len(blocks))
	for _, mc := range blocks {
		block := Block{}
		if mc.Text != nil {
			block.Text = mc.Text.Value
		} else if raw, err := json.Marshal(mc); err == nil {
			block.Raw = string(raw)
		} else {
			block.Raw = mc.Type
		}
		converted = append(converted, block)
	}
	return Content{Kind: ContentBlocks, Blocks: converted}
}
