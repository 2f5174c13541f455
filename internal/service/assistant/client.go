package assistant

import (
	"context"
	"errors"
)

// ErrRunTimeout reports a run that did not reach a terminal state within the
// configured timeout. Callers can distinguish it from other remote failures.
var ErrRunTimeout = errors.New("assistant run timed out")

// IndexID is an opaque handle to a remote retrieval index.
type IndexID string

// AgentID is an opaque handle to a remote conversational agent.
type AgentID string

// ThreadID is an opaque handle to a remote message thread.
type ThreadID string

// RunID is an opaque handle to one execution of an agent over a thread.
type RunID string

// Role identifies the author of a remote message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document is a file to be ingested into a retrieval index.
type Document struct {
	Name string
	Data []byte
}

// ContentKind tags the shape of a remote message payload.
type ContentKind int

const (
	// ContentAbsent marks a message carrying no payload at all.
	ContentAbsent ContentKind = iota
	// ContentText marks a payload that is a single plain string.
	ContentText
	// ContentBlocks marks a payload made of one or more content blocks.
	ContentBlocks
)

// Block is one structured content block. Text holds the nested text value when
// the block carries one; Raw holds a string rendering of unrecognized shapes.
type Block struct {
	Text string
	Raw  string
}

// Content is the tagged-variant payload of a remote message.
type Content struct {
	Kind   ContentKind
	Text   string
	Blocks []Block
}

// Message is one entry of a remote thread.
type Message struct {
	Role    Role
	Content Content
}

// Client is the outbound contract the session core needs from a remote
// LLM-assistant service. Implementations must be safe for concurrent use.
type Client interface {
	// CreateIndex builds a retrieval index over the given documents. An empty
	// document set yields an empty, usable index.
	CreateIndex(ctx context.Context, name string, docs []Document) (IndexID, error)

	// CreateAgent provisions a conversational agent scoped to an index.
	CreateAgent(ctx context.Context, name, instructions string, index IndexID) (AgentID, error)

	// CreateThread provisions a message thread scoped to an index, seeded with
	// an initial user message.
	CreateThread(ctx context.Context, index IndexID, seed string) (ThreadID, error)

	// AppendMessage adds one message to an existing thread.
	AppendMessage(ctx context.Context, thread ThreadID, role Role, content string) error

	// RunToCompletion executes the agent over the thread and blocks until the
	// run reaches a terminal state. Returns ErrRunTimeout when the configured
	// deadline expires first.
	RunToCompletion(ctx context.Context, thread ThreadID, agent AgentID) (RunID, error)

	// ListRunMessages returns the messages produced during a run, newest first.
	ListRunMessages(ctx context.Context, thread ThreadID, run RunID) ([]Message, error)

	// DeleteAgent removes a remote agent. Best-effort cleanup.
	DeleteAgent(ctx context.Context, agent AgentID) error

	// DeleteThread removes a remote thread. Best-effort cleanup.
	DeleteThread(ctx context.Context, thread ThreadID) error
}
