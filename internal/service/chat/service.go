package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/champs-software/support-chat/internal/model/chat"
	"github.com/champs-software/support-chat/internal/service/assistant"
	"github.com/champs-software/support-chat/internal/service/corpus"
)

// fallbackReply is returned when a run produces no extractable assistant
// message.
const fallbackReply = "No response received."

// agentInstructions is the fixed persona every session agent is created with.
const agentInstructions = "You are a chatbot for CHAMPS Software. Answer questions clearly and neatly. " +
	"Use **bold** for section headers. Never refer to training data or say you're AI. " +
	"Act as if you're a helpful human support agent from the company. Ignore images in Markdown."

const cleanupTimeout = 30 * time.Second

// Service orchestrates sessions: it resolves or creates per-session remote
// resources, routes each message to the right thread, drives runs to
// completion and maintains local history.
type Service struct {
	client  assistant.Client
	corpora *corpus.Registry
	store   *Store
}

// NewService wires the orchestrator to its collaborators. Sessions leaving the
// store, by TTL expiry or explicit termination, get their remote resources
// cleaned up best-effort.
func NewService(client assistant.Client, corpora *corpus.Registry, store *Store) *Service {
	s := &Service{client: client, corpora: corpora, store: store}
	store.OnEvicted(s.cleanupSession)
	return s
}

// HandleMessage routes one user message: it resumes the session identified by
// sessionID, or provisions a new one when the id is empty or unknown, then
// runs the agent and returns the normalized reply with the session id.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message, corpusHint string) (string, string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// A record can be rolled back out of the store while another request
	// waits on its mutex; such waiters start over with a fresh record.
	var sess *Session
	for {
		sess = s.store.Acquire(sessionID)
		sess.mu.Lock()
		if !sess.discarded {
			break
		}
		sess.mu.Unlock()
	}
	defer sess.mu.Unlock()

	if !sess.provisioned {
		if err := s.provision(ctx, sess, message, corpusHint); err != nil {
			return "", sessionID, err
		}
	} else {
		if err := s.client.AppendMessage(ctx, sess.Thread, assistant.RoleUser, message); err != nil {
			return "", sessionID, fmt.Errorf("append message: %w", err)
		}
		sess.History = append(sess.History, userTurn(message))
	}

	run, err := s.client.RunToCompletion(ctx, sess.Thread, sess.Agent)
	if err != nil {
		return "", sessionID, err
	}

	messages, err := s.client.ListRunMessages(ctx, sess.Thread, run)
	if err != nil {
		return "", sessionID, err
	}

	reply, ok := ExtractReply(messages)
	if !ok {
		reply = fallbackReply
	}
	reply = Normalize(reply)

	sess.History = append(sess.History, chatmodel.Message{
		Role:      chatmodel.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	})

	return reply, sessionID, nil
}

// provision creates the session's remote agent and thread together. Creation
// is all-or-nothing: on partial failure the created agent is deleted and the
// store entry discarded, so a retry starts from a clean slate.
func (s *Service) provision(ctx context.Context, sess *Session, message, corpusHint string) error {
	name := corpus.Resolve(corpusHint)
	index := s.corpora.Lookup(name)

	agent, err := s.client.CreateAgent(ctx, "CDA_"+sess.ID, agentInstructions, index)
	if err != nil {
		sess.discarded = true
		s.store.Remove(sess.ID)
		return fmt.Errorf("create agent: %w", err)
	}

	thread, err := s.client.CreateThread(ctx, index, message)
	if err != nil {
		if delErr := s.client.DeleteAgent(ctx, agent); delErr != nil {
			log.Printf("[chat] rollback agent for session=%s: %v", sess.ID, delErr)
		}
		sess.discarded = true
		s.store.Remove(sess.ID)
		return fmt.Errorf("create thread: %w", err)
	}

	sess.Corpus = name
	sess.Agent = agent
	sess.Thread = thread
	sess.History = append(sess.History, userTurn(message))
	sess.provisioned = true
	return nil
}

// EndSession removes all state for a session id. Unknown ids are a no-op, so
// the call is idempotent.
func (s *Service) EndSession(sessionID string) {
	s.store.Remove(sessionID)
}

// Transcript returns a copy of a session's local history.
func (s *Service) Transcript(sessionID string) ([]chatmodel.Message, bool) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return nil, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	history := make([]chatmodel.Message, len(sess.History))
	copy(history, sess.History)
	return history, true
}

// cleanupSession tears down a session's remote resources after it leaves the
// store. Runs in the background so eviction never blocks on the remote
// service; failures are logged and otherwise ignored.
func (s *Service) cleanupSession(sess *Session) {
	go func() {
		sess.mu.Lock()
		agent, thread := sess.Agent, sess.Thread
		sess.mu.Unlock()

		if agent == "" && thread == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if agent != "" {
			if err := s.client.DeleteAgent(ctx, agent); err != nil {
				log.Printf("[chat] cleanup agent for session=%s: %v", sess.ID, err)
			}
		}
		if thread != "" {
			if err := s.client.DeleteThread(ctx, thread); err != nil {
				log.Printf("[chat] cleanup thread for session=%s: %v", sess.ID, err)
			}
		}
	}()
}

func userTurn(message string) chatmodel.Message {
	return chatmodel.Message{
		Role:      chatmodel.RoleUser,
		Content:   message,
		CreatedAt: time.Now().UTC(),
	}
}
