package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/champs-software/support-chat/internal/service/assistant"
	chatService "github.com/champs-software/support-chat/internal/service/chat"
	"github.com/champs-software/support-chat/pkg/utils"
)

// Handler exposes the conversational endpoints.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the chat handler. A nil service means the assistant backend is
// not configured; /chat then answers 503 while /end_session stays a no-op.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/end_session", h.handleEndSession)
	r.Get("/session/{sessionID}/history", h.handleHistory)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message       string `json:"message"`
		SessionID     string `json:"session_id"`
		SupportChoice string `json:"support_choice"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if h.chatSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant backend unavailable")
		return
	}

	reply, sessionID, err := h.chatSvc.HandleMessage(r.Context(), payload.SessionID, payload.Message, payload.SupportChoice)
	if err != nil {
		log.Printf("[chat] session=%s: %v", sessionID, err)
		if errors.Is(err, assistant.ErrRunTimeout) {
			utils.RespondError(w, http.StatusGatewayTimeout, "run timed out")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"reply":      reply,
		"session_id": sessionID,
	})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Removing an unknown id is not an error.
	if h.chatSvc != nil {
		h.chatSvc.EndSession(payload.SessionID)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "session ended"})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if h.chatSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant backend unavailable")
		return
	}

	history, ok := h.chatSvc.Transcript(sessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
	})
}

