package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/champs-software/support-chat/internal/handler/chat"
	middlewarePkg "github.com/champs-software/support-chat/internal/middleware"
	chatService "github.com/champs-software/support-chat/internal/service/chat"
)

// NewRouter wires HTTP routes to core services. chatSvc may be nil when the
// assistant backend is not configured.
func NewRouter(chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)
	chatHandler.RegisterRoutes(r)

	return r
}
