package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/champs-software/support-chat/internal/config"
	"github.com/champs-software/support-chat/internal/handler"
	chatService "github.com/champs-software/support-chat/internal/service/chat"
	"github.com/champs-software/support-chat/internal/service/corpus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var chatSvc *chatService.Service
	switch {
	case !cfg.Assistant.Enabled():
		log.Println("OPENAI_API_KEY not configured, chat endpoints disabled")
	case !cfg.Corpus.Preload:
		log.Println("corpus preload disabled (ENABLE_PRELOAD=false), chat endpoints disabled")
	default:
		client, err := cfg.Assistant.NewClient()
		if err != nil {
			log.Fatalf("failed to create assistant client: %v", err)
		}

		registry, err := corpus.Build(ctx, client, corpus.Sources{
			Mobile:  cfg.Corpus.MobileDir,
			Desktop: cfg.Corpus.DesktopDir,
			All:     cfg.Corpus.AllDir,
		})
		if err != nil {
			log.Fatalf("failed to build corpus indexes: %v", err)
		}

		store := chatService.NewStore(cfg.Session.TTL)
		chatSvc = chatService.NewService(client, registry, store)
		log.Println("chat service initialized successfully")
	}

	router := handler.NewRouter(chatSvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("support chat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
