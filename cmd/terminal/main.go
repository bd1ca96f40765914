package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oshxona-pos/terminal/internal/auth"
	"github.com/oshxona-pos/terminal/internal/config"
	"github.com/oshxona-pos/terminal/internal/menu"
	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/oshxona-pos/terminal/internal/router"
	"github.com/oshxona-pos/terminal/internal/session"
	"github.com/oshxona-pos/terminal/internal/ws"
)

func main() {
	cfg := config.Load()

	sess := auth.NewSession()
	client := remote.NewHTTPClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, sess)
	catalog := menu.NewCatalog(client)
	sessions := session.NewManager(client, sess)

	hub := ws.NewHub()
	go hub.Run()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router.New(cfg, client, sess, sessions, catalog, hub),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting terminal server on :%s (store: %s)", cfg.Port, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down, flushing open edit sessions")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sessions.CloseAll(shutdownCtx); err != nil {
		log.Printf("ERROR: flush on shutdown: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}
