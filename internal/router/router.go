package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oshxona-pos/terminal/internal/auth"
	"github.com/oshxona-pos/terminal/internal/config"
	"github.com/oshxona-pos/terminal/internal/handler"
	"github.com/oshxona-pos/terminal/internal/menu"
	mw "github.com/oshxona-pos/terminal/internal/middleware"
	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/oshxona-pos/terminal/internal/session"
	"github.com/oshxona-pos/terminal/internal/ws"
)

// New creates a Chi router with all terminal routes wired up. Everything
// except health, auth, and the websocket requires an authenticated session.
func New(cfg *config.Config, client remote.Client, sess *auth.Session, sessions *session.Manager, catalog *menu.Catalog, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the display frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(client, sess, sessions)
	authHandler.RegisterRoutes(r)

	// WebSocket route (checks the terminal session internally)
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, sess, w, r)
	})

	// Protected routes (require an authenticated terminal session)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(sess))

		menuHandler := handler.NewMenuHandler(catalog)
		r.Route("/menuitems", menuHandler.RegisterRoutes)

		editHandler := handler.NewEditHandler(sessions, catalog, hub)
		r.Route("/orders/{id}", editHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
