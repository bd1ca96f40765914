package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oshxona-pos/terminal/internal/auth"
	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/oshxona-pos/terminal/internal/session"
)

// AuthHandler drives the terminal's session lifecycle against the remote
// store's login endpoints.
type AuthHandler struct {
	client   remote.Client
	session  *auth.Session
	sessions *session.Manager
}

func NewAuthHandler(client remote.Client, sess *auth.Session, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{client: client, session: sess, sessions: sessions}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/pin-login", h.PinLogin)
	r.Post("/logout", h.Logout)
}

type loginRequest struct {
	Phone    string `json:"phone_number"`
	Password string `json:"password"`
}

type pinLoginRequest struct {
	Pin int `json:"pin"`
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Login handles POST /login with phone and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Phone == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone_number and password are required"})
		return
	}

	pair, err := h.client.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}
	h.startSession(w, r.Context(), pair)
}

// PinLogin handles POST /pin-login with the operator's short PIN.
func (h *AuthHandler) PinLogin(w http.ResponseWriter, r *http.Request) {
	var req pinLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Pin <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pin is required"})
		return
	}

	pair, err := h.client.PinLogin(r.Context(), req.Pin)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}
	h.startSession(w, r.Context(), pair)
}

// Logout handles POST /logout. Open editing sessions are flushed through
// the navigation guard before the tokens are dropped; a flush failure is
// reported but never blocks the logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	flushErr := h.sessions.CloseAll(r.Context())
	h.session.Invalidate()
	if flushErr != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "logged out",
			"warning": flushErr.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// startSession installs the token pair, resolves the operator, and answers
// with the user payload. The tokens go in first so the /getme/ call is
// authenticated; a failed lookup rolls the session back.
func (h *AuthHandler) startSession(w http.ResponseWriter, ctx context.Context, pair *remote.TokenPair) {
	h.session.Start(*pair, nil)
	user, err := h.client.Me(ctx)
	if err != nil {
		h.session.Invalidate()
		log.Printf("ERROR: fetch current user: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not resolve current user"})
		return
	}
	h.session.Start(*pair, user)
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name, Role: user.Role})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	log.Printf("ERROR: login: %v", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "login failed"})
}
