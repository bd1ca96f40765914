package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oshxona-pos/terminal/internal/menu"
	"github.com/oshxona-pos/terminal/internal/remote"
)

// MenuHandler serves the menu catalog view to the terminal UI.
type MenuHandler struct {
	catalog *menu.Catalog
}

func NewMenuHandler(catalog *menu.Catalog) *MenuHandler {
	return &MenuHandler{catalog: catalog}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/reload", h.Reload)
}

type menuItemResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Category   string `json:"category"`
	IsFrequent bool   `json:"is_frequent"`
}

// List handles GET /menuitems?category=&search=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Ensure(r.Context()); err != nil {
		log.Printf("ERROR: load menu: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "menu unavailable"})
		return
	}

	items := h.catalog.Filter(r.URL.Query().Get("category"), r.URL.Query().Get("search"))
	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reload handles POST /menuitems/reload for mid-shift menu changes.
func (h *MenuHandler) Reload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.catalog.Reload(r.Context()); err != nil {
		log.Printf("ERROR: reload menu: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "menu unavailable"})
		return
	}
	log.Printf("menu reloaded in %s", time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func toMenuItemResponse(item remote.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:         item.ID,
		Name:       item.Name,
		Price:      item.Price.StringFixed(2),
		Category:   item.Category,
		IsFrequent: item.IsFrequent,
	}
}
