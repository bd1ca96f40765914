package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oshxona-pos/terminal/internal/ledger"
	"github.com/oshxona-pos/terminal/internal/menu"
	"github.com/oshxona-pos/terminal/internal/session"
	"github.com/oshxona-pos/terminal/internal/ws"
)

// EditHandler exposes the order-editing session to the terminal UI.
type EditHandler struct {
	sessions *session.Manager
	catalog  *menu.Catalog
	hub      *ws.Hub
}

func NewEditHandler(sessions *session.Manager, catalog *menu.Catalog, hub *ws.Hub) *EditHandler {
	return &EditHandler{sessions: sessions, catalog: catalog, hub: hub}
}

// RegisterRoutes registers the editing endpoints. Expected to be mounted
// under /orders/{id}.
func (h *EditHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.OpenSession)
	r.Delete("/session", h.CloseSession)
	r.Get("/view", h.View)
	r.Post("/save", h.Save)
	r.Post("/clear", h.Clear)
	r.Patch("/status", h.UpdateStatus)

	r.Post("/items", h.AddItem)
	r.Patch("/items/{key}", h.ChangeQuantity)
	r.Delete("/items/{key}", h.DeleteItem)
	r.Post("/items/{key}/restore", h.RestoreItem)
	r.Post("/items/{key}/split", h.SplitItem)
	r.Post("/items/{key}/copy", h.CopyItem)
	r.Post("/items/{key}/select", h.SelectItem)
}

// --- Response types (wire format of the old terminal) ---

type orderHeaderResponse struct {
	ID            string    `json:"id"`
	Status        string    `json:"order_status"`
	TableName     string    `json:"table_name"`
	TableLocation string    `json:"table_location"`
	UserName      string    `json:"user_name"`
	Guests        int       `json:"guests"`
	CreatedAt     time.Time `json:"c_at"`
}

type lineItemResponse struct {
	Key       string     `json:"key"`
	MenuItem  string     `json:"menu_item"`
	ItemName  string     `json:"item_name"`
	ItemPrice string     `json:"item_price"`
	Quantity  string     `json:"quantity"`
	LineTotal string     `json:"line_total"`
	Staged    bool       `json:"staged"`
	UpdatedAt *time.Time `json:"u_at,omitempty"`
}

// viewResponse is the full editing screen state: the merged view, the
// delete-marked lines (shown struck through so they can be restored), and
// the running totals.
type viewResponse struct {
	Order      orderHeaderResponse `json:"order"`
	Items      []lineItemResponse  `json:"items"`
	Deleted    []lineItemResponse  `json:"deleted"`
	Subtotal   string              `json:"subtotal"`
	Commission string              `json:"commission"`
	Total      string              `json:"total"`
	Unsaved    bool                `json:"unsaved"`
	Editable   bool                `json:"editable"`
	Selection  string              `json:"selection,omitempty"`
}

func buildView(snap session.Snapshot) viewResponse {
	resp := viewResponse{
		Order: orderHeaderResponse{
			ID:            snap.Order.ID,
			Status:        snap.Order.Status,
			TableName:     snap.Order.TableDetails.Name,
			TableLocation: snap.Order.TableDetails.Location,
			UserName:      snap.Order.UserName,
			Guests:        snap.Order.Guests,
			CreatedAt:     snap.Order.CreatedAt,
		},
		Items:      make([]lineItemResponse, len(snap.View)),
		Deleted:    []lineItemResponse{},
		Subtotal:   snap.Totals.Subtotal.StringFixed(2),
		Commission: snap.Order.TableDetails.Commission.String(),
		Total:      snap.Totals.Total.StringFixed(2),
		Unsaved:    snap.Unsaved,
		Editable:   snap.Editable,
	}

	for i, line := range snap.View {
		item := lineItemResponse{
			Key:       line.Key.String(),
			MenuItem:  line.MenuItem,
			ItemName:  line.Name,
			ItemPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity.String(),
			LineTotal: line.UnitPrice.Mul(line.Quantity).StringFixed(2),
			Staged:    line.Staged,
		}
		if !line.Staged {
			u := line.UpdatedAt
			item.UpdatedAt = &u
		}
		resp.Items[i] = item
	}

	// Delete-marked saved lines are hidden from the merged view but the UI
	// still renders them for restore.
	for _, oi := range snap.Order.Items {
		if edit, ok := snap.Edits[oi.ID]; ok && edit.Deleted {
			u := oi.UpdatedAt
			resp.Deleted = append(resp.Deleted, lineItemResponse{
				Key:       ledger.SavedKey(oi.ID).String(),
				MenuItem:  oi.MenuItem,
				ItemName:  oi.ItemName,
				ItemPrice: oi.ItemPrice.StringFixed(2),
				Quantity:  oi.Quantity.String(),
				LineTotal: oi.ItemPrice.Mul(oi.Quantity).StringFixed(2),
				UpdatedAt: &u,
			})
		}
	}

	if !snap.Selection.IsZero() {
		resp.Selection = snap.Selection.String()
	}
	return resp
}

// --- Session lifecycle ---

// OpenSession handles POST /orders/{id}/session.
func (h *EditHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	es, err := h.sessions.Open(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildView(es.Snapshot()))
}

// CloseSession handles DELETE /orders/{id}/session, the navigation guard.
// Unsynced edits are flushed before the session is released; departure
// proceeds even when the flush partially fails, with the failure reported.
func (h *EditHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	err := h.sessions.Close(r.Context(), orderID)
	if errors.Is(err, session.ErrNoEditSession) {
		writeError(w, err)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "closed",
			"warning": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// View handles GET /orders/{id}/view.
func (h *EditHandler) View(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

// Save handles POST /orders/{id}/save, the explicit commit.
func (h *EditHandler) Save(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := es.Save(r.Context()); err != nil {
		// The ledger has already reconciled whatever it could; push the
		// refreshed view before reporting the failure.
		h.broadcast(es)
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

// Clear handles POST /orders/{id}/clear. Staged items and quantity edits
// are discarded; pending deletions survive.
func (h *EditHandler) Clear(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := es.ClearUnsaved(); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

type updateStatusRequest struct {
	Status string `json:"order_status"`
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *EditHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_status is required"})
		return
	}

	if err := es.UpdateStatus(r.Context(), req.Status); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

// broadcast pushes the current editing screen state to every ws client
// watching the order.
func (h *EditHandler) broadcast(es *session.EditSession) {
	if h.hub == nil {
		return
	}
	snap := es.Snapshot()
	payload, err := json.Marshal(buildView(snap))
	if err != nil {
		return
	}
	h.hub.BroadcastToOrder(snap.Order.ID, ws.Event{Type: "order.edited", Payload: payload})
}
