package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oshxona-pos/terminal/internal/ledger"
	"github.com/oshxona-pos/terminal/internal/session"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	MenuItem string `json:"menu_item"`
}

// AddItem handles POST /orders/{id}/items. Adding the same menu item twice
// coalesces into one staged line.
func (h *EditHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItem == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item is required"})
		return
	}

	if err := h.catalog.Ensure(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	mi, ok := h.catalog.Get(req.MenuItem)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}
	if !mi.IsAvailable {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu item is not available"})
		return
	}

	if err := es.AddItem(mi); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

type changeQuantityRequest struct {
	Delta    *string `json:"delta,omitempty"`
	Quantity *string `json:"quantity,omitempty"`
}

// ChangeQuantity handles PATCH /orders/{id}/items/{key}. The body carries
// either a relative delta or an absolute quantity, both as decimal strings.
// Driving a quantity to zero or below turns into a delete.
func (h *EditHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := ledger.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if (req.Delta == nil) == (req.Quantity == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exactly one of delta or quantity is required"})
		return
	}

	if req.Delta != nil {
		delta, derr := decimal.NewFromString(*req.Delta)
		if derr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delta"})
			return
		}
		err = es.ChangeQuantity(key, delta)
	} else {
		quantity, qerr := decimal.NewFromString(*req.Quantity)
		if qerr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
			return
		}
		err = es.SetQuantity(key, quantity)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

// DeleteItem handles DELETE /orders/{id}/items/{key}. Saved items get a
// pending delete mark; staged items vanish immediately.
func (h *EditHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.keyedMutation(w, r, (*session.EditSession).DeleteItem)
}

// RestoreItem handles POST /orders/{id}/items/{key}/restore.
func (h *EditHandler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	h.keyedMutation(w, r, (*session.EditSession).RestoreItem)
}

type splitItemRequest struct {
	Quantity string `json:"quantity"`
}

// SplitItem handles POST /orders/{id}/items/{key}/split. Moves part of a
// line onto a new staged line so it can be edited independently.
func (h *EditHandler) SplitItem(w http.ResponseWriter, r *http.Request) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := ledger.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req splitItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	if err := es.SplitItem(key, quantity); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}

// CopyItem handles POST /orders/{id}/items/{key}/copy.
func (h *EditHandler) CopyItem(w http.ResponseWriter, r *http.Request) {
	h.keyedMutation(w, r, (*session.EditSession).CopyItem)
}

// SelectItem handles POST /orders/{id}/items/{key}/select. Selecting the
// already-selected line is a no-op; selection never survives deletion.
func (h *EditHandler) SelectItem(w http.ResponseWriter, r *http.Request) {
	h.keyedMutation(w, r, (*session.EditSession).Select)
}

// keyedMutation factors the shared session-lookup, key-parse, mutate,
// broadcast, respond sequence of the single-key endpoints.
func (h *EditHandler) keyedMutation(w http.ResponseWriter, r *http.Request, mutate func(*session.EditSession, ledger.ItemKey) error) {
	es, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	key, err := ledger.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := mutate(es, key); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(es)
	writeJSON(w, http.StatusOK, buildView(es.Snapshot()))
}
