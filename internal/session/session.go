package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshxona-pos/terminal/internal/enum"
	"github.com/oshxona-pos/terminal/internal/ledger"
	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/shopspring/decimal"
)

// Errors returned by the editing session.
var (
	ErrNotEditable   = errors.New("order is not editable")
	ErrBadStatus     = errors.New("invalid order status")
	ErrBadTransition = errors.New("status transition not allowed")
)

// EditSession owns the editing state for one order: the ledger, the remote
// client used to commit, and the operator's role for the editability gate.
//
// All methods serialize behind one mutex. Ledger mutations are synchronous
// and atomic with respect to each other, and a Save requested while another
// commit is in flight queues behind it instead of racing it; two commits
// refetching and replacing the cached order concurrently would be a
// lost-update hazard.
type EditSession struct {
	mu     sync.Mutex
	client remote.Client
	role   string
	ledger *ledger.Ledger
}

// Open fetches the order and starts an editing session for the given
// operator role.
func Open(ctx context.Context, client remote.Client, role, orderID string) (*EditSession, error) {
	order, err := client.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	return &EditSession{
		client: client,
		role:   role,
		ledger: ledger.New(order),
	}, nil
}

func (s *EditSession) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Order().ID
}

// Editable reports whether the operator may mutate the order in its current
// status. Waiters edit only processing orders; other roles also edit
// pending (precheque) ones. Completed orders accept no further edits.
func (s *EditSession) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editable(s.role, s.ledger.Order().Status)
}

func editable(role, status string) bool {
	switch role {
	case enum.RoleWaiter:
		return status == enum.OrderStatusProcessing
	default:
		return status == enum.OrderStatusProcessing || status == enum.OrderStatusPending
	}
}

// --- Ledger mutations, gated by editability ---

func (s *EditSession) AddItem(mi remote.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	s.ledger.AddItem(mi)
	return nil
}

func (s *EditSession) ChangeQuantity(key ledger.ItemKey, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.ChangeQuantity(key, delta)
}

func (s *EditSession) SetQuantity(key ledger.ItemKey, quantity decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.SetQuantity(key, quantity)
}

func (s *EditSession) DeleteItem(key ledger.ItemKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.DeleteItem(key)
}

func (s *EditSession) RestoreItem(key ledger.ItemKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.RestoreItem(key)
}

func (s *EditSession) SplitItem(key ledger.ItemKey, quantity decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.SplitItem(key, quantity)
}

func (s *EditSession) CopyItem(key ledger.ItemKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	return s.ledger.CopyItem(key)
}

func (s *EditSession) ClearUnsaved() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !editable(s.role, s.ledger.Order().Status) {
		return ErrNotEditable
	}
	s.ledger.ClearUnsaved()
	return nil
}

func (s *EditSession) Select(key ledger.ItemKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Select(key)
}

func (s *EditSession) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.ClearSelection()
}

// --- Derived views ---

// Snapshot is everything the display needs to render the editing screen.
type Snapshot struct {
	Order     *remote.Order
	View      []ledger.LineItem
	Edits     map[string]ledger.PendingEdit
	Totals    ledger.Totals
	Selection ledger.ItemKey
	Unsaved   bool
	Editable  bool
}

func (s *EditSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.ledger.Order()
	return Snapshot{
		Order:     order,
		View:      s.ledger.MergedView(),
		Edits:     s.ledger.PendingEdits(),
		Totals:    s.ledger.Totals(),
		Selection: s.ledger.Selection(),
		Unsaved:   s.ledger.HasUnsavedChanges(),
		Editable:  editable(s.role, order.Status),
	}
}

func (s *EditSession) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.HasUnsavedChanges()
}

// --- Status machine ---

// UpdateStatus drives the order through its state machine: processing →
// pending (precheque) is open to any editor, while reopening and closing
// are reserved for non-waiter roles. Unsynced edits are flushed first; the
// cached order is then replaced by the canonical one the store returns.
func (s *EditSession) UpdateStatus(ctx context.Context, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !enum.ValidOrderStatus(next) {
		return ErrBadStatus
	}
	current := s.ledger.Order().Status
	if err := validateTransition(s.role, current, next); err != nil {
		return err
	}

	if s.ledger.HasUnsavedChanges() {
		if err := s.commit(ctx); err != nil {
			return fmt.Errorf("flush before status change: %w", err)
		}
	}

	order, err := s.client.UpdateOrderStatus(ctx, s.ledger.Order().ID, next)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.ledger.ResetTo(order)
	return nil
}

func validateTransition(role, current, next string) error {
	if current == next {
		return fmt.Errorf("%w: already %s", ErrBadTransition, current)
	}
	switch {
	case current == enum.OrderStatusProcessing && next == enum.OrderStatusPending:
		return nil // precheque, any editor
	case next == enum.OrderStatusCompleted && current != enum.OrderStatusCompleted,
		current == enum.OrderStatusPending && next == enum.OrderStatusProcessing:
		if role == enum.RoleWaiter {
			return fmt.Errorf("%w: %s to %s requires a non-waiter role", ErrBadTransition, current, next)
		}
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrBadTransition, current, next)
}

// --- Save and navigation guard ---

// Save commits all staged items and pending edits to the remote store and
// reconciles the ledger against the canonical order.
func (s *EditSession) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx)
}

// Close is the navigation guard: leaving the editing context with unsynced
// state forces a flush first. Departure always proceeds once the commit has
// settled; a flush error is returned so the caller can tell the operator,
// not to block the exit.
func (s *EditSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ledger.HasUnsavedChanges() {
		return nil
	}
	return s.commit(ctx)
}
