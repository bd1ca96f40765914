package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshxona-pos/terminal/internal/ledger"
	"github.com/oshxona-pos/terminal/internal/remote"
	"golang.org/x/sync/errgroup"
)

// PartialFailureError reports how many per-item operations of a commit
// failed. The failed edits are dropped by the canonical refetch and must be
// redone by the operator; identities of the failed items are not tracked.
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d item operations failed", e.Failed, e.Total)
}

// itemOp is one update or delete against a saved item.
type itemOp struct {
	itemID string
	edit   ledger.PendingEdit
}

// commit pushes the ledger's delta to the remote store. Caller holds s.mu.
//
// Order of operations: staged items go first in one bulk create (new lines
// have no server ids, so nothing else can reference them this cycle), then
// every pending edit runs as an independent update or delete. The edits are
// an all-settled batch, so one failure never cancels its siblings. Whatever
// the outcome, the session reconciles by refetching the canonical order and
// dropping all local deltas.
func (s *EditSession) commit(ctx context.Context) error {
	orderID := s.ledger.Order().ID

	// Step 1: bulk-create. A transport error here aborts the whole commit
	// with the ledger untouched, so the operator can simply retry.
	staged := s.ledger.StagedItems()
	if len(staged) > 0 {
		items := make([]remote.NewOrderItem, len(staged))
		for i, st := range staged {
			items[i] = remote.NewOrderItem{MenuItem: st.MenuItem, Quantity: st.Quantity}
		}
		if _, err := s.client.CreateOrderItems(ctx, orderID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
	}

	// Step 2: one op per pending edit. Updates re-supply the unchanged
	// menu_item reference since the store has no partial updates.
	edits := s.ledger.PendingEdits()
	ops := make([]itemOp, 0, len(edits))
	for itemID, edit := range edits {
		ops = append(ops, itemOp{itemID: itemID, edit: edit})
	}

	// Step 3: all-settled fan-out. Each op records its own error and the
	// group never short-circuits.
	opErrs := make([]error, len(ops))
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			opErrs[i] = s.applyOp(gctx, orderID, op)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines always return nil

	failed := 0
	for _, err := range opErrs {
		if err != nil {
			failed++
		}
	}

	// Step 4: canonical refetch and wholesale replacement, regardless of
	// per-item failures. If even the refetch fails the local deltas are
	// still dropped, since the creates above already happened and replaying
	// them on a retry would duplicate lines. The caller is told the snapshot
	// is stale.
	fresh, fetchErr := s.client.FetchOrder(ctx, orderID)
	if fetchErr != nil {
		s.ledger.ResetTo(s.ledger.Order())
	} else {
		s.ledger.ResetTo(fresh)
	}

	var result error
	if failed > 0 {
		result = &PartialFailureError{Failed: failed, Total: len(ops)}
	}
	if fetchErr != nil {
		result = errors.Join(result, fmt.Errorf("refetch order after commit: %w", fetchErr))
	}
	return result
}

func (s *EditSession) applyOp(ctx context.Context, orderID string, op itemOp) error {
	if op.edit.Deleted {
		return s.client.DeleteOrderItem(ctx, op.itemID)
	}
	item := s.findOrderItem(op.itemID)
	if item == nil {
		// Edit against an item the snapshot no longer has; treat like any
		// other per-item failure.
		return fmt.Errorf("item %s missing from snapshot", op.itemID)
	}
	_, err := s.client.UpdateOrderItem(ctx, op.itemID, remote.ItemUpdate{
		Order:    orderID,
		MenuItem: item.MenuItem,
		Quantity: op.edit.Quantity,
	})
	return err
}

func (s *EditSession) findOrderItem(itemID string) *remote.OrderItem {
	items := s.ledger.Order().Items
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}
