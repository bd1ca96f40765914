package ledger

import (
	"errors"
	"time"

	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/shopspring/decimal"
)

// Errors returned by ledger operations.
var (
	ErrUnknownItem   = errors.New("item not found in order")
	ErrSplitTooLarge = errors.New("split quantity must be less than total")
	ErrNotDeleted    = errors.New("item is not marked for deletion")
)

// StagedItem is a line the waiter added locally that the remote store has
// not seen yet. It becomes a saved item after a successful commit.
type StagedItem struct {
	Key       ItemKey
	MenuItem  string
	ItemName  string
	ItemPrice decimal.Decimal
	Quantity  decimal.Decimal
}

// PendingEdit is a local delta against one saved item: either a quantity
// override or a deletion mark. At most one edit exists per saved item id;
// writes coalesce, a delete supersedes a quantity edit, and a restore
// removes the record entirely.
type PendingEdit struct {
	Quantity decimal.Decimal
	Deleted  bool
}

// LineItem is one entry of the merged view.
type LineItem struct {
	Key       ItemKey
	MenuItem  string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	Staged    bool
	UpdatedAt time.Time
}

// Ledger holds one order's snapshot from the remote store together with the
// locally staged items and pending edits, and derives the merged view that
// the totals calculator and the display consume.
//
// All methods are synchronous and none do I/O; the editing session
// serializes access, matching the single-editor model.
type Ledger struct {
	order     *remote.Order
	staged    []StagedItem
	edits     map[string]PendingEdit
	selection *ItemKey
}

func New(order *remote.Order) *Ledger {
	return &Ledger{
		order: order,
		edits: make(map[string]PendingEdit),
	}
}

// Order returns the cached snapshot. Callers must treat it as read-only.
func (l *Ledger) Order() *remote.Order {
	return l.order
}

// ResetTo replaces the snapshot wholesale and discards every local delta.
// Called after a commit reconciles against the canonical order.
func (l *Ledger) ResetTo(order *remote.Order) {
	l.order = order
	l.staged = nil
	l.edits = make(map[string]PendingEdit)
	l.selection = nil
}

// AddItem stages one unit of a menu item. Adding the same dish at the same
// price again bumps the existing staged line instead of creating a sibling.
func (l *Ledger) AddItem(mi remote.MenuItem) {
	key := StagedKey(mi.ID, mi.Price)
	if i := l.findStaged(key); i >= 0 {
		l.staged[i].Quantity = l.staged[i].Quantity.Add(decimal.NewFromInt(1))
		return
	}
	l.staged = append(l.staged, StagedItem{
		Key:       key,
		MenuItem:  mi.ID,
		ItemName:  mi.Name,
		ItemPrice: mi.Price,
		Quantity:  decimal.NewFromInt(1),
	})
}

// ChangeQuantity shifts the effective quantity of the keyed item by delta.
// Driving a quantity to zero or below removes the item: staged lines are
// dropped outright, saved lines get a deletion mark.
func (l *Ledger) ChangeQuantity(key ItemKey, delta decimal.Decimal) error {
	switch key.Kind {
	case KindSaved:
		item := l.findSaved(key.ID)
		if item == nil {
			return ErrUnknownItem
		}
		current := item.Quantity
		if edit, ok := l.edits[key.ID]; ok && !edit.Deleted {
			current = edit.Quantity
		}
		next := current.Add(delta)
		if next.IsPositive() {
			l.edits[key.ID] = PendingEdit{Quantity: next}
		} else {
			l.edits[key.ID] = PendingEdit{Deleted: true}
			l.clearSelectionFor(key)
		}
		return nil

	case KindStaged, KindSplit:
		i := l.findStaged(key)
		if i < 0 {
			return ErrUnknownItem
		}
		next := l.staged[i].Quantity.Add(delta)
		if next.IsPositive() {
			l.staged[i].Quantity = next
		} else {
			l.staged = append(l.staged[:i], l.staged[i+1:]...)
			l.clearSelectionFor(key)
		}
		return nil
	}
	return ErrUnknownItem
}

// SetQuantity sets the effective quantity outright (numpad entry). It is a
// ChangeQuantity by the difference, so the zero-and-below removal rule and
// the edit coalescing behave identically.
func (l *Ledger) SetQuantity(key ItemKey, quantity decimal.Decimal) error {
	current, err := l.currentQuantity(key)
	if err != nil {
		return err
	}
	return l.ChangeQuantity(key, quantity.Sub(current))
}

// DeleteItem removes the keyed item from the merged view: staged lines are
// dropped, saved lines are marked for deletion on the next commit. Any
// prior quantity edit on a saved line is superseded.
func (l *Ledger) DeleteItem(key ItemKey) error {
	switch key.Kind {
	case KindSaved:
		if l.findSaved(key.ID) == nil {
			return ErrUnknownItem
		}
		l.edits[key.ID] = PendingEdit{Deleted: true}
	case KindStaged, KindSplit:
		i := l.findStaged(key)
		if i < 0 {
			return ErrUnknownItem
		}
		l.staged = append(l.staged[:i], l.staged[i+1:]...)
	default:
		return ErrUnknownItem
	}
	l.selection = nil
	return nil
}

// RestoreItem cancels a pending deletion, bringing the saved item back at
// its original quantity, and re-selects it for further editing.
func (l *Ledger) RestoreItem(key ItemKey) error {
	if key.Kind != KindSaved {
		return ErrNotDeleted
	}
	edit, ok := l.edits[key.ID]
	if !ok || !edit.Deleted {
		return ErrNotDeleted
	}
	delete(l.edits, key.ID)
	l.selection = &key
	return nil
}

// SplitItem carves quantity off an existing line into a new staged line at
// the same unit price, keyed uniquely so it never merges back. The waiter
// uses this to move part of a round to another bill or course.
func (l *Ledger) SplitItem(key ItemKey, quantity decimal.Decimal) error {
	current, err := l.currentQuantity(key)
	if err != nil {
		return err
	}
	if !quantity.IsPositive() || quantity.GreaterThanOrEqual(current) {
		return ErrSplitTooLarge
	}

	menuItem, name, price, err := l.itemInfo(key)
	if err != nil {
		return err
	}
	if err := l.ChangeQuantity(key, quantity.Neg()); err != nil {
		return err
	}
	l.staged = append(l.staged, StagedItem{
		Key:       SplitKey(),
		MenuItem:  menuItem,
		ItemName:  name,
		ItemPrice: price,
		Quantity:  quantity,
	})
	return nil
}

// CopyItem stages one more unit of the keyed item's dish, coalescing with
// an existing staged line the same way AddItem does.
func (l *Ledger) CopyItem(key ItemKey) error {
	menuItem, name, price, err := l.itemInfo(key)
	if err != nil {
		return err
	}
	l.AddItem(remote.MenuItem{ID: menuItem, Name: name, Price: price})
	return nil
}

// ClearUnsaved discards staged items and pending quantity edits but keeps
// deletion marks. Removing a saved item is treated as a standing decision
// for the next save; count changes and additions are provisional.
func (l *Ledger) ClearUnsaved() {
	l.staged = nil
	for id, edit := range l.edits {
		if !edit.Deleted {
			delete(l.edits, id)
		}
	}
	if l.selection != nil && l.selection.Kind != KindSaved {
		l.selection = nil
	}
}

// Select marks the keyed item for editing actions, replacing any prior
// selection. The key must resolve to a known item; deleted saved items are
// selectable so they can be restored.
func (l *Ledger) Select(key ItemKey) error {
	switch key.Kind {
	case KindSaved:
		if l.findSaved(key.ID) == nil {
			return ErrUnknownItem
		}
	case KindStaged, KindSplit:
		if l.findStaged(key) < 0 {
			return ErrUnknownItem
		}
	default:
		return ErrUnknownItem
	}
	l.selection = &key
	return nil
}

func (l *Ledger) ClearSelection() {
	l.selection = nil
}

// Selection returns the selected key, or a zero key when nothing is selected.
func (l *Ledger) Selection() ItemKey {
	if l.selection == nil {
		return ItemKey{}
	}
	return *l.selection
}

// MergedView derives the display list: saved items with their pending edits
// applied (deletion marks hide the line), followed by staged items in the
// order they were added. It reads only the snapshot, the edits, and the
// staged list, so it can be recomputed from scratch at any time.
func (l *Ledger) MergedView() []LineItem {
	view := make([]LineItem, 0, len(l.order.Items)+len(l.staged))
	for _, item := range l.order.Items {
		quantity := item.Quantity
		if edit, ok := l.edits[item.ID]; ok {
			if edit.Deleted {
				continue
			}
			quantity = edit.Quantity
		}
		view = append(view, LineItem{
			Key:       SavedKey(item.ID),
			MenuItem:  item.MenuItem,
			Name:      item.ItemName,
			UnitPrice: item.ItemPrice,
			Quantity:  quantity,
			UpdatedAt: item.UpdatedAt,
		})
	}
	for _, s := range l.staged {
		view = append(view, LineItem{
			Key:       s.Key,
			MenuItem:  s.MenuItem,
			Name:      s.ItemName,
			UnitPrice: s.ItemPrice,
			Quantity:  s.Quantity,
			Staged:    true,
		})
	}
	return view
}

// StagedItems returns a copy of the staged lines in insertion order.
func (l *Ledger) StagedItems() []StagedItem {
	out := make([]StagedItem, len(l.staged))
	copy(out, l.staged)
	return out
}

// PendingEdits returns a copy of the edit records keyed by saved item id.
func (l *Ledger) PendingEdits() map[string]PendingEdit {
	out := make(map[string]PendingEdit, len(l.edits))
	for id, edit := range l.edits {
		out[id] = edit
	}
	return out
}

// HasUnsavedChanges reports whether anything local would be lost by
// abandoning the editing session.
func (l *Ledger) HasUnsavedChanges() bool {
	return len(l.staged) > 0 || len(l.edits) > 0
}

// --- internals ---

func (l *Ledger) findSaved(itemID string) *remote.OrderItem {
	for i := range l.order.Items {
		if l.order.Items[i].ID == itemID {
			return &l.order.Items[i]
		}
	}
	return nil
}

func (l *Ledger) findStaged(key ItemKey) int {
	for i := range l.staged {
		if l.staged[i].Key == key {
			return i
		}
	}
	return -1
}

// currentQuantity resolves the effective quantity the merged view shows for
// the keyed item. Deletion-marked items resolve to their original quantity,
// the same base ChangeQuantity arithmetic starts from.
func (l *Ledger) currentQuantity(key ItemKey) (decimal.Decimal, error) {
	switch key.Kind {
	case KindSaved:
		item := l.findSaved(key.ID)
		if item == nil {
			return decimal.Zero, ErrUnknownItem
		}
		if edit, ok := l.edits[key.ID]; ok && !edit.Deleted {
			return edit.Quantity, nil
		}
		return item.Quantity, nil
	case KindStaged, KindSplit:
		i := l.findStaged(key)
		if i < 0 {
			return decimal.Zero, ErrUnknownItem
		}
		return l.staged[i].Quantity, nil
	}
	return decimal.Zero, ErrUnknownItem
}

func (l *Ledger) itemInfo(key ItemKey) (menuItem, name string, price decimal.Decimal, err error) {
	switch key.Kind {
	case KindSaved:
		item := l.findSaved(key.ID)
		if item == nil {
			return "", "", decimal.Zero, ErrUnknownItem
		}
		return item.MenuItem, item.ItemName, item.ItemPrice, nil
	case KindStaged, KindSplit:
		i := l.findStaged(key)
		if i < 0 {
			return "", "", decimal.Zero, ErrUnknownItem
		}
		s := l.staged[i]
		return s.MenuItem, s.ItemName, s.ItemPrice, nil
	}
	return "", "", decimal.Zero, ErrUnknownItem
}

func (l *Ledger) clearSelectionFor(key ItemKey) {
	if l.selection != nil && *l.selection == key {
		l.selection = nil
	}
}
