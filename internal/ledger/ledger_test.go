package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder() *remote.Order {
	return &remote.Order{
		ID:     "order-1",
		Status: "processing",
		TableDetails: remote.TableDetails{
			Name:       "T5",
			Commission: dec("10"),
		},
		Items: []remote.OrderItem{
			{ID: "i1", MenuItem: "m1", ItemName: "Plov", ItemPrice: dec("1000"), Quantity: dec("2"), UpdatedAt: time.Now()},
			{ID: "i2", MenuItem: "m2", ItemName: "Lagman", ItemPrice: dec("500"), Quantity: dec("3"), UpdatedAt: time.Now()},
		},
	}
}

func plovMenuItem() remote.MenuItem {
	return remote.MenuItem{ID: "m1", Name: "Plov", Price: dec("1000"), IsAvailable: true}
}

func viewQuantity(t *testing.T, l *Ledger, key ItemKey) decimal.Decimal {
	t.Helper()
	for _, line := range l.MergedView() {
		if line.Key == key {
			return line.Quantity
		}
	}
	t.Fatalf("key %s not in merged view", key)
	return decimal.Zero
}

func TestAddItemCoalesces(t *testing.T) {
	l := New(testOrder())

	l.AddItem(plovMenuItem())
	l.AddItem(plovMenuItem())

	staged := l.StagedItems()
	if len(staged) != 1 {
		t.Fatalf("staged lines = %d, want 1", len(staged))
	}
	if !staged[0].Quantity.Equal(dec("2")) {
		t.Errorf("staged quantity = %s, want 2", staged[0].Quantity)
	}

	// A different price for the same dish gets its own line.
	l.AddItem(remote.MenuItem{ID: "m1", Name: "Plov", Price: dec("1200")})
	if len(l.StagedItems()) != 2 {
		t.Errorf("staged lines = %d, want 2 after price change", len(l.StagedItems()))
	}
}

func TestMergedViewAppliesEdits(t *testing.T) {
	l := New(testOrder())

	if err := l.ChangeQuantity(SavedKey("i1"), dec("3")); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	if err := l.DeleteItem(SavedKey("i2")); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	l.AddItem(plovMenuItem())

	view := l.MergedView()
	if len(view) != 2 {
		t.Fatalf("view length = %d, want 2 (edited saved + staged)", len(view))
	}
	if !view[0].Quantity.Equal(dec("5")) {
		t.Errorf("edited quantity = %s, want 5", view[0].Quantity)
	}
	if view[0].Staged || !view[1].Staged {
		t.Errorf("staged flags wrong: %v %v", view[0].Staged, view[1].Staged)
	}
}

func TestQuantityEditsCoalesce(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i1")

	// Two bumps on the same saved item collapse into one edit record.
	if err := l.ChangeQuantity(key, dec("1")); err != nil {
		t.Fatal(err)
	}
	if err := l.ChangeQuantity(key, dec("2")); err != nil {
		t.Fatal(err)
	}

	edits := l.PendingEdits()
	if len(edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(edits))
	}
	if !edits["i1"].Quantity.Equal(dec("5")) {
		t.Errorf("coalesced quantity = %s, want 5", edits["i1"].Quantity)
	}
}

func TestChangeQuantityToZeroDeletes(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i1")
	if err := l.Select(key); err != nil {
		t.Fatal(err)
	}

	if err := l.ChangeQuantity(key, dec("-2")); err != nil {
		t.Fatal(err)
	}

	edit := l.PendingEdits()["i1"]
	if !edit.Deleted {
		t.Error("expected a deletion mark after quantity hit zero")
	}
	if !l.Selection().IsZero() {
		t.Error("selection should clear when the selected item is deleted")
	}
	for _, line := range l.MergedView() {
		if line.Key == key {
			t.Error("deleted item still visible in merged view")
		}
	}
}

func TestChangeQuantityDropsStagedLine(t *testing.T) {
	l := New(testOrder())
	l.AddItem(plovMenuItem())
	key := StagedKey("m1", dec("1000"))

	if err := l.ChangeQuantity(key, dec("-1")); err != nil {
		t.Fatal(err)
	}
	if len(l.StagedItems()) != 0 {
		t.Error("staged line should vanish at zero, not get a deletion mark")
	}
	if len(l.PendingEdits()) != 0 {
		t.Error("no edit record should exist for a staged line")
	}
}

func TestSetQuantity(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i2")

	if err := l.SetQuantity(key, dec("7")); err != nil {
		t.Fatal(err)
	}
	if got := viewQuantity(t, l, key); !got.Equal(dec("7")) {
		t.Errorf("quantity = %s, want 7", got)
	}

	// Setting to zero behaves like a delete.
	if err := l.SetQuantity(key, dec("0")); err != nil {
		t.Fatal(err)
	}
	if !l.PendingEdits()["i2"].Deleted {
		t.Error("expected deletion mark after SetQuantity(0)")
	}
}

func TestDeleteSupersedesQuantityEdit(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i1")

	if err := l.ChangeQuantity(key, dec("4")); err != nil {
		t.Fatal(err)
	}
	if err := l.DeleteItem(key); err != nil {
		t.Fatal(err)
	}

	edits := l.PendingEdits()
	if len(edits) != 1 || !edits["i1"].Deleted {
		t.Fatalf("edits = %+v, want single deletion mark", edits)
	}
}

func TestRestoreItem(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i1")

	if err := l.DeleteItem(key); err != nil {
		t.Fatal(err)
	}
	if err := l.RestoreItem(key); err != nil {
		t.Fatalf("RestoreItem: %v", err)
	}

	if len(l.PendingEdits()) != 0 {
		t.Error("restore should drop the edit record entirely")
	}
	// Original quantity comes back, not the last edited one.
	if got := viewQuantity(t, l, key); !got.Equal(dec("2")) {
		t.Errorf("restored quantity = %s, want original 2", got)
	}
	if l.Selection() != key {
		t.Error("restored item should be selected")
	}
}

func TestRestoreRejectsNonDeleted(t *testing.T) {
	l := New(testOrder())

	if err := l.RestoreItem(SavedKey("i1")); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("restore of live item: err = %v, want ErrNotDeleted", err)
	}

	l.AddItem(plovMenuItem())
	if err := l.RestoreItem(StagedKey("m1", dec("1000"))); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("restore of staged item: err = %v, want ErrNotDeleted", err)
	}
}

func TestSplitItem(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i2") // quantity 3

	if err := l.SplitItem(key, dec("1")); err != nil {
		t.Fatalf("SplitItem: %v", err)
	}

	if got := viewQuantity(t, l, key); !got.Equal(dec("2")) {
		t.Errorf("source quantity = %s, want 2", got)
	}
	staged := l.StagedItems()
	if len(staged) != 1 {
		t.Fatalf("staged lines = %d, want 1", len(staged))
	}
	if staged[0].Key.Kind != KindSplit {
		t.Errorf("split line kind = %s, want split", staged[0].Key.Kind)
	}
	if !staged[0].Quantity.Equal(dec("1")) || !staged[0].ItemPrice.Equal(dec("500")) {
		t.Errorf("split line = %s x %s, want 1 x 500", staged[0].Quantity, staged[0].ItemPrice)
	}

	// A second split of the same dish must not coalesce with the first.
	if err := l.SplitItem(key, dec("1")); err != nil {
		t.Fatal(err)
	}
	if len(l.StagedItems()) != 2 {
		t.Errorf("staged lines = %d, want 2 distinct splits", len(l.StagedItems()))
	}
}

func TestSplitRejectsBadQuantities(t *testing.T) {
	l := New(testOrder())
	key := SavedKey("i1") // quantity 2

	for _, q := range []string{"0", "-1", "2", "3"} {
		if err := l.SplitItem(key, dec(q)); !errors.Is(err, ErrSplitTooLarge) {
			t.Errorf("SplitItem(%s): err = %v, want ErrSplitTooLarge", q, err)
		}
	}

	// Rejection leaves no trace.
	if len(l.StagedItems()) != 0 || len(l.PendingEdits()) != 0 {
		t.Error("rejected split mutated state")
	}
}

func TestCopyItemStagesOneUnit(t *testing.T) {
	l := New(testOrder())

	if err := l.CopyItem(SavedKey("i1")); err != nil {
		t.Fatalf("CopyItem: %v", err)
	}
	staged := l.StagedItems()
	if len(staged) != 1 || !staged[0].Quantity.Equal(dec("1")) {
		t.Fatalf("staged = %+v, want one line of quantity 1", staged)
	}

	// Copying again coalesces with the staged line it created.
	if err := l.CopyItem(SavedKey("i1")); err != nil {
		t.Fatal(err)
	}
	staged = l.StagedItems()
	if len(staged) != 1 || !staged[0].Quantity.Equal(dec("2")) {
		t.Fatalf("staged = %+v, want one coalesced line of quantity 2", staged)
	}
}

func TestClearUnsavedKeepsDeletions(t *testing.T) {
	l := New(testOrder())

	l.AddItem(plovMenuItem())
	if err := l.ChangeQuantity(SavedKey("i1"), dec("5")); err != nil {
		t.Fatal(err)
	}
	if err := l.DeleteItem(SavedKey("i2")); err != nil {
		t.Fatal(err)
	}

	l.ClearUnsaved()

	if len(l.StagedItems()) != 0 {
		t.Error("staged items survived clear")
	}
	edits := l.PendingEdits()
	if _, ok := edits["i1"]; ok {
		t.Error("quantity edit survived clear")
	}
	if !edits["i2"].Deleted {
		t.Error("deletion mark did not survive clear")
	}
	if !l.HasUnsavedChanges() {
		t.Error("pending deletion should still count as unsaved")
	}
}

func TestClearUnsavedDropsStagedSelection(t *testing.T) {
	l := New(testOrder())
	l.AddItem(plovMenuItem())
	key := StagedKey("m1", dec("1000"))
	if err := l.Select(key); err != nil {
		t.Fatal(err)
	}

	l.ClearUnsaved()

	if !l.Selection().IsZero() {
		t.Error("selection pointing at a cleared staged line should be dropped")
	}
}

func TestSelection(t *testing.T) {
	l := New(testOrder())

	if !l.Selection().IsZero() {
		t.Error("fresh ledger should have no selection")
	}
	if err := l.Select(SavedKey("i1")); err != nil {
		t.Fatal(err)
	}
	if err := l.Select(SavedKey("i2")); err != nil {
		t.Fatal(err)
	}
	if l.Selection() != SavedKey("i2") {
		t.Error("selecting a second item should replace the first")
	}

	if err := l.Select(SavedKey("nope")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("select of unknown item: err = %v, want ErrUnknownItem", err)
	}
	if l.Selection() != SavedKey("i2") {
		t.Error("failed select must not disturb the current selection")
	}

	l.ClearSelection()
	if !l.Selection().IsZero() {
		t.Error("selection not cleared")
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	l := New(testOrder())
	if err := l.Select(SavedKey("i1")); err != nil {
		t.Fatal(err)
	}
	// Deleting a different item still drops the selection; the editing
	// actions bar closes after any delete.
	if err := l.DeleteItem(SavedKey("i2")); err != nil {
		t.Fatal(err)
	}
	if !l.Selection().IsZero() {
		t.Error("selection survived a delete")
	}
}

func TestResetToDiscardsEverything(t *testing.T) {
	l := New(testOrder())
	l.AddItem(plovMenuItem())
	if err := l.DeleteItem(SavedKey("i1")); err != nil {
		t.Fatal(err)
	}

	fresh := testOrder()
	fresh.Items[0].Quantity = dec("9")
	l.ResetTo(fresh)

	if l.HasUnsavedChanges() {
		t.Error("reset ledger reports unsaved changes")
	}
	if !l.Selection().IsZero() {
		t.Error("reset ledger kept a selection")
	}
	if got := viewQuantity(t, l, SavedKey("i1")); !got.Equal(dec("9")) {
		t.Errorf("view quantity = %s, want the fresh snapshot's 9", got)
	}
}

func TestUnknownItemErrors(t *testing.T) {
	l := New(testOrder())
	missing := SavedKey("nope")

	if err := l.ChangeQuantity(missing, dec("1")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("ChangeQuantity: %v", err)
	}
	if err := l.DeleteItem(missing); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("DeleteItem: %v", err)
	}
	if err := l.SplitItem(missing, dec("1")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("SplitItem: %v", err)
	}
	if err := l.CopyItem(missing); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("CopyItem: %v", err)
	}
}
