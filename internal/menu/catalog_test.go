package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/shopspring/decimal"
)

// mockClient implements only the menu call; everything else panics.
type mockClient struct {
	remote.Client
	fetchMenuItemsFn func(ctx context.Context) ([]remote.MenuItem, error)
}

func (m *mockClient) FetchMenuItems(ctx context.Context) ([]remote.MenuItem, error) {
	return m.fetchMenuItemsFn(ctx)
}

func testMenu() []remote.MenuItem {
	price := decimal.RequireFromString("1000")
	return []remote.MenuItem{
		{ID: "m1", Name: "Plov", Price: price, Category: "mains", IsAvailable: true, IsFrequent: true},
		{ID: "m2", Name: "Lagman", Price: price, Category: "mains", IsAvailable: true},
		{ID: "m3", Name: "Achichuk", Price: price, Category: "salads", IsAvailable: true},
		{ID: "m4", Name: "Old Plov", Price: price, Category: "mains", IsAvailable: false, IsFrequent: true},
		{ID: "m5", Name: "Green Tea", Price: price, Category: "drinks", IsAvailable: true, IsFrequent: true},
	}
}

func loadedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog(&mockClient{
		fetchMenuItemsFn: func(ctx context.Context) ([]remote.MenuItem, error) {
			return testMenu(), nil
		},
	})
	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return c
}

func ids(items []remote.MenuItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	c := loadedCatalog(t)

	tests := []struct {
		name     string
		category string
		search   string
		want     []string
	}{
		{"all", "", "", []string{"m1", "m2", "m3", "m5"}},
		{"category", "mains", "", []string{"m1", "m2"}},
		{"frequent", "frequent", "", []string{"m1", "m5"}},
		{"search case insensitive", "", "plov", []string{"m1"}},
		{"search overrides category", "salads", "plov", []string{"m1"}},
		{"search whitespace ignored", "mains", "  ", []string{"m1", "m2"}},
		{"no match", "", "sushi", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(c.Filter(tt.category, tt.search))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q, %q) = %v, want %v", tt.category, tt.search, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Filter(%q, %q)[%d] = %s, want %s", tt.category, tt.search, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterNeverShowsUnavailable(t *testing.T) {
	c := loadedCatalog(t)
	// m4 is frequent and matches the search but is unavailable.
	if got := c.Filter("frequent", "old plov"); len(got) != 0 {
		t.Errorf("unavailable item leaked: %v", ids(got))
	}
}

func TestGet(t *testing.T) {
	c := loadedCatalog(t)

	item, ok := c.Get("m3")
	if !ok || item.Name != "Achichuk" {
		t.Errorf("Get(m3) = %+v, %v", item, ok)
	}
	if _, ok := c.Get("nope"); ok {
		t.Error("Get of unknown id succeeded")
	}
}

func TestEnsureLoadsOnce(t *testing.T) {
	fetches := 0
	c := NewCatalog(&mockClient{
		fetchMenuItemsFn: func(ctx context.Context) ([]remote.MenuItem, error) {
			fetches++
			return testMenu(), nil
		},
	})

	for i := 0; i < 3; i++ {
		if err := c.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}

	// Reload always hits the store.
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("fetches after Reload = %d, want 2", fetches)
	}
}

func TestReloadErrorLeavesCacheCold(t *testing.T) {
	boom := errors.New("store down")
	c := NewCatalog(&mockClient{
		fetchMenuItemsFn: func(ctx context.Context) ([]remote.MenuItem, error) {
			return nil, boom
		},
	})

	if err := c.Ensure(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Ensure err = %v, want store error", err)
	}
	// A failed load must not mark the catalog as loaded.
	if err := c.Ensure(context.Background()); !errors.Is(err, boom) {
		t.Errorf("second Ensure err = %v, want another attempt", err)
	}
}
