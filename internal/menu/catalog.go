package menu

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oshxona-pos/terminal/internal/enum"
	"github.com/oshxona-pos/terminal/internal/remote"
)

// Catalog is the terminal's read-only view of the shared menu. It caches
// the item list per editing shift; Reload pulls a fresh copy when the
// kitchen changes the menu mid-shift.
type Catalog struct {
	client remote.Client

	mu     sync.RWMutex
	items  []remote.MenuItem
	loaded bool
}

func NewCatalog(client remote.Client) *Catalog {
	return &Catalog{client: client}
}

// Reload fetches the menu from the remote store, replacing the cache.
func (c *Catalog) Reload(ctx context.Context) error {
	items, err := c.client.FetchMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch menu items: %w", err)
	}
	c.mu.Lock()
	c.items = items
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Ensure loads the menu on first use; later calls are free.
func (c *Catalog) Ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Get returns the cached menu item by id.
func (c *Catalog) Get(id string) (remote.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return remote.MenuItem{}, false
}

// Filter returns the orderable items for one tab of the menu grid. A
// non-empty search term wins over the category tab and matches on name,
// case-insensitively. The "frequent" pseudo-category selects flagged items
// across all real categories. Unavailable items never appear.
func (c *Catalog) Filter(category, search string) []remote.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]remote.MenuItem, 0, len(c.items))
	search = strings.TrimSpace(search)
	for _, item := range c.items {
		if !item.IsAvailable {
			continue
		}
		if search != "" {
			if strings.Contains(strings.ToLower(item.Name), strings.ToLower(search)) {
				out = append(out, item)
			}
			continue
		}
		switch category {
		case "":
			out = append(out, item)
		case enum.CategoryFrequent:
			if item.IsFrequent {
				out = append(out, item)
			}
		default:
			if item.Category == category {
				out = append(out, item)
			}
		}
	}
	return out
}
