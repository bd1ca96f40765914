package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind discriminates the three item key spaces.
type Kind string

const (
	// KindSaved keys an item already persisted in the remote store.
	KindSaved Kind = "saved"
	// KindStaged keys a locally-created item by menu item and unit price,
	// so repeated additions of the same dish coalesce into one line.
	KindStaged Kind = "staged"
	// KindSplit keys a split-off portion by a synthetic unique id, so it
	// never coalesces with staged siblings of the same dish and price.
	KindSplit Kind = "split"
)

// ItemKey identifies one line in the merged view. Price is carried in its
// canonical decimal string form so keys are comparable and usable as map
// keys without decimal's pointer internals getting in the way.
type ItemKey struct {
	Kind     Kind
	ID       string // saved item id, or synthetic split id
	MenuItem string // staged only
	Price    string // staged only, canonical form
}

func SavedKey(itemID string) ItemKey {
	return ItemKey{Kind: KindSaved, ID: itemID}
}

func StagedKey(menuItemID string, price decimal.Decimal) ItemKey {
	return ItemKey{Kind: KindStaged, MenuItem: menuItemID, Price: price.String()}
}

// SplitKey mints a fresh key for a split-off portion.
func SplitKey() ItemKey {
	return ItemKey{Kind: KindSplit, ID: uuid.NewString()}
}

// String encodes the key for URLs and event payloads:
// "saved:<id>", "staged:<menu_item>@<price>", "split:<id>".
func (k ItemKey) String() string {
	switch k.Kind {
	case KindStaged:
		return fmt.Sprintf("staged:%s@%s", k.MenuItem, k.Price)
	default:
		return fmt.Sprintf("%s:%s", k.Kind, k.ID)
	}
}

func (k ItemKey) IsZero() bool {
	return k.Kind == ""
}

var ErrBadKey = errors.New("malformed item key")

// ParseKey decodes the String form. Strict: unknown kinds and missing
// segments are rejected rather than guessed at.
func ParseKey(s string) (ItemKey, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return ItemKey{}, ErrBadKey
	}
	switch Kind(kind) {
	case KindSaved:
		return SavedKey(rest), nil
	case KindSplit:
		return ItemKey{Kind: KindSplit, ID: rest}, nil
	case KindStaged:
		menuItem, priceStr, ok := strings.Cut(rest, "@")
		if !ok || menuItem == "" || priceStr == "" {
			return ItemKey{}, ErrBadKey
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return ItemKey{}, fmt.Errorf("%w: bad price %q", ErrBadKey, priceStr)
		}
		return StagedKey(menuItem, price), nil
	}
	return ItemKey{}, fmt.Errorf("%w: unknown kind %q", ErrBadKey, kind)
}
