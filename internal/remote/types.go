package remote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the remote store's canonical view of a table's running tab.
// The terminal never mutates it in place: after every commit it is replaced
// wholesale by a refetched or returned copy.
type Order struct {
	ID           string       `json:"id"`
	Status       string       `json:"order_status"`
	Table        string       `json:"table"`
	TableDetails TableDetails `json:"table_details"`
	UserID       string       `json:"user"`
	UserName     string       `json:"user_name"`
	Guests       int          `json:"guests"`
	CreatedAt    time.Time    `json:"c_at"`
	Items        []OrderItem  `json:"items"`
}

// TableDetails carries the table attributes the order inherits,
// including the commission percentage applied to its totals.
type TableDetails struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Location   string          `json:"location"`
	Commission decimal.Decimal `json:"commission"`
}

// OrderItem is a persisted order line item. ItemPrice is the unit price
// captured when the line was created; menu price changes do not touch it.
type OrderItem struct {
	ID        string          `json:"id"`
	MenuItem  string          `json:"menu_item"`
	ItemName  string          `json:"item_name"`
	ItemPrice decimal.Decimal `json:"item_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"u_at"`
}

// NewOrderItem is the bulk-create payload for a single line.
type NewOrderItem struct {
	MenuItem string          `json:"menu_item"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ItemUpdate is the full-update payload for an existing line. The remote
// store does not support partial updates, so the unchanged menu_item
// reference is re-supplied alongside the new quantity.
type ItemUpdate struct {
	Order    string          `json:"order"`
	MenuItem string          `json:"menu_item"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MenuItem is an orderable entry from the shared menu.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"is_available"`
	IsFrequent  bool            `json:"is_frequent"`
}

// User is the authenticated terminal operator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// TokenPair is the JWT pair returned by the login endpoints.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
