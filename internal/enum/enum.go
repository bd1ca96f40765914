package enum

// Order statuses as the remote store spells them. Pending is the precheque
// state: the bill has been printed and waits for payment.
const (
	OrderStatusProcessing = "processing"
	OrderStatusPending    = "pending"
	OrderStatusCompleted  = "completed"
)

// Operator roles.
const (
	RoleWaiter  = "waiter"
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Menu categories shown as tabs on the ordering grid. Frequent is a
// pseudo-category built from the is_frequent flag.
const (
	CategoryFrequent   = "frequent"
	CategoryMains      = "mains"
	CategorySalads     = "salads"
	CategoryDrinks     = "drinks"
	CategoryDeserts    = "deserts"
	CategoryAppetizers = "appetizers"
)

// ValidOrderStatus reports whether s is a status the store understands.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusPending, OrderStatusCompleted:
		return true
	}
	return false
}
