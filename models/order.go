package models

import "time"

// Order lifecycle states. An order moves pending -> in_preparation -> ready
// -> completed; cancellation is only reachable from pending.
const (
	OrderPending       = "pending"
	OrderInPreparation = "in_preparation"
	OrderReady         = "ready"
	OrderCompleted     = "completed"
	OrderCancelled     = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderPending:       {OrderInPreparation, OrderCancelled},
	OrderInPreparation: {OrderReady},
	OrderReady:         {OrderCompleted},
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderInPreparation, OrderReady, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether an order in this status accepts no
// further changes.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition reports whether moving an order from one status to another is
// a permitted edge of the lifecycle.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TableID     uint        `gorm:"not null;index" json:"table_id"`
	Table       Table       `gorm:"foreignKey:TableID" json:"-"`
	Status      string      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	Items       []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// Total sums the item subtotals of an already-loaded order.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}
