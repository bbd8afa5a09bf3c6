package models

import (
	"time"

	"gorm.io/gorm"
)

// Table occupancy states.
const (
	TableFree     = "free"
	TableOccupied = "occupied"
	TableReserved = "reserved"
)

type Table struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Number       int        `gorm:"uniqueIndex;not null" json:"number"`
	Status       string     `gorm:"type:varchar(20);not null;default:'free'" json:"status"`
	CurrentTotal float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"current_total"`
	OpenedAt     *time.Time `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
	Orders       []Order    `gorm:"foreignKey:TableID" json:"orders,omitempty"`
}

func IsValidTableStatus(s string) bool {
	switch s {
	case TableFree, TableOccupied, TableReserved:
		return true
	}
	return false
}

// RecomputeTableTotal re-syncs the cached running total of a table from its
// order items and persists it on the table row. Cancelled orders never count
// towards money totals.
func RecomputeTableTotal(db *gorm.DB, tableID uint) (float64, error) {
	var total float64
	err := db.Model(&OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.table_id = ? AND orders.status <> ?", tableID, OrderCancelled).
		Select("COALESCE(SUM(order_items.quantity * order_items.unit_price), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if err := db.Model(&Table{}).Where("id = ?", tableID).
		Update("current_total", total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
