package models

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Omitting Order from JSON to avoid recursive nesting
	Order     Order   `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product"`
	VariantID uint    `gorm:"not null" json:"variant_id"`
	Variant   Variant `gorm:"foreignKey:VariantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"variant"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	// UnitPrice is snapshotted from the variant when the order is created and
	// never follows later price changes.
	UnitPrice float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Notes     string  `gorm:"type:text" json:"notes"`
}

func (oi *OrderItem) Subtotal() float64 {
	return float64(oi.Quantity) * oi.UnitPrice
}
