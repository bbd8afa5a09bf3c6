package models

import "time"

// Product categories. The set is closed; unknown values are rejected at the
// boundary instead of deep in the call graph.
const (
	CategoryDrink      = "drink"
	CategoryStarter    = "starter"
	CategoryMainCourse = "main_course"
	CategoryDessert    = "dessert"
)

var productCategories = []string{
	CategoryDrink,
	CategoryStarter,
	CategoryMainCourse,
	CategoryDessert,
}

func IsValidCategory(c string) bool {
	for _, valid := range productCategories {
		if c == valid {
			return true
		}
	}
	return false
}

func ProductCategories() []string {
	return productCategories
}

type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Category  string    `gorm:"type:varchar(50);not null" json:"category"`
	// No column default: GORM skips zero-valued fields that carry one, which
	// would silently store false as true on insert.
	Available bool      `gorm:"not null" json:"available"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	Variants  []Variant `gorm:"foreignKey:ProductID" json:"variants"`
}

// Variant is a priced size option of a product, e.g. "Personal" or
// "Familiar". Every product keeps at least one.
type Variant struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Size      string  `gorm:"type:varchar(100);not null" json:"size"`
	Price     float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}
