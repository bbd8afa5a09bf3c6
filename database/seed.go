package database

import (
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

// Seed loads a starter floor plan and menu into an empty database. A database
// that already has tables is left untouched.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for number := 1; number <= 5; number++ {
		table := models.Table{
			Number: number,
			Status: models.TableFree,
		}
		if err := db.Create(&table).Error; err != nil {
			return err
		}
	}

	menu := []struct {
		name     string
		category string
		variants []models.Variant
	}{
		{"Lemonade", models.CategoryDrink, []models.Variant{
			{Size: "Glass", Price: 3.50},
			{Size: "Pitcher", Price: 9.00},
		}},
		{"House Soda", models.CategoryDrink, []models.Variant{
			{Size: "Can", Price: 2.50},
		}},
		{"Stuffed Potatoes", models.CategoryStarter, []models.Variant{
			{Size: "Half", Price: 6.00},
			{Size: "Full", Price: 10.00},
		}},
		{"Roast Chicken", models.CategoryMainCourse, []models.Variant{
			{Size: "Personal", Price: 20.00},
			{Size: "Familiar", Price: 40.00},
		}},
		{"Grilled Trout", models.CategoryMainCourse, []models.Variant{
			{Size: "Personal", Price: 24.00},
		}},
		{"Flan", models.CategoryDessert, []models.Variant{
			{Size: "Slice", Price: 4.50},
		}},
	}

	for _, entry := range menu {
		product := models.Product{
			Name:      entry.name,
			Category:  entry.category,
			Available: true,
		}
		if err := db.Create(&product).Error; err != nil {
			return err
		}
		for _, v := range entry.variants {
			v.ProductID = product.ID
			if err := db.Create(&v).Error; err != nil {
				return err
			}
		}
	}

	utils.InfoLogger.Printf("Seeded %d tables and %d products", 5, len(menu))
	return nil
}
