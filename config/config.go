package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/utils"
)

// InitDB opens the database selected by DB_DRIVER (mysql or sqlite, default
// sqlite). For mysql, DB_DSN must carry the full DSN; for sqlite it is the
// database file path.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	dsn := os.Getenv("DB_DSN")

	var db *gorm.DB
	var err error

	switch driver {
	case "mysql":
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
				os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
		}
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		if dsn == "" {
			dsn = "restaurant.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	utils.InfoLogger.Printf("Connected to %s database", driver)
	return db, nil
}
