package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/rmaldonado/comanda/config"
	"github.com/rmaldonado/comanda/database"
	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/router"
	"github.com/rmaldonado/comanda/services"
	"github.com/rmaldonado/comanda/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Running without a .env file is fine, env vars may come from the host.
		utils.InfoLogger.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Database initialization failed: %v", err)
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Product{},
		&models.Variant{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		utils.ErrorLogger.Fatalf("Migration failed: %v", err)
	}

	if err := database.Seed(db); err != nil {
		utils.ErrorLogger.Fatalf("Seeding failed: %v", err)
	}

	monitor := services.NewFloorMonitor(db, 30*time.Second)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	utils.InfoLogger.Printf("Server listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatalf("Server failed: %v", err)
	}
}
