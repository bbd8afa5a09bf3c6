package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/controllers"
	"github.com/rmaldonado/comanda/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// General per-IP limit; login/register carry a stricter one below.
	r.Use(middlewares.NewRateLimiter(120, 60).RateLimit())

	tableController := controllers.NewTableController(db)
	productController := controllers.NewProductController(db)
	orderController := controllers.NewOrderController(db)
	reportController := controllers.NewReportController(db)
	userController := controllers.NewUserController(db)

	strictLimiter := middlewares.NewStrictRateLimiter()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws", controllers.HandleWebSocket)

	r.POST("/register", strictLimiter, userController.Register)
	r.POST("/login", strictLimiter, userController.Login)

	// Floor operations stay open so waitstaff tablets work without a login.
	r.GET("/tables", tableController.GetAllTables)
	r.GET("/tables/:table_id", tableController.GetTableDetail)
	r.GET("/tables/:table_id/total", tableController.RefreshTableTotal)
	r.POST("/tables/:table_id/open", tableController.OpenTable)
	r.POST("/tables/:table_id/close", tableController.CloseTable)
	r.PUT("/tables/:table_id/status", tableController.UpdateTableStatus)

	r.GET("/products", productController.GetAllProducts)
	r.GET("/products/:product_id", productController.GetProductByID)

	r.POST("/orders", orderController.CreateOrder)
	r.GET("/orders/pending", orderController.GetActiveOrders)
	r.GET("/orders/table/:table_id", orderController.GetOrdersByTable)
	r.GET("/orders/:order_id", orderController.GetOrderDetail)

	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/products", productController.CreateProduct)
		auth.PUT("/products/:product_id", productController.UpdateProduct)
		auth.DELETE("/products/:product_id", productController.DeleteProduct)
		auth.PATCH("/products/:product_id/availability", productController.SetAvailability)
		auth.POST("/products/:product_id/variants", productController.AddVariant)
		auth.PUT("/variants/:variant_id", productController.UpdateVariant)
		auth.DELETE("/variants/:variant_id", productController.DeleteVariant)

		auth.PUT("/orders/:order_id/status", orderController.UpdateOrderStatus)
		auth.POST("/orders/:order_id/cancel", orderController.CancelOrder)
		auth.DELETE("/orders/:order_id/items/:item_id", orderController.RemoveOrderItem)

		auth.GET("/reports/daily", reportController.GetDailySales)
		auth.GET("/reports/history", reportController.GetSalesHistory)
		auth.GET("/reports/stats", reportController.GetGeneralStats)
		auth.GET("/reports/invoice/:table_id", reportController.GetInvoice)

		auth.GET("/profile", userController.GetProfile)
	}

	return r
}
