package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/events"
	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

type orderItemView struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Notes       string  `json:"notes,omitempty"`
	Subtotal    float64 `json:"subtotal"`
}

type orderView struct {
	ID          uint            `json:"id"`
	TableID     uint            `json:"table_id"`
	TableNumber int             `json:"table_number"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Items       []orderItemView `json:"items"`
	Total       float64         `json:"total"`
}

func buildOrderView(order models.Order, tableNumber int) orderView {
	view := orderView{
		ID:          order.ID,
		TableID:     order.TableID,
		TableNumber: tableNumber,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		CompletedAt: order.CompletedAt,
		Items:       make([]orderItemView, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Size:        item.Variant.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Notes:       item.Notes,
			Subtotal:    item.Subtotal(),
		})
		view.Total += item.Subtotal()
	}
	return view
}

func (oc *OrderController) loadOrderView(orderID uint) (orderView, error) {
	var order models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").Preload("Table").
		First(&order, orderID).Error; err != nil {
		return orderView{}, err
	}
	return buildOrderView(order, order.Table.Number), nil
}

// CreateOrder -> a new kitchen ticket for an occupied table. Variant prices
// are snapshotted into the items; the whole order is written in one
// transaction, so a single bad line leaves nothing behind.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
		Items   []struct {
			ProductID uint   `json:"product_id"`
			VariantID uint   `json:"variant_id"`
			Quantity  int    `json:"quantity"`
			Notes     string `json:"notes"`
		} `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if len(req.Items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("an order needs at least one item"))
		return
	}

	var table models.Table
	if err := oc.DB.First(&table, req.TableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %d", req.TableID))
		return
	}
	if table.Status != models.TableOccupied {
		utils.RespondError(c, http.StatusBadRequest,
			invalidStatef("table %d is not occupied, open it before ordering", table.Number))
		return
	}

	var order models.Order
	err := oc.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			TableID: table.ID,
			Status:  models.OrderPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return invalidArgumentf("quantity must be greater than 0")
			}

			var variant models.Variant
			if err := tx.First(&variant, line.VariantID).Error; err != nil {
				return notFoundf("variant with ID %d", line.VariantID)
			}
			if variant.ProductID != line.ProductID {
				return invalidArgumentf("variant %d does not belong to product %d", line.VariantID, line.ProductID)
			}

			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				return notFoundf("product with ID %d", line.ProductID)
			}
			if !product.Available {
				return invalidStatef("product %q is not available", product.Name)
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				VariantID: variant.ID,
				Quantity:  line.Quantity,
				UnitPrice: variant.Price,
				Notes:     line.Notes,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}

	if _, err := models.RecomputeTableTotal(oc.DB, table.ID); err != nil {
		utils.ErrorLogger.Printf("Error refreshing total for table %d: %v", table.Number, err)
	}

	view, err := oc.loadOrderView(order.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d created for table %d (%d items)", order.ID, table.Number, len(req.Items))
	utils.RespondJSON(c, http.StatusCreated, "Order created", view)
}

// GetActiveOrders -> the kitchen queue: pending, in_preparation and ready
// orders, oldest first.
func (oc *OrderController) GetActiveOrders(c *gin.Context) {
	var orders []models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").Preload("Table").
		Where("status IN ?", []string{models.OrderPending, models.OrderInPreparation, models.OrderReady}).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, buildOrderView(order, order.Table.Number))
	}

	utils.RespondJSON(c, http.StatusOK, "Active orders", views)
}

// GetOrdersByTable -> every order of a table, newest first
func (oc *OrderController) GetOrdersByTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := oc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").
		Where("table_id = ?", table.ID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, buildOrderView(order, table.Number))
	}

	utils.RespondJSON(c, http.StatusOK, "Orders for table", gin.H{
		"table":  table,
		"orders": views,
	})
}

// GetOrderDetail
func (oc *OrderController) GetOrderDetail(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").Preload("Table").
		First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("order with ID %s", orderID))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", buildOrderView(order, order.Table.Number))
}

// UpdateOrderStatus -> advances an order along its lifecycle. Skipping steps
// is rejected; entering ready pushes an order_ready event to the floor.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !models.IsValidOrderStatus(req.Status) {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("status %q", req.Status))
		return
	}

	var order models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").Preload("Table").
		First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("order with ID %s", orderID))
		return
	}

	if !models.CanTransition(order.Status, req.Status) {
		utils.RespondError(c, http.StatusBadRequest,
			invalidStatef("order %d cannot go from %s to %s", order.ID, order.Status, req.Status))
		return
	}

	order.Status = req.Status
	if models.IsTerminalOrderStatus(req.Status) {
		now := time.Now()
		order.CompletedAt = &now
	} else {
		order.CompletedAt = nil
	}

	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if order.Status == models.OrderCancelled {
		if _, err := models.RecomputeTableTotal(oc.DB, order.TableID); err != nil {
			utils.ErrorLogger.Printf("Error refreshing total for table %d: %v", order.Table.Number, err)
		}
	}

	if order.Status == models.OrderReady {
		payload := events.OrderReadyPayload{
			OrderID:     order.ID,
			TableID:     order.TableID,
			TableNumber: order.Table.Number,
			Items:       make([]events.OrderReadyItem, 0, len(order.Items)),
		}
		for _, item := range order.Items {
			payload.Items = append(payload.Items, events.OrderReadyItem{
				ProductName: item.Product.Name,
				Size:        item.Variant.Size,
				Quantity:    item.Quantity,
				Notes:       item.Notes,
			})
		}
		events.BroadcastOrderReady(payload)
	}

	utils.InfoLogger.Printf("Order %d -> %s (table %d)", order.ID, order.Status, order.Table.Number)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", buildOrderView(order, order.Table.Number))
}

// CancelOrder -> only pending orders can be called off; once the kitchen
// starts cooking the ticket runs to completion.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items.Product").Preload("Items.Variant").Preload("Table").
		First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("order with ID %s", orderID))
		return
	}

	if order.Status != models.OrderPending {
		utils.RespondError(c, http.StatusBadRequest,
			invalidStatef("order %d is %s, only pending orders can be cancelled", order.ID, order.Status))
		return
	}

	now := time.Now()
	order.Status = models.OrderCancelled
	order.CompletedAt = &now
	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if _, err := models.RecomputeTableTotal(oc.DB, order.TableID); err != nil {
		utils.ErrorLogger.Printf("Error refreshing total for table %d: %v", order.Table.Number, err)
	}

	utils.InfoLogger.Printf("Order %d cancelled (table %d)", order.ID, order.Table.Number)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", buildOrderView(order, order.Table.Number))
}

// RemoveOrderItem -> strikes one line off a pending order. Removing the last
// line cancels the order instead, so a row never ends up itemless.
func (oc *OrderController) RemoveOrderItem(c *gin.Context) {
	orderID := c.Param("order_id")
	itemID := c.Param("item_id")

	var order models.Order
	if err := oc.DB.Preload("Items").Preload("Table").First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("order with ID %s", orderID))
		return
	}

	if models.IsTerminalOrderStatus(order.Status) {
		utils.RespondError(c, http.StatusBadRequest,
			invalidStatef("order %d is %s and cannot be modified", order.ID, order.Status))
		return
	}

	var item models.OrderItem
	if err := oc.DB.Where("id = ? AND order_id = ?", itemID, order.ID).First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("item with ID %s in order %d", itemID, order.ID))
		return
	}

	if len(order.Items) <= 1 {
		now := time.Now()
		order.Status = models.OrderCancelled
		order.CompletedAt = &now
		if err := oc.DB.Save(&order).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	} else {
		if err := oc.DB.Delete(&item).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	if _, err := models.RecomputeTableTotal(oc.DB, order.TableID); err != nil {
		utils.ErrorLogger.Printf("Error refreshing total for table %d: %v", order.Table.Number, err)
	}

	view, err := oc.loadOrderView(order.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Item %s removed from order %d", itemID, order.ID)
	utils.RespondJSON(c, http.StatusOK, "Order item removed", view)
}
