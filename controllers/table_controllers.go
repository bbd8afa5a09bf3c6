package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/events"
	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// GetAllTables -> every table, ordered by display number
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("number asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// OpenTable -> marks a table occupied so it can start receiving orders.
// The path parameter is the table's display number, as printed on the
// physical table card.
func (tc *TableController) OpenTable(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("table number %q", c.Param("table_id")))
		return
	}

	var table models.Table
	if err := tc.DB.Where("number = ?", number).First(&table).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table %d", number))
		return
	}

	if table.Status == models.TableOccupied {
		utils.RespondError(c, http.StatusBadRequest, invalidStatef("table %d is already occupied", number))
		return
	}

	now := time.Now()
	table.Status = models.TableOccupied
	table.OpenedAt = &now
	table.ClosedAt = nil
	table.CurrentTotal = 0
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(table)

	utils.InfoLogger.Printf("Table %d opened", table.Number)
	utils.RespondJSON(c, http.StatusOK, "Table opened", table)
}

// CloseTable -> frees the table after collecting the bill. Historical orders
// stay attached to the table row for reporting by close date.
func (tc *TableController) CloseTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	if table.Status != models.TableOccupied {
		utils.RespondError(c, http.StatusBadRequest, invalidStatef("table %d is not occupied", table.Number))
		return
	}

	// The total collected is computed before the close wipes the cached value.
	total, err := models.RecomputeTableTotal(tc.DB, table.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	table.Status = models.TableFree
	table.ClosedAt = &now
	table.OpenedAt = nil
	table.CurrentTotal = 0
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(table)

	utils.InfoLogger.Printf("Table %d closed, collected %s", table.Number, utils.FormatAmount(total))
	utils.RespondJSON(c, http.StatusOK, "Table closed. Total collected: "+utils.FormatAmount(total), gin.H{
		"table":           table,
		"total_collected": total,
	})
}

// GetTableDetail -> table plus all of its orders (any status), each with its
// items, per-item subtotals and per-order totals.
func (tc *TableController) GetTableDetail(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	var orders []models.Order
	if err := tc.DB.Preload("Items.Product").Preload("Items.Variant").
		Where("table_id = ?", table.ID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type itemDetail struct {
		ID              uint    `json:"id"`
		ProductName     string  `json:"product_name"`
		ProductCategory string  `json:"product_category"`
		Size            string  `json:"size"`
		Quantity        int     `json:"quantity"`
		UnitPrice       float64 `json:"unit_price"`
		Notes           string  `json:"notes,omitempty"`
		Subtotal        float64 `json:"subtotal"`
	}
	type orderDetail struct {
		ID          uint         `json:"id"`
		Status      string       `json:"status"`
		CreatedAt   time.Time    `json:"created_at"`
		CompletedAt *time.Time   `json:"completed_at"`
		Items       []itemDetail `json:"items"`
		Total       float64      `json:"total"`
	}

	details := make([]orderDetail, 0, len(orders))
	for _, order := range orders {
		detail := orderDetail{
			ID:          order.ID,
			Status:      order.Status,
			CreatedAt:   order.CreatedAt,
			CompletedAt: order.CompletedAt,
			Items:       make([]itemDetail, 0, len(order.Items)),
		}
		for _, item := range order.Items {
			detail.Items = append(detail.Items, itemDetail{
				ID:              item.ID,
				ProductName:     item.Product.Name,
				ProductCategory: item.Product.Category,
				Size:            item.Variant.Size,
				Quantity:        item.Quantity,
				UnitPrice:       item.UnitPrice,
				Notes:           item.Notes,
				Subtotal:        item.Subtotal(),
			})
			detail.Total += item.Subtotal()
		}
		details = append(details, detail)
	}

	utils.RespondJSON(c, http.StatusOK, "Table detail", gin.H{
		"table":  table,
		"orders": details,
	})
}

// RefreshTableTotal -> re-syncs and returns the cached running total of a
// table. The total is a derived value refreshed on demand, not live-computed.
func (tc *TableController) RefreshTableTotal(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	total, err := models.RecomputeTableTotal(tc.DB, table.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table total", gin.H{
		"table_id": table.ID,
		"number":   table.Number,
		"status":   table.Status,
		"total":    total,
	})
}

// UpdateTableStatus -> staff toggle between free and reserved. Occupancy is
// only ever entered through OpenTable and left through CloseTable.
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	tableID := c.Param("table_id")
	var body struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Status != models.TableFree && body.Status != models.TableReserved {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("status %q", body.Status))
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	if table.Status == models.TableOccupied {
		utils.RespondError(c, http.StatusBadRequest, invalidStatef("table %d is occupied, close it first", table.Number))
		return
	}

	table.Status = body.Status
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastTableUpdate(table)

	utils.InfoLogger.Printf("Table %d status changed to %s", table.Number, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}
