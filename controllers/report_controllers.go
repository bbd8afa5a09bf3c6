package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// dayBounds returns the half-open [start, end) range covering the local
// calendar day of t. Range predicates keep sqlite and mysql consistent where
// SQL DATE() would normalize timestamps to UTC.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

type topProduct struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

func (rc *ReportController) topProducts(start, end time.Time, limit int) ([]topProduct, error) {
	var top []topProduct
	err := rc.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status <> ?",
			start, end, models.OrderCancelled).
		Select("products.name AS product_name, products.category AS category, " +
			"SUM(order_items.quantity) AS quantity, " +
			"SUM(order_items.quantity * order_items.unit_price) AS revenue").
		Group("products.id, products.name, products.category").
		Order("quantity desc").
		Limit(limit).
		Scan(&top).Error
	return top, err
}

// GetDailySales -> today's floor summary: closed tables and collected
// revenue, currently occupied tables and their accumulated consumption, the
// order count per status, and the day's best sellers.
func (rc *ReportController) GetDailySales(c *gin.Context) {
	start, end := dayBounds(time.Now())

	var closedTables int64
	if err := rc.DB.Model(&models.Table{}).
		Where("closed_at >= ? AND closed_at < ?", start, end).
		Count(&closedTables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Revenue collected today: completed orders on tables closed today.
	var collected float64
	if err := rc.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN tables ON tables.id = orders.table_id").
		Where("tables.closed_at >= ? AND tables.closed_at < ? AND orders.status = ?",
			start, end, models.OrderCompleted).
		Select("COALESCE(SUM(order_items.quantity * order_items.unit_price), 0)").
		Scan(&collected).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var occupiedTables int64
	if err := rc.DB.Model(&models.Table{}).
		Where("status = ?", models.TableOccupied).
		Count(&occupiedTables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Accumulated consumption of occupied tables, summed without touching the
	// cached totals; reports never write.
	var inProgress float64
	if err := rc.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN tables ON tables.id = orders.table_id").
		Where("tables.status = ? AND orders.status <> ?",
			models.TableOccupied, models.OrderCancelled).
		Select("COALESCE(SUM(order_items.quantity * order_items.unit_price), 0)").
		Scan(&inProgress).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var counts []statusCount
	if err := rc.DB.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	ordersByStatus := make(map[string]int64)
	for _, status := range []string{
		models.OrderPending, models.OrderInPreparation, models.OrderReady,
		models.OrderCompleted, models.OrderCancelled,
	} {
		ordersByStatus[status] = 0
	}
	for _, sc := range counts {
		ordersByStatus[sc.Status] = sc.Count
	}

	top, err := rc.topProducts(start, end, 10)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Daily sales report", gin.H{
		"date":                start.Format("2006-01-02"),
		"tables_closed":       closedTables,
		"revenue_collected":   collected,
		"tables_occupied":     occupiedTables,
		"revenue_in_progress": inProgress,
		"orders_by_status":    ordersByStatus,
		"top_products":        top,
	})
}

// GetSalesHistory -> revenue over a date range (?start=YYYY-MM-DD&end=...,
// default last 30 days): a per-day breakdown, overall summary with averages,
// best sellers, and the itemized bill of every table closed in the range.
func (rc *ReportController) GetSalesHistory(c *gin.Context) {
	now := time.Now()
	endDay := now
	startDay := now.AddDate(0, 0, -29)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("start date %q, expected YYYY-MM-DD", raw))
			return
		}
		startDay = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("end date %q, expected YYYY-MM-DD", raw))
			return
		}
		endDay = parsed
	}

	start, _ := dayBounds(startDay)
	_, end := dayBounds(endDay)
	if !start.Before(end) {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("start date must not be after end date"))
		return
	}

	var closed []models.Table
	if err := rc.DB.Where("closed_at >= ? AND closed_at < ?", start, end).
		Order("closed_at asc").
		Find(&closed).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type billLine struct {
		Product   string  `json:"product"`
		Size      string  `json:"size"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Subtotal  float64 `json:"subtotal"`
		Notes     string  `json:"notes,omitempty"`
	}
	type tableBill struct {
		TableID     uint       `json:"table_id"`
		TableNumber int        `json:"table_number"`
		ClosedAt    time.Time  `json:"closed_at"`
		Orders      int        `json:"orders"`
		Products    []billLine `json:"products"`
		Total       float64    `json:"total"`
	}
	type dayReport struct {
		Date         string      `json:"date"`
		TablesClosed int         `json:"tables_closed"`
		Orders       int         `json:"orders"`
		Revenue      float64     `json:"revenue"`
		Tables       []tableBill `json:"tables"`
	}

	// One bucket per calendar day in the range, zero-filled so charts have a
	// continuous axis.
	days := make(map[string]*dayReport)
	order := []string{}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		days[key] = &dayReport{Date: key, Tables: []tableBill{}}
		order = append(order, key)
	}

	var totalRevenue float64
	var totalOrders int
	for _, table := range closed {
		// Orders are tied to a sitting through the table's close date, so the
		// itemized bill matches what the close collected.
		var orders []models.Order
		if err := rc.DB.Preload("Items.Product").Preload("Items.Variant").
			Where("table_id = ? AND status = ?", table.ID, models.OrderCompleted).
			Find(&orders).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}

		bill := tableBill{
			TableID:     table.ID,
			TableNumber: table.Number,
			ClosedAt:    *table.ClosedAt,
			Orders:      len(orders),
			Products:    []billLine{},
		}
		for _, o := range orders {
			for _, item := range o.Items {
				bill.Products = append(bill.Products, billLine{
					Product:   item.Product.Name,
					Size:      item.Variant.Size,
					Quantity:  item.Quantity,
					UnitPrice: item.UnitPrice,
					Subtotal:  item.Subtotal(),
					Notes:     item.Notes,
				})
			}
			bill.Total += o.Total()
		}

		key := table.ClosedAt.Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			continue
		}
		day.TablesClosed++
		day.Orders += bill.Orders
		day.Revenue += bill.Total
		day.Tables = append(day.Tables, bill)

		totalRevenue += bill.Total
		totalOrders += bill.Orders
	}

	breakdown := make([]dayReport, 0, len(order))
	for _, key := range order {
		breakdown = append(breakdown, *days[key])
	}

	avgPerOrder := 0.0
	if totalOrders > 0 {
		avgPerOrder = totalRevenue / float64(totalOrders)
	}
	avgPerTable := 0.0
	if len(closed) > 0 {
		avgPerTable = totalRevenue / float64(len(closed))
	}

	top, err := rc.topProducts(start, end, 10)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Sales history", gin.H{
		"start": start.Format("2006-01-02"),
		"end":   endDay.Format("2006-01-02"),
		"summary": gin.H{
			"total_revenue": totalRevenue,
			"total_orders":  totalOrders,
			"tables_closed": len(closed),
			"avg_per_order": avgPerOrder,
			"avg_per_table": avgPerTable,
		},
		"days":         breakdown,
		"top_products": top,
	})
}

// GetGeneralStats -> all-time counters for the dashboard header
func (rc *ReportController) GetGeneralStats(c *gin.Context) {
	stats, err := CollectStats(rc.DB)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "General stats", stats)
}

// CollectStats gathers the floor-wide counters shown on the dashboard. The
// floor monitor reuses it for periodic broadcasts.
func CollectStats(db *gorm.DB) (gin.H, error) {
	var totalTables, occupiedTables, freeTables int64
	if err := db.Model(&models.Table{}).Count(&totalTables).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Table{}).
		Where("status = ?", models.TableOccupied).
		Count(&occupiedTables).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Table{}).
		Where("status = ?", models.TableFree).
		Count(&freeTables).Error; err != nil {
		return nil, err
	}

	occupancyPct := 0.0
	if totalTables > 0 {
		occupancyPct = float64(occupiedTables) / float64(totalTables) * 100
	}

	var activeOrders int64
	if err := db.Model(&models.Order{}).
		Where("status IN ?", []string{models.OrderPending, models.OrderInPreparation, models.OrderReady}).
		Count(&activeOrders).Error; err != nil {
		return nil, err
	}

	var completedOrders int64
	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderCompleted).
		Count(&completedOrders).Error; err != nil {
		return nil, err
	}

	var availableProducts int64
	if err := db.Model(&models.Product{}).
		Where("available = ?", true).
		Count(&availableProducts).Error; err != nil {
		return nil, err
	}

	// Lifetime figures cover completed orders on tables that have been closed;
	// a table reopened since its last close drops out until it closes again.
	var served struct {
		TablesServed    int64   `json:"tables_served"`
		LifetimeRevenue float64 `json:"lifetime_revenue"`
	}
	if err := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN tables ON tables.id = orders.table_id").
		Where("tables.closed_at IS NOT NULL AND orders.status = ?", models.OrderCompleted).
		Select("COUNT(DISTINCT tables.id) AS tables_served, " +
			"COALESCE(SUM(order_items.quantity * order_items.unit_price), 0) AS lifetime_revenue").
		Scan(&served).Error; err != nil {
		return nil, err
	}

	avgPerTable := 0.0
	if served.TablesServed > 0 {
		avgPerTable = served.LifetimeRevenue / float64(served.TablesServed)
	}

	return gin.H{
		"total_tables":       totalTables,
		"occupied_tables":    occupiedTables,
		"free_tables":        freeTables,
		"occupancy_pct":      occupancyPct,
		"active_orders":      activeOrders,
		"completed_orders":   completedOrders,
		"available_products": availableProducts,
		"tables_served":      served.TablesServed,
		"lifetime_revenue":   served.LifetimeRevenue,
		"avg_per_table":      avgPerTable,
	}, nil
}

// GetInvoice -> printable bill for a table: every non-cancelled order with
// its items, a grand total, and a short reference number.
func (rc *ReportController) GetInvoice(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := rc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("table with ID %s", tableID))
		return
	}

	var orders []models.Order
	if err := rc.DB.Preload("Items.Product").Preload("Items.Variant").
		Where("table_id = ? AND status <> ?", table.ID, models.OrderCancelled).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type invoiceLine struct {
		Product   string  `json:"product"`
		Size      string  `json:"size"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Subtotal  float64 `json:"subtotal"`
	}
	type invoiceOrder struct {
		OrderID   uint          `json:"order_id"`
		Status    string        `json:"status"`
		CreatedAt time.Time     `json:"created_at"`
		Lines     []invoiceLine `json:"lines"`
		Total     float64       `json:"total"`
	}

	invoiceOrders := make([]invoiceOrder, 0, len(orders))
	var grandTotal float64
	for _, order := range orders {
		io := invoiceOrder{
			OrderID:   order.ID,
			Status:    order.Status,
			CreatedAt: order.CreatedAt,
			Lines:     make([]invoiceLine, 0, len(order.Items)),
		}
		for _, item := range order.Items {
			io.Lines = append(io.Lines, invoiceLine{
				Product:   item.Product.Name,
				Size:      item.Variant.Size,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.Subtotal(),
			})
			io.Total += item.Subtotal()
		}
		invoiceOrders = append(invoiceOrders, io)
		grandTotal += io.Total
	}

	reference := "INV-" + strings.ToUpper(uuid.NewString()[:8])

	utils.RespondJSON(c, http.StatusOK, "Invoice for table", gin.H{
		"reference":    reference,
		"generated_at": time.Now(),
		"table": gin.H{
			"id":     table.ID,
			"number": table.Number,
			"status": table.Status,
		},
		"orders":      invoiceOrders,
		"grand_total": grandTotal,
		"formatted":   utils.FormatAmount(grandTotal),
	})
}
