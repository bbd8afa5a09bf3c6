package Controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/controllers"
	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

func setupTestDBForReports(name string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(&models.Table{}, &models.Product{}, &models.Variant{},
		&models.Order{}, &models.OrderItem{})
	if err != nil {
		panic(err)
	}
	return db
}

func setupReportRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	reportCtrl := controllers.NewReportController(db)
	router.GET("/reports/daily", reportCtrl.GetDailySales)
	router.GET("/reports/history", reportCtrl.GetSalesHistory)
	router.GET("/reports/stats", reportCtrl.GetGeneralStats)
	router.GET("/reports/invoice/:table_id", reportCtrl.GetInvoice)
	return router
}

// closeTableAt marks a table closed at the given moment, the way CloseTable
// leaves it.
func closeTableAt(db *gorm.DB, table *models.Table, at time.Time) {
	table.Status = models.TableFree
	table.ClosedAt = &at
	table.OpenedAt = nil
	table.CurrentTotal = 0
	db.Save(table)
}

func TestDailySalesPendingThenCompleted(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_daily")

	table := models.Table{Number: 1, Status: models.TableOccupied}
	db.Create(&table)
	product := models.Product{Name: "Roast Chicken", Category: models.CategoryMainCourse, Available: true}
	db.Create(&product)
	variant := models.Variant{ProductID: product.ID, Size: "Personal", Price: 20.00}
	db.Create(&variant)

	order := models.Order{TableID: table.ID, Status: models.OrderPending}
	db.Create(&order)
	db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 1, UnitPrice: 20.00})

	router := setupReportRouter(db)

	// While the order is pending nothing has been collected yet.
	req, _ := http.NewRequest("GET", "/reports/daily", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 0.0, data["revenue_collected"])
	assert.Equal(t, float64(1), data["tables_occupied"])
	assert.Equal(t, 20.00, data["revenue_in_progress"])
	byStatus := data["orders_by_status"].(map[string]interface{})
	assert.Equal(t, float64(1), byStatus["pending"])
	assert.Equal(t, float64(0), byStatus["completed"])

	// Reading the report never writes the table's cached total back.
	var untouched models.Table
	db.First(&untouched, table.ID)
	assert.Equal(t, 0.0, untouched.CurrentTotal)

	// Complete the order and close the table: the revenue lands.
	db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderCompleted)
	closeTableAt(db, &table, time.Now())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data = response["data"].(map[string]interface{})
	assert.Equal(t, 20.00, data["revenue_collected"])
	assert.Equal(t, float64(1), data["tables_closed"])
	assert.Equal(t, float64(0), data["tables_occupied"])

	top := data["top_products"].([]interface{})
	assert.Len(t, top, 1)
	best := top[0].(map[string]interface{})
	assert.Equal(t, "Roast Chicken", best["product_name"])
}

func TestSalesHistoryItemizedMatchesSummary(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_history")

	product := models.Product{Name: "Lemonade", Category: models.CategoryDrink, Available: true}
	db.Create(&product)
	variant := models.Variant{ProductID: product.ID, Size: "Glass", Price: 3.50}
	db.Create(&variant)

	now := time.Now()
	amounts := []struct {
		daysAgo  int
		quantity int
	}{
		{2, 4}, // 14.00
		{1, 2}, // 7.00
	}
	for i, entry := range amounts {
		table := models.Table{Number: i + 1, Status: models.TableOccupied}
		db.Create(&table)

		order := models.Order{TableID: table.ID, Status: models.OrderCompleted}
		db.Create(&order)
		db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, VariantID: variant.ID,
			Quantity: entry.quantity, UnitPrice: 3.50})

		// A cancelled order on the same table must not show up anywhere.
		cancelled := models.Order{TableID: table.ID, Status: models.OrderCancelled}
		db.Create(&cancelled)
		db.Create(&models.OrderItem{OrderID: cancelled.ID, ProductID: product.ID, VariantID: variant.ID,
			Quantity: 100, UnitPrice: 3.50})

		closeTableAt(db, &table, now.AddDate(0, 0, -entry.daysAgo))
	}

	start := now.AddDate(0, 0, -2).Format("2006-01-02")
	end := now.Format("2006-01-02")

	router := setupReportRouter(db)
	req, _ := http.NewRequest("GET", "/reports/history?start="+start+"&end="+end, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})

	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, 21.00, summary["total_revenue"])
	assert.Equal(t, float64(2), summary["total_orders"])
	assert.Equal(t, float64(2), summary["tables_closed"])
	assert.Equal(t, 10.50, summary["avg_per_order"])
	assert.Equal(t, 10.50, summary["avg_per_table"])

	days := data["days"].([]interface{})
	assert.Len(t, days, 3)

	var daySum float64
	var billSum float64
	var lineSum float64
	for _, raw := range days {
		day := raw.(map[string]interface{})
		daySum += day["revenue"].(float64)
		for _, rawBill := range day["tables"].([]interface{}) {
			bill := rawBill.(map[string]interface{})
			billSum += bill["total"].(float64)

			// Each closed table carries its itemized product lines; the
			// cancelled 100-glass order must not appear among them.
			lines := bill["products"].([]interface{})
			assert.Len(t, lines, 1)
			line := lines[0].(map[string]interface{})
			assert.Equal(t, "Lemonade", line["product"])
			assert.Equal(t, "Glass", line["size"])
			assert.Equal(t, 3.50, line["unit_price"])
			assert.Equal(t, line["quantity"].(float64)*3.50, line["subtotal"])
			lineSum += line["subtotal"].(float64)
		}
	}
	assert.Equal(t, summary["total_revenue"], daySum)
	assert.Equal(t, summary["total_revenue"], billSum)
	assert.Equal(t, summary["total_revenue"], lineSum)

	// Today has no closed tables, its bucket is zero-filled.
	last := days[2].(map[string]interface{})
	assert.Equal(t, 0.0, last["revenue"])
	assert.Equal(t, float64(0), last["tables_closed"])
}

func TestSalesHistoryEmptyRange(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_empty")
	router := setupReportRouter(db)

	req, _ := http.NewRequest("GET", "/reports/history?start=2024-03-01&end=2024-03-03", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, 0.0, summary["total_revenue"])
	assert.Equal(t, 0.0, summary["avg_per_order"])

	days := data["days"].([]interface{})
	assert.Len(t, days, 3)
	first := days[0].(map[string]interface{})
	assert.Equal(t, "2024-03-01", first["date"])
}

func TestSalesHistoryRejectsBadDates(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_baddates")
	router := setupReportRouter(db)

	req, _ := http.NewRequest("GET", "/reports/history?start=notadate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, _ = http.NewRequest("GET", "/reports/history?start=2024-03-05&end=2024-03-01", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceExcludesCancelled(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_invoice")

	table := models.Table{Number: 9, Status: models.TableOccupied}
	db.Create(&table)
	product := models.Product{Name: "Roast Chicken", Category: models.CategoryMainCourse, Available: true}
	db.Create(&product)
	variant := models.Variant{ProductID: product.ID, Size: "Familiar", Price: 40.00}
	db.Create(&variant)

	kept := models.Order{TableID: table.ID, Status: models.OrderPending}
	db.Create(&kept)
	db.Create(&models.OrderItem{OrderID: kept.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 1, UnitPrice: 40.00})

	cancelled := models.Order{TableID: table.ID, Status: models.OrderCancelled}
	db.Create(&cancelled)
	db.Create(&models.OrderItem{OrderID: cancelled.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 5, UnitPrice: 40.00})

	router := setupReportRouter(db)
	req, _ := http.NewRequest("GET", "/reports/invoice/"+strconv.Itoa(int(table.ID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 40.00, data["grand_total"])
	orders := data["orders"].([]interface{})
	assert.Len(t, orders, 1)

	reference := data["reference"].(string)
	assert.True(t, strings.HasPrefix(reference, "INV-"))
	assert.Len(t, reference, 12)
}

func TestGeneralStats(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_stats")

	db.Create(&models.Table{Number: 1, Status: models.TableOccupied})
	db.Create(&models.Table{Number: 2, Status: models.TableFree})

	product := models.Product{Name: "Flan", Category: models.CategoryDessert, Available: true}
	db.Create(&product)
	db.Create(&models.Variant{ProductID: product.ID, Size: "Slice", Price: 4.50})

	// Off the menu, must not count towards the available product total.
	hidden := models.Product{Name: "Winter Stew", Category: models.CategoryMainCourse, Available: false}
	db.Create(&hidden)
	db.Create(&models.Variant{ProductID: hidden.ID, Size: "Bowl", Price: 12.00})

	router := setupReportRouter(db)
	req, _ := http.NewRequest("GET", "/reports/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total_tables"])
	assert.Equal(t, float64(1), data["occupied_tables"])
	assert.Equal(t, float64(1), data["free_tables"])
	assert.Equal(t, 50.0, data["occupancy_pct"])
	assert.Equal(t, float64(1), data["available_products"])
	assert.Equal(t, float64(0), data["tables_served"])
	assert.Equal(t, 0.0, data["lifetime_revenue"])
	assert.Equal(t, 0.0, data["avg_per_table"])
}

func TestGeneralStatsLifetimeFigures(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReports("reports_stats_lifetime")

	product := models.Product{Name: "Roast Chicken", Category: models.CategoryMainCourse, Available: true}
	db.Create(&product)
	variant := models.Variant{ProductID: product.ID, Size: "Personal", Price: 20.00}
	db.Create(&variant)

	table := models.Table{Number: 3, Status: models.TableOccupied}
	db.Create(&table)
	order := models.Order{TableID: table.ID, Status: models.OrderCompleted}
	db.Create(&order)
	db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, VariantID: variant.ID, Quantity: 2, UnitPrice: 20.00})
	closeTableAt(db, &table, time.Now())

	router := setupReportRouter(db)
	req, _ := http.NewRequest("GET", "/reports/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["tables_served"])
	assert.Equal(t, 40.00, data["lifetime_revenue"])
	assert.Equal(t, 40.00, data["avg_per_table"])
}
