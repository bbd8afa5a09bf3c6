package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/controllers"
	"github.com/rmaldonado/comanda/events"
	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

// FloorMonitor periodically re-syncs the cached totals of occupied tables and
// pushes dashboard stats to connected clients. It catches drift from writes
// that bypass the controllers, such as manual database fixes.
type FloorMonitor struct {
	DB       *gorm.DB
	Interval time.Duration
	StopChan chan struct{}
}

func NewFloorMonitor(db *gorm.DB, interval time.Duration) *FloorMonitor {
	return &FloorMonitor{
		DB:       db,
		Interval: interval,
		StopChan: make(chan struct{}),
	}
}

func (fm *FloorMonitor) Start() {
	go func() {
		ticker := time.NewTicker(fm.Interval)
		defer ticker.Stop()

		utils.InfoLogger.Printf("Floor monitor started (interval %s)", fm.Interval)
		for {
			select {
			case <-ticker.C:
				fm.tick()
			case <-fm.StopChan:
				utils.InfoLogger.Println("Floor monitor stopped")
				return
			}
		}
	}()
}

func (fm *FloorMonitor) Stop() {
	close(fm.StopChan)
}

func (fm *FloorMonitor) tick() {
	var occupied []models.Table
	if err := fm.DB.Where("status = ?", models.TableOccupied).Find(&occupied).Error; err != nil {
		utils.ErrorLogger.Printf("Floor monitor: listing occupied tables: %v", err)
		return
	}

	for _, table := range occupied {
		before := table.CurrentTotal
		total, err := models.RecomputeTableTotal(fm.DB, table.ID)
		if err != nil {
			utils.ErrorLogger.Printf("Floor monitor: refreshing table %d: %v", table.Number, err)
			continue
		}
		if total != before {
			table.CurrentTotal = total
			events.BroadcastTableUpdate(table)
			utils.InfoLogger.Printf("Floor monitor: table %d total re-synced to %s",
				table.Number, utils.FormatAmount(total))
		}
	}

	stats, err := controllers.CollectStats(fm.DB)
	if err != nil {
		utils.ErrorLogger.Printf("Floor monitor: collecting stats: %v", err)
		return
	}
	events.BroadcastDashboardUpdate(stats)
}
