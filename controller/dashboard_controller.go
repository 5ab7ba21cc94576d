package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pos-service/model"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// Summary aggregates the read-only numbers the dashboard page shows:
// catalog counts, today's sales and the products running low.
func (dc *DashboardController) Summary(c *fiber.Ctx) error {
	ctx := c.Context()
	db := dc.DB.WithContext(ctx)

	var productCount, categoryCount, transactionCount int64
	db.Model(&model.Product{}).Count(&productCount)
	db.Model(&model.Category{}).Count(&categoryCount)
	db.Model(&model.Transaction{}).Count(&transactionCount)

	startOfDay := time.Now().Truncate(24 * time.Hour)

	var todayCount int64
	var todayRevenue int64
	db.Model(&model.Transaction{}).
		Where("created_at >= ?", startOfDay).
		Count(&todayCount)
	db.Model(&model.Transaction{}).
		Where("created_at >= ?", startOfDay).
		Select("COALESCE(SUM(total), 0)").
		Scan(&todayRevenue)

	var lowStock []model.Product
	db.Where("stock IS NOT NULL AND stock <= ?", 5).
		Order("stock").
		Limit(10).
		Find(&lowStock)

	return c.JSON(fiber.Map{
		"products":           productCount,
		"categories":         categoryCount,
		"transactions":       transactionCount,
		"today_transactions": todayCount,
		"today_revenue":      todayRevenue,
		"low_stock":          lowStock,
	})
}
