package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

// DI
func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

const dayExpr = "to_char(date_trunc('day', o.created_at), 'YYYY-MM-DD')"

func (r *AnalyticsGormRepository) inRange(ctx context.Context, rg repo.DateRange) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Where("o.created_at >= ? AND o.created_at < ?", rg.From, rg.To)
}

func (r *AnalyticsGormRepository) SalesOverview(ctx context.Context, rg repo.DateRange) (model.SalesOverview, error) {
	var out model.SalesOverview

	var totals struct {
		Orders  int64
		Revenue int64
	}
	if err := r.inRange(ctx, rg).
		Select("COUNT(*) AS orders, COALESCE(SUM(o.total_price), 0) AS revenue").
		Where("o.order_status <> ?", model.OrderStatusCancelled).
		Scan(&totals).Error; err != nil {
		return out, err
	}
	out.TotalOrders = totals.Orders
	out.TotalRevenue = totals.Revenue
	if totals.Orders > 0 {
		out.AverageOrderValue = totals.Revenue / totals.Orders
	}

	out.OrdersByStatus = []model.StatusCount{}
	if err := r.inRange(ctx, rg).
		Select("o.order_status AS status, COUNT(*) AS count").
		Group("o.order_status").
		Order("count desc").
		Scan(&out.OrdersByStatus).Error; err != nil {
		return out, err
	}

	out.Daily = []model.DailySales{}
	if err := r.inRange(ctx, rg).
		Select(dayExpr+" AS day, COUNT(*) AS orders, COALESCE(SUM(o.total_price), 0) AS revenue").
		Where("o.order_status <> ?", model.OrderStatusCancelled).
		Group("day").
		Order("day asc").
		Scan(&out.Daily).Error; err != nil {
		return out, err
	}
	return out, nil
}

func (r *AnalyticsGormRepository) lines(ctx context.Context, rg repo.DateRange) *gorm.DB {
	return r.inRange(ctx, rg).
		Joins("JOIN order_items AS oi ON oi.order_id = o.id").
		Where("o.order_status <> ?", model.OrderStatusCancelled)
}

func (r *AnalyticsGormRepository) ProductSales(ctx context.Context, productID string, rg repo.DateRange) (model.ProductSales, error) {
	out := model.ProductSales{ProductID: productID, Daily: []model.DailySales{}}

	var totals struct {
		UnitsSold int64
		Revenue   int64
		Orders    int64
	}
	if err := r.lines(ctx, rg).
		Select("COALESCE(SUM(oi.quantity), 0) AS units_sold, " +
			"COALESCE(SUM(oi.quantity * oi.unit_price_snapshot), 0) AS revenue, " +
			"COUNT(DISTINCT o.id) AS orders").
		Where("oi.product_id = ?", productID).
		Scan(&totals).Error; err != nil {
		return out, err
	}
	out.UnitsSold = totals.UnitsSold
	out.Revenue = totals.Revenue
	out.Orders = totals.Orders

	if err := r.lines(ctx, rg).
		Select(dayExpr+" AS day, COUNT(DISTINCT o.id) AS orders, "+
			"COALESCE(SUM(oi.quantity * oi.unit_price_snapshot), 0) AS revenue").
		Where("oi.product_id = ?", productID).
		Group("day").
		Order("day asc").
		Scan(&out.Daily).Error; err != nil {
		return out, err
	}
	return out, nil
}

// 販売数の多い順
func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, rg repo.DateRange, limit int) ([]model.TopProduct, error) {
	out := []model.TopProduct{}
	err := r.lines(ctx, rg).
		Select("oi.product_id AS product_id, " +
			"MAX(oi.product_name_snapshot) AS name, " +
			"MAX(oi.sku_snapshot) AS sku, " +
			"SUM(oi.quantity) AS units_sold, " +
			"SUM(oi.quantity * oi.unit_price_snapshot) AS revenue").
		Group("oi.product_id").
		Order("units_sold desc").
		Order("revenue desc").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
