package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 集計期間 [From, To)
type DateRange struct {
	From time.Time
	To   time.Time
}

// 売上集計（読み取り専用）。キャンセル済みの注文は売上に含めない。
type AnalyticsRepository interface {
	SalesOverview(ctx context.Context, r DateRange) (model.SalesOverview, error)
	ProductSales(ctx context.Context, productID string, r DateRange) (model.ProductSales, error)
	TopProducts(ctx context.Context, r DateRange, limit int) ([]model.TopProduct, error)
}
