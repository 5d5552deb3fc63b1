package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	FindBySKU(ctx context.Context, sku string) (model.Product, error)
	//見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)

	//SKUが重複していればErrDuplicate
	Create(ctx context.Context, p model.Product) error
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error

	//レビュー集計の反映
	UpdateRating(ctx context.Context, id string, average float64, count int64) error
}
