package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	//新しい順
	ListByUserID(ctx context.Context, userID string) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) error
	//ステータス・支払い状態・備考だけ更新する。
	//現在のステータスが prev でなければ ErrVersionConflict
	UpdateStatus(ctx context.Context, order model.Order, prev model.OrderStatus) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
