package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 退会済みでないレビューの合計と件数
type RatingStats struct {
	Sum   int64
	Count int64
}

type ReviewRepository interface {
	//同じユーザー・商品の組が既にあればErrDuplicate
	Create(ctx context.Context, r model.Review) error
	FindByID(ctx context.Context, id string) (model.Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (model.Review, error)
	//新しい順
	ListByProductID(ctx context.Context, productID string) ([]model.Review, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, id string) error

	RatingStats(ctx context.Context, productID string) (RatingStats, error)

	//ユーザーのレビューをすべてuserDeleted=trueにし、対象の商品IDを返す
	MarkUserDeleted(ctx context.Context, userID string) ([]string, error)
}
