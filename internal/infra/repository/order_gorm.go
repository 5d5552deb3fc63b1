package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

// DI
func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

// 注文IDで注文を1件取得
func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadOrderItems).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, mapGormErr(err)
	}
	return o, nil
}

// ユーザーの注文一覧（新しい順）
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadOrderItems).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

// 注文を明細ごと作成
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	return mapGormErr(r.db.WithContext(ctx).Create(&order).Error)
}

// ステータス関連の列だけ更新。読んだ時点のステータスを条件にする
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, order model.Order, prev model.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND order_status = ?", order.ID, prev).
		Updates(map[string]interface{}{
			"order_status":   order.OrderStatus,
			"payment_status": order.PaymentStatus,
			"is_paid":        order.IsPaid,
			"admin_notes":    order.AdminNotes,
			"updated_at":     order.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", order.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repo.ErrNotFound
		}
		return repo.ErrVersionConflict
	}
	return nil
}

// 管理者用の注文一覧
func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("order_status = ?", f.Status)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := q.Preload("Items", preloadOrderItems).
		Order("created_at desc").
		Offset(offset).
		Limit(f.Limit).
		Find(&orders).Error; err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}
