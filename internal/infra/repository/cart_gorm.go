package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 明細は追加順
func preloadCartItems(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// ユーザーのカートを明細ごと取得
func (r *CartGormRepository) FindByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", preloadCartItems).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, mapGormErr(err)
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart, nil
}

// 新規作成。user_idのユニーク制約に当たればErrDuplicate
func (r *CartGormRepository) Create(ctx context.Context, cart model.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&cart).Error; err != nil {
			return mapGormErr(err)
		}
		return insertCartItems(tx, cart)
	})
}

// versionが一致するときだけ上書きする。明細は入れ替え。
func (r *CartGormRepository) Save(ctx context.Context, cart model.Cart) (model.Cart, error) {
	next := cart
	next.Version = cart.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]interface{}{
				"total_price": next.TotalPrice,
				"version":     next.Version,
				"updated_at":  next.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrVersionConflict
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return insertCartItems(tx, next)
	})
	if err != nil {
		return model.Cart{}, err
	}
	return next, nil
}

func insertCartItems(tx *gorm.DB, cart model.Cart) error {
	if len(cart.Items) == 0 {
		return nil
	}
	rows := make([]model.CartItem, len(cart.Items))
	for i, it := range cart.Items {
		it.ID = 0
		it.CartID = cart.ID
		it.Position = i
		rows[i] = it
	}
	return tx.Create(&rows).Error
}
