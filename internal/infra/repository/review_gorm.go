package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

// DI
func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) error {
	return mapGormErr(r.db.WithContext(ctx).Create(&rv).Error)
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id string) (model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		return model.Review{}, mapGormErr(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&rv).Error
	if err != nil {
		return model.Review{}, mapGormErr(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return []model.Review{}, err
	}
	return reviews, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", rv.ID).Updates(map[string]interface{}{
		"rating":     rv.Rating,
		"comment":    rv.Comment,
		"updated_at": rv.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 退会済みユーザーを除いた合計と件数
func (r *ReviewGormRepository) RatingStats(ctx context.Context, productID string) (repo.RatingStats, error) {
	var row struct {
		Sum   int64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS count").
		Where("product_id = ? AND user_deleted = ?", productID, false).
		Scan(&row).Error
	if err != nil {
		return repo.RatingStats{}, err
	}
	return repo.RatingStats{Sum: row.Sum, Count: row.Count}, nil
}

func (r *ReviewGormRepository) MarkUserDeleted(ctx context.Context, userID string) ([]string, error) {
	var productIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Review{}).
			Where("user_id = ? AND user_deleted = ?", userID, false).
			Distinct().
			Pluck("product_id", &productIDs).Error; err != nil {
			return err
		}
		return tx.Model(&model.Review{}).
			Where("user_id = ?", userID).
			Update("user_deleted", true).Error
	})
	if err != nil {
		return nil, err
	}
	return productIDs, nil
}
