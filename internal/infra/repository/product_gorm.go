package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("deleted_at IS NULL")
}

// 公開商品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.live(ctx).Where("is_active = ?", true)

	// q はname/skuを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	//価格帯（販売価格で判定）
	if q.MinPrice != nil {
		tx = tx.Where("GREATEST(price - discount, 0) >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("GREATEST(price - discount, 0) <= ?", *q.MaxPrice)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		tx = tx.Order("GREATEST(price - discount, 0) asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("GREATEST(price - discount, 0) desc").Order("id desc")
	case "rating":
		tx = tx.Order("average_rating desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

// IDで商品を取得（削除済みは含めない）
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := r.live(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return model.Product{}, mapGormErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySKU(ctx context.Context, sku string) (model.Product, error) {
	var p model.Product
	if err := r.live(ctx).Where("sku = ?", sku).First(&p).Error; err != nil {
		return model.Product{}, mapGormErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []model.Product
	if err := r.live(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) error {
	return mapGormErr(r.db.WithContext(ctx).Create(&p).Error)
}

// 商品の更新（評価は対象外）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.live(ctx).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"discount":    p.Discount,
		"category":    p.Category,
		"type":        p.Type,
		"sizes":       sizesJSON(p.Sizes),
		"stock":       p.Stock,
		"is_active":   p.IsActive,
		"updated_at":  p.UpdatedAt,
	})
	if res.Error != nil {
		return mapGormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	res := r.live(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": now,
		"is_active":  false,
		"updated_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) UpdateRating(ctx context.Context, id string, average float64, count int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"average_rating": average,
		"review_count":   count,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// map指定のUpdatesではserializerが効かないので自前でJSONにする
func sizesJSON(sizes []model.Size) string {
	if sizes == nil {
		sizes = []model.Size{}
	}
	b, _ := json.Marshal(sizes)
	return string(b)
}
