package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	idGen       IDGenerator
	clock       Clock
}

// DI
func NewProductUsecase(tx repo.TransactionManager, productRepo repo.ProductRepository, idGen IDGenerator, clock Clock) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		idGen:       idGen,
		clock:       clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductOutput struct {
	model.Product
	SellingPrice int64 `json:"sellingPrice"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{Product: p, SellingPrice: p.SellingPrice()}
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewValidationError("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewValidationError("q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewValidationError("min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewValidationError("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewValidationError("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "rating":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}
	category := ""
	if strings.TrimSpace(in.Category) != "" {
		c, err := model.ParseCategory(in.Category)
		if err != nil {
			return ProductListOutput{}, NewValidationError("invalid category")
		}
		category = string(c)
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: category,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewInternalError(err)
	}

	outs := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		outs = append(outs, toProductOutput(p))
	}
	return ProductListOutput{
		Items: outs,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 非公開の商品は存在しない扱い
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (ProductOutput, error) {
	if strings.TrimSpace(productID) == "" {
		return ProductOutput{}, NewValidationError("invalid product id")
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	return publicProduct(p, err)
}

func (u *ProductUsecase) GetBySKU(ctx context.Context, sku string) (ProductOutput, error) {
	sku = normalizeSKU(sku)
	if sku == "" {
		return ProductOutput{}, NewValidationError("sku is required")
	}
	p, err := u.productRepo.FindBySKU(ctx, sku)
	return publicProduct(p, err)
}

func publicProduct(p model.Product, err error) (ProductOutput, error) {
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return ProductOutput{}, NewInternalError(err)
	}
	if !p.IsAvailable() {
		return ProductOutput{}, NewNotFoundError("product not found")
	}
	return toProductOutput(p), nil
}

type AdminProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       int64
	Discount    int64
	Category    string
	Type        string
	Sizes       []string
	Stock       int64
	IsActive    bool
}

func normalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// 入力チェックして商品の形にする（ID・日時・評価は呼び出し側）
func (in AdminProductInput) toProduct() (model.Product, error) {
	p := model.Product{
		SKU:         normalizeSKU(in.SKU),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		Type:        strings.TrimSpace(in.Type),
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	}
	if p.SKU == "" {
		return model.Product{}, NewValidationError("sku is required")
	}
	if p.Name == "" {
		return model.Product{}, NewValidationError("name is required")
	}
	if p.Type == "" {
		return model.Product{}, NewValidationError("type is required")
	}
	c, err := model.ParseCategory(in.Category)
	if err != nil {
		return model.Product{}, NewValidationError("invalid category")
	}
	p.Category = c

	//重複は1つにまとめる
	p.Sizes = make([]model.Size, 0, len(in.Sizes))
	seen := make(map[model.Size]struct{}, len(in.Sizes))
	for _, raw := range in.Sizes {
		s, err := model.NormalizeSize(raw)
		if err != nil {
			return model.Product{}, NewValidationError("invalid size: " + raw)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		p.Sizes = append(p.Sizes, s)
	}

	if err := p.ValidatePricing(); err != nil {
		return model.Product{}, NewValidationError(err.Error())
	}
	return p, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID string, in AdminProductInput) (ProductOutput, error) {
	if adminUserID == "" {
		return ProductOutput{}, NewUnauthorizedError("unauthorized")
	}
	p, err := in.toProduct()
	if err != nil {
		return ProductOutput{}, err
	}

	now := u.clock.Now()
	p.ID = u.idGen.NewID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := u.productRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ProductOutput{}, NewConflictError("sku already exists")
		}
		return ProductOutput{}, NewInternalError(err)
	}
	return toProductOutput(p), nil
}

func productJSON(p model.Product) string {
	b, _ := json.Marshal(p)
	return string(b)
}

// 更新と監査ログは同じTx
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID, productID string, in AdminProductInput) (ProductOutput, error) {
	if adminUserID == "" {
		return ProductOutput{}, NewUnauthorizedError("unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return ProductOutput{}, NewValidationError("invalid product id")
	}
	next, err := in.toProduct()
	if err != nil {
		return ProductOutput{}, err
	}

	var updated model.Product
	err = u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return NewInternalError(err)
		}

		next.ID = before.ID
		next.AverageRating = before.AverageRating
		next.ReviewCount = before.ReviewCount
		next.CreatedAt = before.CreatedAt
		next.UpdatedAt = u.clock.Now()

		if err := r.Products().Update(ctx, next); err != nil {
			switch {
			case errors.Is(err, repo.ErrNotFound):
				return NewNotFoundError("product not found")
			case errors.Is(err, repo.ErrDuplicate):
				return NewConflictError("sku already exists")
			}
			return NewInternalError(err)
		}

		// ★監査ログ（UPDATE_PRODUCT）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ID:           u.idGen.NewID(),
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   before.ID,
			BeforeJSON:   productJSON(before),
			AfterJSON:    productJSON(next),
			CreatedAt:    next.UpdatedAt,
		}); err != nil {
			return NewInternalError(err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return ProductOutput{}, asAppErrorOrInternal(err)
	}
	return toProductOutput(updated), nil
}

// 論理削除。注文履歴のスナップショットはそのまま残る
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID, productID string) error {
	if adminUserID == "" {
		return NewUnauthorizedError("unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return NewValidationError("invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return NewInternalError(err)
		}
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return NewInternalError(err)
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ID:           u.idGen.NewID(),
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   productJSON(before),
			AfterJSON:    "{}",
			CreatedAt:    u.clock.Now(),
		})
	})
	return asAppErrorOrInternal(err)
}
