package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

// 競合時の再試行回数
const cartMaxAttempts = 5

// CartUsecase は /cart の業務ロジックです。
// 書き込みはすべて version 付きの読み取り→変更→条件付き保存。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	idGen       IDGenerator
	clock       Clock
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository, idGen IDGenerator, clock Clock) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		idGen:       idGen,
		clock:       clock,
	}
}

// price は追加時点の価格、sellingPrice は現在の販売価格。
type CartItemResponse struct {
	ProductID    string     `json:"productId"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Size         model.Size `json:"size"`
	Quantity     int64      `json:"quantity"`
	Price        int64      `json:"price"`
	SellingPrice int64      `json:"sellingPrice"`
	LineTotal    int64      `json:"lineTotal"`
	Available    bool       `json:"available"`
}

type CartResponse struct {
	ID         string             `json:"id,omitempty"`
	UserID     string             `json:"userId"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice int64              `json:"totalPrice"`
	UpdatedAt  *time.Time         `json:"updatedAt,omitempty"`
}

type AddCartItemInput struct {
	ProductID string
	Quantity  int64
	Size      string
}

type UpdateCartItemInput struct {
	ProductID string
	Quantity  int64
	Size      string
}

type RemoveCartItemInput struct {
	ProductID string
	Size      string
}

func parseSize(raw string) (model.Size, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewValidationError("size is required")
	}
	s, err := model.NormalizeSize(raw)
	if err != nil {
		return "", NewValidationError("invalid size")
	}
	return s, nil
}

// GetCart はカートがなければ空の形で返す。
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{UserID: userID, Items: []CartItemResponse{}}, nil
	}
	if err != nil {
		return CartResponse{}, NewInternalError(err)
	}
	return u.buildCartResponse(ctx, cart)
}

// AddItem は同じ(商品,サイズ)なら数量を加算する。
func (u *CartUsecase) AddItem(ctx context.Context, userID string, in AddCartItemInput) (CartResponse, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return CartResponse{}, NewValidationError("productId is required")
	}
	size, err := parseSize(in.Size)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewValidationError("quantity must be at least 1")
	}
	if in.Quantity > model.MaxCartLineQuantity {
		return CartResponse{}, NewValidationError(model.ErrQuantityTooLarge.Error())
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return CartResponse{}, NewInternalError(err)
	}
	if !p.IsAvailable() {
		return CartResponse{}, NewNotFoundError("product not found")
	}
	if !p.HasSize(size) {
		return CartResponse{}, NewValidationError("size is not available for this product")
	}

	cart, err := u.mutate(ctx, userID, true, func(c *model.Cart) error {
		if err := c.AddItem(p.ID, size, in.Quantity, p.SellingPrice()); err != nil {
			return NewValidationError(err.Error())
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart)
}

// UpdateItem は数量を指定値にする。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID string, in UpdateCartItemInput) (CartResponse, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return CartResponse{}, NewValidationError("productId is required")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewValidationError("quantity must be at least 1")
	}
	if in.Quantity > model.MaxCartLineQuantity {
		return CartResponse{}, NewValidationError(model.ErrQuantityTooLarge.Error())
	}
	size, err := parseSize(in.Size)
	if err != nil {
		return CartResponse{}, err
	}

	cart, err := u.mutate(ctx, userID, false, func(c *model.Cart) error {
		if err := c.SetQuantity(productID, size, in.Quantity); err != nil {
			if errors.Is(err, model.ErrLineNotFound) {
				return NewNotFoundError("item not found in cart")
			}
			return NewValidationError(err.Error())
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart)
}

// RemoveItem は数量を1つ減らす。1なら明細を消す。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID string, in RemoveCartItemInput) (CartResponse, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return CartResponse{}, NewValidationError("productId is required")
	}
	size, err := parseSize(in.Size)
	if err != nil {
		return CartResponse{}, err
	}

	cart, err := u.mutate(ctx, userID, false, func(c *model.Cart) error {
		if err := c.RemoveOne(productID, size); err != nil {
			return NewNotFoundError("item not found in cart")
		}
		return nil
	})
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart)
}

// mutate は読み取り→fn→条件付き保存。versionが合わなければ読み直してやり直す。
func (u *CartUsecase) mutate(ctx context.Context, userID string, createIfMissing bool, fn func(*model.Cart) error) (model.Cart, error) {
	for attempt := 1; attempt <= cartMaxAttempts; attempt++ {
		created := false
		cart, err := u.cartRepo.FindByUserID(ctx, userID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			if !createIfMissing {
				return model.Cart{}, NewNotFoundError("cart not found")
			}
			cart = model.NewCart(u.idGen.NewID(), userID, u.clock.Now())
			created = true
		case err != nil:
			return model.Cart{}, NewInternalError(err)
		}

		if err := fn(&cart); err != nil {
			return model.Cart{}, err
		}
		cart.UpdatedAt = u.clock.Now()

		if created {
			err = u.cartRepo.Create(ctx, cart)
			if err == nil {
				return cart, nil
			}
			if !errors.Is(err, repo.ErrDuplicate) {
				return model.Cart{}, NewInternalError(err)
			}
		} else {
			saved, err := u.cartRepo.Save(ctx, cart)
			if err == nil {
				return saved, nil
			}
			if !errors.Is(err, repo.ErrVersionConflict) {
				return model.Cart{}, NewInternalError(err)
			}
		}

		metrics.CartVersionConflicts.Inc()
		logger.FromContext(ctx).Debug("cart write conflict, retrying", "user_id", userID, "attempt", attempt)
	}
	return model.Cart{}, NewConflictError("cart was modified concurrently, please retry")
}

// 商品情報を付けて返す
func (u *CartUsecase) buildCartResponse(ctx context.Context, cart model.Cart) (CartResponse, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := u.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewInternalError(err)
	}

	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		row := CartItemResponse{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
			LineTotal: it.LineTotal(),
		}
		if p, ok := products[it.ProductID]; ok {
			row.SKU = p.SKU
			row.Name = p.Name
			row.SellingPrice = p.SellingPrice()
			row.Available = p.IsAvailable()
		}
		items = append(items, row)
	}

	updated := cart.UpdatedAt
	return CartResponse{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      items,
		TotalPrice: cart.TotalPrice,
		UpdatedAt:  &updated,
	}, nil
}
