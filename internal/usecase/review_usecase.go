package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
	idGen    IDGenerator
	clock    Clock
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository, idGen IDGenerator, clock Clock) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, products: products, idGen: idGen, clock: clock}
}

type AddReviewInput struct {
	ProductID string
	Rating    int
	Comment   string
}

type UpdateReviewInput struct {
	ReviewID string
	Rating   *int
	Comment  *string
}

type ReviewOutput struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	UserID      string    `json:"userId,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	UserDeleted bool      `json:"userDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductReviewsOutput struct {
	ProductID     string         `json:"productId"`
	AverageRating float64        `json:"averageRating"`
	ReviewCount   int64          `json:"reviewCount"`
	Reviews       []ReviewOutput `json:"reviews"`
}

// 退会済みユーザーのIDは出さない
func toReviewOutput(r model.Review) ReviewOutput {
	out := ReviewOutput{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		UserDeleted: r.UserDeleted,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if !r.UserDeleted {
		out.UserID = r.UserID
	}
	return out
}

func checkRating(rating int) error {
	if !model.ValidRating(rating) {
		return NewRangeError("rating must be between 1 and 5")
	}
	return nil
}

func (u *ReviewUsecase) AddReview(ctx context.Context, userID string, in AddReviewInput) (ReviewOutput, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return ReviewOutput{}, NewValidationError("productId is required")
	}
	if err := checkRating(in.Rating); err != nil {
		return ReviewOutput{}, err
	}

	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewOutput{}, NewNotFoundError("product not found")
		}
		return ReviewOutput{}, NewInternalError(err)
	}

	_, err := u.reviews.FindByUserAndProduct(ctx, userID, productID)
	if err == nil {
		return ReviewOutput{}, NewConflictError("you have already reviewed this product")
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return ReviewOutput{}, NewInternalError(err)
	}

	now := u.clock.Now()
	rv := model.Review{
		ID:        u.idGen.NewID(),
		UserID:    userID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.reviews.Create(ctx, rv); err != nil {
		//同時に投稿された場合はユニーク制約で弾かれる
		if errors.Is(err, repo.ErrDuplicate) {
			return ReviewOutput{}, NewConflictError("you have already reviewed this product")
		}
		return ReviewOutput{}, NewInternalError(err)
	}

	if err := u.recompute(ctx, productID); err != nil {
		return ReviewOutput{}, err
	}
	return toReviewOutput(rv), nil
}

// 投稿者本人のみ
func (u *ReviewUsecase) UpdateReview(ctx context.Context, userID string, in UpdateReviewInput) (ReviewOutput, error) {
	rv, err := u.find(ctx, in.ReviewID)
	if err != nil {
		return ReviewOutput{}, err
	}
	if rv.UserID != userID {
		return ReviewOutput{}, NewForbiddenError("you can only edit your own review")
	}

	if in.Rating != nil {
		if err := checkRating(*in.Rating); err != nil {
			return ReviewOutput{}, err
		}
		rv.Rating = *in.Rating
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}
	rv.UpdatedAt = u.clock.Now()

	if err := u.reviews.Update(ctx, rv); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewOutput{}, NewNotFoundError("review not found")
		}
		return ReviewOutput{}, NewInternalError(err)
	}
	if err := u.recompute(ctx, rv.ProductID); err != nil {
		return ReviewOutput{}, err
	}
	return toReviewOutput(rv), nil
}

// 投稿者本人か管理者
func (u *ReviewUsecase) DeleteReview(ctx context.Context, userID string, isAdmin bool, reviewID string) error {
	rv, err := u.find(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.UserID != userID && !isAdmin {
		return NewForbiddenError("you can only delete your own review")
	}

	if err := u.reviews.Delete(ctx, rv.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("review not found")
		}
		return NewInternalError(err)
	}
	return u.recompute(ctx, rv.ProductID)
}

func (u *ReviewUsecase) ListProductReviews(ctx context.Context, productID string) (ProductReviewsOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductReviewsOutput{}, NewValidationError("productId is required")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductReviewsOutput{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return ProductReviewsOutput{}, NewInternalError(err)
	}

	reviews, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return ProductReviewsOutput{}, NewInternalError(err)
	}
	outs := make([]ReviewOutput, 0, len(reviews))
	for _, rv := range reviews {
		outs = append(outs, toReviewOutput(rv))
	}
	return ProductReviewsOutput{
		ProductID:     p.ID,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
		Reviews:       outs,
	}, nil
}

// DetachUser は退会ユーザーのレビューを集計から外す。
func (u *ReviewUsecase) DetachUser(ctx context.Context, userID string) error {
	productIDs, err := u.reviews.MarkUserDeleted(ctx, userID)
	if err != nil {
		return NewInternalError(err)
	}
	for _, id := range productIDs {
		if err := u.recompute(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (u *ReviewUsecase) find(ctx context.Context, reviewID string) (model.Review, error) {
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return model.Review{}, NewValidationError("reviewId is required")
	}
	rv, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewNotFoundError("review not found")
	}
	if err != nil {
		return model.Review{}, NewInternalError(err)
	}
	return rv, nil
}

// recompute は平均（小数1桁）と件数を商品に書き戻す。
func (u *ReviewUsecase) recompute(ctx context.Context, productID string) error {
	stats, err := u.reviews.RatingStats(ctx, productID)
	if err != nil {
		return NewInternalError(err)
	}
	avg := AverageRating(stats.Sum, stats.Count)

	err = u.products.UpdateRating(ctx, productID, avg, stats.Count)
	//商品が削除済みなら書き戻し先がないだけ
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return NewInternalError(err)
	}
	return nil
}

// AverageRating は sum/count を小数1桁に丸める（0件は0）。
func AverageRating(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(count)).
		Round(1).
		InexactFloat64()
}
