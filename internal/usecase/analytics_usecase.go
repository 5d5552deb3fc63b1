package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
	defaultTopLimit      = 10
	maxTopLimit          = 50
)

type AnalyticsUsecase struct {
	analytics repo.AnalyticsRepository
	products  repo.ProductRepository
	cache     ReportCache
	cacheTTL  time.Duration
	clock     Clock
}

// cacheがnilならキャッシュしない
func NewAnalyticsUsecase(analytics repo.AnalyticsRepository, products repo.ProductRepository, cache ReportCache, cacheTTL time.Duration, clock Clock) *AnalyticsUsecase {
	if cache == nil {
		cache = noopCache{}
	}
	return &AnalyticsUsecase{
		analytics: analytics,
		products:  products,
		cache:     cache,
		cacheTTL:  cacheTTL,
		clock:     clock,
	}
}

// 期間指定。Daysは直近N日（0なら30日）。
// From/To を指定した場合はそちらを使う（Daysとは併用不可）。
type AnalyticsRangeInput struct {
	Days int
	From *time.Time
	To   *time.Time
}

type TopProductsInput struct {
	Days  int
	Limit int
}

type OverviewOutput struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	model.SalesOverview
}

type ProductSalesOutput struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	model.ProductSales
}

type TopProductsOutput struct {
	From     time.Time          `json:"from"`
	To       time.Time          `json:"to"`
	Products []model.TopProduct `json:"products"`
}

func (u *AnalyticsUsecase) dateRange(in AnalyticsRangeInput) (repo.DateRange, error) {
	if in.From == nil && in.To == nil {
		return u.lastDays(in.Days)
	}
	if in.Days != 0 {
		return repo.DateRange{}, NewValidationError("specify either days or from/to")
	}

	to := u.clock.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	if in.To != nil {
		to = in.To.UTC()
	}
	from := to.AddDate(0, 0, -defaultAnalyticsDays)
	if in.From != nil {
		from = in.From.UTC()
	}
	if !from.Before(to) {
		return repo.DateRange{}, NewValidationError("from must be before to")
	}
	if to.Sub(from) > maxAnalyticsDays*24*time.Hour {
		return repo.DateRange{}, NewValidationError(fmt.Sprintf("range must be at most %d days", maxAnalyticsDays))
	}
	return repo.DateRange{From: from, To: to}, nil
}

// 直近N日。終端は次の正時に揃えてキャッシュキーを安定させる
func (u *AnalyticsUsecase) lastDays(days int) (repo.DateRange, error) {
	if days == 0 {
		days = defaultAnalyticsDays
	}
	if days < 1 || days > maxAnalyticsDays {
		return repo.DateRange{}, NewValidationError(fmt.Sprintf("days must be between 1 and %d", maxAnalyticsDays))
	}
	to := u.clock.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	return repo.DateRange{From: to.AddDate(0, 0, -days), To: to}, nil
}

// cached はキャッシュにあればそれを、なければloadの結果を保存して返す。
func cached[T any](ctx context.Context, u *AnalyticsUsecase, key string, load func() (T, error)) (T, error) {
	var v T
	hit, err := u.cache.Get(ctx, key, &v)
	if err != nil {
		logger.FromContext(ctx).Warn("analytics cache get failed", "key", key, "err", err)
	}
	if hit {
		metrics.AnalyticsCache.WithLabelValues("hit").Inc()
		return v, nil
	}
	metrics.AnalyticsCache.WithLabelValues("miss").Inc()

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := u.cache.Set(ctx, key, v, u.cacheTTL); err != nil {
		logger.FromContext(ctx).Warn("analytics cache set failed", "key", key, "err", err)
	}
	return v, nil
}

// Overview は売上合計・件数・平均単価・ステータス別件数・日別推移。
func (u *AnalyticsUsecase) Overview(ctx context.Context, in AnalyticsRangeInput) (OverviewOutput, error) {
	rg, err := u.dateRange(in)
	if err != nil {
		return OverviewOutput{}, err
	}
	key := fmt.Sprintf("analytics:overview:%d:%d", rg.From.Unix(), rg.To.Unix())
	return cached(ctx, u, key, func() (OverviewOutput, error) {
		ov, err := u.analytics.SalesOverview(ctx, rg)
		if err != nil {
			return OverviewOutput{}, NewInternalError(err)
		}
		return OverviewOutput{From: rg.From, To: rg.To, SalesOverview: ov}, nil
	})
}

func (u *AnalyticsUsecase) ProductSales(ctx context.Context, productID string, in AnalyticsRangeInput) (ProductSalesOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductSalesOutput{}, NewValidationError("productId is required")
	}
	rg, err := u.dateRange(in)
	if err != nil {
		return ProductSalesOutput{}, err
	}
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductSalesOutput{}, NewNotFoundError("product not found")
		}
		return ProductSalesOutput{}, NewInternalError(err)
	}

	key := fmt.Sprintf("analytics:product:%s:%d:%d", productID, rg.From.Unix(), rg.To.Unix())
	return cached(ctx, u, key, func() (ProductSalesOutput, error) {
		ps, err := u.analytics.ProductSales(ctx, productID, rg)
		if err != nil {
			return ProductSalesOutput{}, NewInternalError(err)
		}
		return ProductSalesOutput{From: rg.From, To: rg.To, ProductSales: ps}, nil
	})
}

// TopProducts は販売数順。limitは最大50。
func (u *AnalyticsUsecase) TopProducts(ctx context.Context, in TopProductsInput) (TopProductsOutput, error) {
	limit := in.Limit
	if limit == 0 {
		limit = defaultTopLimit
	}
	if limit < 1 || limit > maxTopLimit {
		return TopProductsOutput{}, NewValidationError(fmt.Sprintf("limit must be between 1 and %d", maxTopLimit))
	}
	rg, err := u.lastDays(in.Days)
	if err != nil {
		return TopProductsOutput{}, err
	}

	key := fmt.Sprintf("analytics:top:%d:%d:%d", limit, rg.From.Unix(), rg.To.Unix())
	return cached(ctx, u, key, func() (TopProductsOutput, error) {
		top, err := u.analytics.TopProducts(ctx, rg, limit)
		if err != nil {
			return TopProductsOutput{}, NewInternalError(err)
		}
		if top == nil {
			top = []model.TopProduct{}
		}
		return TopProductsOutput{From: rg.From, To: rg.To, Products: top}, nil
	})
}
