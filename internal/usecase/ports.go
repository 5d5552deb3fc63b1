package usecase

import (
	"context"
	"time"
)

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// 注文通知の内容
type OrderNotice struct {
	OrderID       string            `json:"orderId"`
	UserID        string            `json:"userId"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	TotalPrice    int64             `json:"totalPrice"`
	Items         []OrderNoticeItem `json:"items"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type OrderNoticeItem struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

// 注文確定後の通知（メール・イベントなど）。失敗しても注文は成功のまま。
type OrderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, n OrderNotice) error
}

// 集計結果のキャッシュ。見つからなければ (false, nil)。
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (noopCache) Set(context.Context, string, any, time.Duration) error { return nil }
