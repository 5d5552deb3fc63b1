package notify

import (
	"context"
	"log/slog"

	"storefront/internal/usecase"
)

// LogNotifier は通知をログに出すだけ（開発用）。
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyOrderPlaced(ctx context.Context, notice usecase.OrderNotice) error {
	n.log.InfoContext(ctx, "order placed",
		"order_id", notice.OrderID,
		"user_id", notice.UserID,
		"total_price", notice.TotalPrice,
		"items", len(notice.Items),
	)
	return nil
}
