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

type OrderUsecase struct {
	tx            repo.TransactionManager
	orders        repo.OrderRepository
	users         repo.UserRepository
	notifier      OrderNotifier
	idGen         IDGenerator
	clock         Clock
	notifyTimeout time.Duration
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	users repo.UserRepository,
	notifier OrderNotifier,
	idGen IDGenerator,
	clock Clock,
	notifyTimeout time.Duration,
) *OrderUsecase {
	return &OrderUsecase{
		tx:            tx,
		orders:        orders,
		users:         users,
		notifier:      notifier,
		idGen:         idGen,
		clock:         clock,
		notifyTimeout: notifyTimeout,
	}
}

type OrderItemOutput struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	SKU       string     `json:"sku"`
	Size      model.Size `json:"size"`
	Quantity  int64      `json:"quantity"`
	Price     int64      `json:"price"`
	LineTotal int64      `json:"lineTotal"`
}

type OrderOutput struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Items         []OrderItemOutput   `json:"items"`
	Subtotal      int64               `json:"subtotal"`
	TotalPrice    int64               `json:"totalPrice"`
	OrderStatus   model.OrderStatus   `json:"orderStatus"`
	PaymentMethod string              `json:"paymentMethod"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	IsPaid        bool                `json:"isPaid"`
	AdminNotes    string              `json:"adminNotes"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
			LineTotal: it.LineTotal(),
		})
	}
	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         items,
		Subtotal:      o.Subtotal,
		TotalPrice:    o.TotalPrice,
		OrderStatus:   o.OrderStatus,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		IsPaid:        o.IsPaid,
		AdminNotes:    o.AdminNotes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// CreateOrder はカートから注文を作り、同じTxでカートを空にする。
// 価格は注文時点の販売価格で取り直す（カートの価格は表示用）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID string) (OrderOutput, error) {
	var order model.Order

	err := u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewValidationError("Cart is empty")
		}
		if err != nil {
			return NewInternalError(err)
		}
		if cart.IsEmpty() {
			return NewValidationError("Cart is empty")
		}

		now := u.clock.Now()
		items := make([]model.OrderItem, 0, len(cart.Items))
		priced := model.Cart{Items: make([]model.CartItem, 0, len(cart.Items))}
		for _, line := range cart.Items {
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewValidationError(fmt.Sprintf("product %s is no longer available", line.ProductID))
			}
			if err != nil {
				return NewInternalError(err)
			}
			if !p.IsAvailable() {
				return NewValidationError(fmt.Sprintf("product %s is no longer available", p.SKU))
			}
			items = append(items, model.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				SKU:       p.SKU,
				Size:      line.Size,
				Quantity:  line.Quantity,
				Price:     p.SellingPrice(),
			})
			line.Price = p.SellingPrice()
			priced.Items = append(priced.Items, line)
		}
		if err := priced.Validate(); err != nil {
			return NewValidationError(err.Error())
		}

		order = model.NewOrder(u.idGen.NewID(), userID, items, now)
		if err := r.Orders().Create(ctx, order); err != nil {
			return NewInternalError(err)
		}

		cart.Clear()
		cart.UpdatedAt = now
		if _, err := r.Carts().Save(ctx, cart); err != nil {
			if errors.Is(err, repo.ErrVersionConflict) {
				return NewConflictError("cart changed during checkout, please retry")
			}
			return NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, asAppErrorOrInternal(err)
	}

	metrics.OrdersCreated.Inc()
	u.notifyPlaced(ctx, order)
	return toOrderOutput(order), nil
}

// notifyPlaced は失敗してもログとメトリクスだけ残す。
// リクエストのキャンセルに巻き込まれないよう、ctxは切り離して時間だけ区切る。
func (u *OrderUsecase) notifyPlaced(ctx context.Context, order model.Order) {
	log := logger.FromContext(ctx)
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.notifyTimeout)
	defer cancel()

	notice := OrderNotice{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
		Items:      make([]OrderNoticeItem, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		notice.Items = append(notice.Items, OrderNoticeItem{
			Name:     it.Name,
			SKU:      it.SKU,
			Size:     string(it.Size),
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	if user, err := u.users.FindByID(nctx, order.UserID); err == nil {
		notice.CustomerName = user.Name
		notice.CustomerEmail = user.Email
	} else {
		log.Warn("order notification: customer lookup failed", "order_id", order.ID, "err", err)
	}

	if err := u.notifier.NotifyOrderPlaced(nctx, notice); err != nil {
		metrics.OrderNotificationsFailed.Inc()
		log.Error("order notification failed", "order_id", order.ID, "err", err)
	}
}

// 自分の注文一覧（新しい順）
func (u *OrderUsecase) GetUserOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, NewInternalError(err)
	}
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs, nil
}

// 他人の注文は存在しないものとして扱う
func (u *OrderUsecase) findOwned(ctx context.Context, userID, orderID string) (model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return model.Order{}, NewValidationError("orderId is required")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewNotFoundError("order not found")
	}
	if err != nil {
		return model.Order{}, NewInternalError(err)
	}
	if o.UserID != userID {
		return model.Order{}, NewNotFoundError("order not found")
	}
	return o, nil
}

func (u *OrderUsecase) GetOrderByID(ctx context.Context, userID, orderID string) (OrderOutput, error) {
	o, err := u.findOwned(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o), nil
}

// CancelOrder はPendingのときだけ。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID string) (OrderOutput, error) {
	o, err := u.findOwned(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	prev := o.OrderStatus
	if err := o.Cancel(u.clock.Now()); err != nil {
		return OrderOutput{}, NewValidationError("only pending orders can be cancelled")
	}
	if err := u.orders.UpdateStatus(ctx, o, prev); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewNotFoundError("order not found")
		}
		if errors.Is(err, repo.ErrVersionConflict) {
			return OrderOutput{}, NewConflictError("order status was changed, please reload")
		}
		return OrderOutput{}, NewInternalError(err)
	}
	return toOrderOutput(o), nil
}
