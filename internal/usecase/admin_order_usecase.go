package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	idGen  IDGenerator
	clock  Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, idGen IDGenerator, clock Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, idGen: idGen, clock: clock}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	//nilなら備考は変えない
	AdminNotes *string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewValidationError("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewValidationError("invalid limit")
	}
	if f.Status != "" {
		s, err := model.ParseOrderStatus(f.Status)
		if err != nil {
			return AdminOrderListOutput{}, NewValidationError("invalid status")
		}
		f.Status = string(s)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderListOutput{}, NewValidationError("from must be before to")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, NewInternalError(err)
	}
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return AdminOrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type orderStatusSnapshot struct {
	OrderStatus   model.OrderStatus   `json:"orderStatus"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	IsPaid        bool                `json:"isPaid"`
	AdminNotes    string              `json:"adminNotes"`
}

func snapshotOf(o model.Order) string {
	b, _ := json.Marshal(orderStatusSnapshot{
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		IsPaid:        o.IsPaid,
		AdminNotes:    o.AdminNotes,
	})
	return string(b)
}

// UpdateStatus はステータス更新と監査ログを同じTxで書く。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID, orderID string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewValidationError("orderId is required")
	}
	next, err := model.ParseOrderStatus(in.Status)
	if err != nil {
		return OrderOutput{}, NewValidationError("invalid status")
	}

	var updated model.Order
	err = u.tx.WithinTx(ctx, func(ctx context.Context, r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("order not found")
		}
		if err != nil {
			return NewInternalError(err)
		}

		before := snapshotOf(o)
		prev := o.OrderStatus
		if err := o.ApplyStatus(next, in.AdminNotes, u.clock.Now()); err != nil {
			return NewValidationError("cannot change order status from " + string(prev) + " to " + string(next))
		}

		if err := r.Orders().UpdateStatus(ctx, o, prev); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("order not found")
			}
			if errors.Is(err, repo.ErrVersionConflict) {
				return NewConflictError("order status was changed, please reload")
			}
			return NewInternalError(err)
		}

		// 監査ログ
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ID:           u.idGen.NewID(),
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   before,
			AfterJSON:    snapshotOf(o),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewInternalError(err)
		}

		updated = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, asAppErrorOrInternal(err)
	}
	return toOrderOutput(updated), nil
}
