package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownOrderStatus = errors.New("unknown order status")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusReadyForPickup OrderStatus = "Ready for Pickup"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusReadyForPickup, OrderStatusCancelled},
	OrderStatusReadyForPickup: {OrderStatusCompleted},
}

// ParseOrderStatus は4つの既知ステータスだけを受け付ける（大文字小文字は無視）。
func ParseOrderStatus(raw string) (OrderStatus, error) {
	v := strings.TrimSpace(raw)
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusReadyForPickup, OrderStatusCompleted, OrderStatusCancelled,
	} {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	return "", ErrUnknownOrderStatus
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo は同じステータスへの更新も許可する（備考の更新のみ）。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// 店頭受け取り・現金払いのみ
const PaymentMethodCash = "Cash"

// 注文時点の商品名・SKU・価格を固定で持つ。
type OrderItem struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	OrderID string `gorm:"type:varchar(36);not null;index" bson:"-" json:"-"`

	ProductID string `gorm:"type:varchar(36);not null;index" bson:"productId" json:"productId"`
	Name      string `gorm:"column:product_name_snapshot;type:varchar(255);not null" bson:"name" json:"name"`
	SKU       string `gorm:"column:sku_snapshot;type:varchar(64);not null" bson:"sku" json:"sku"`
	Size      Size   `gorm:"type:varchar(8);not null" bson:"size" json:"size"`
	Quantity  int64  `gorm:"not null" bson:"quantity" json:"quantity"`
	Price     int64  `gorm:"column:unit_price_snapshot;not null" bson:"price" json:"price"`
}

func (i OrderItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

type Order struct {
	ID            string        `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID        string        `gorm:"type:varchar(36);not null;index" bson:"userId" json:"userId"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" bson:"items" json:"items"`
	Subtotal      int64         `gorm:"not null" bson:"subtotal" json:"subtotal"`
	TotalPrice    int64         `gorm:"not null" bson:"totalPrice" json:"totalPrice"`
	OrderStatus   OrderStatus   `gorm:"type:varchar(32);not null;index" bson:"orderStatus" json:"orderStatus"`
	PaymentMethod string        `gorm:"type:varchar(20);not null" bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" bson:"paymentStatus" json:"paymentStatus"`
	IsPaid        bool          `gorm:"not null;default:false" bson:"isPaid" json:"isPaid"`
	AdminNotes    string        `gorm:"type:text" bson:"adminNotes" json:"adminNotes"`
	CreatedAt     time.Time     `gorm:"not null;index" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

// NewOrder は小計を明細から計算する。送料・税はないので合計＝小計。
func NewOrder(id, userID string, items []OrderItem, now time.Time) Order {
	var subtotal int64
	for _, it := range items {
		subtotal += it.LineTotal()
	}
	o := Order{
		ID:            id,
		UserID:        userID,
		Items:         items,
		Subtotal:      subtotal,
		TotalPrice:    subtotal,
		OrderStatus:   OrderStatusPending,
		PaymentMethod: PaymentMethodCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.derivePayment()
	return o
}

// 支払い状態はステータスから決まる
func (o *Order) derivePayment() {
	if o.OrderStatus == OrderStatusCompleted {
		o.IsPaid = true
		o.PaymentStatus = PaymentStatusPaid
		return
	}
	o.IsPaid = false
	o.PaymentStatus = PaymentStatusPending
}

// ApplyStatus は遷移表に従ってステータスを変える。notesがnilなら備考はそのまま。
func (o *Order) ApplyStatus(next OrderStatus, notes *string, now time.Time) error {
	if !o.OrderStatus.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.OrderStatus = next
	if notes != nil {
		o.AdminNotes = *notes
	}
	o.derivePayment()
	o.UpdatedAt = now
	return nil
}

// Cancel はPendingからのみ。
func (o *Order) Cancel(now time.Time) error {
	if o.OrderStatus != OrderStatusPending {
		return ErrInvalidTransition
	}
	return o.ApplyStatus(OrderStatusCancelled, nil, now)
}
