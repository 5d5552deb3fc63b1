package model

import (
	"errors"
	"math"
	"time"
)

// 1明細あたりの数量上限
const MaxCartLineQuantity = 999

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrQuantityTooLarge = errors.New("quantity must be at most 999")
	ErrTotalTooLarge    = errors.New("cart total is too large")
	ErrLineNotFound     = errors.New("cart line not found")
)

// 明細の同一性は (ProductID, Size)。
type CartItem struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" bson:"-" json:"-"`
	CartID   string `gorm:"type:varchar(36);not null;index" bson:"-" json:"-"`
	Position int    `gorm:"not null;default:0" bson:"-" json:"-"`

	ProductID string `gorm:"type:varchar(36);not null" bson:"productId" json:"productId"`
	Size      Size   `gorm:"type:varchar(8);not null" bson:"size" json:"size"`
	Quantity  int64  `gorm:"not null" bson:"quantity" json:"quantity"`

	//追加時点の販売価格
	Price int64 `gorm:"column:unit_price;not null" bson:"price" json:"price"`
}

func (i CartItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

// 1ユーザーにつき1つ。注文時には削除せず空にする。
type Cart struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID     string     `gorm:"type:varchar(36);not null;uniqueIndex" bson:"userId" json:"userId"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" bson:"items" json:"items"`
	TotalPrice int64      `gorm:"not null;default:0" bson:"totalPrice" json:"totalPrice"`

	//楽観ロック用。書き込みごとに+1
	Version int64 `gorm:"not null;default:0" bson:"version" json:"-"`

	CreatedAt time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

func NewCart(id, userID string, now time.Time) Cart {
	return Cart{
		ID:        id,
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) find(productID string, size Size) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

// Line は (productID, size) の明細を返す。
func (c *Cart) Line(productID string, size Size) (CartItem, bool) {
	if i := c.find(productID, size); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddItem は同じ明細があれば数量を加算し、なければ末尾に追加する。
// 合計は全明細から再計算する。
func (c *Cart) AddItem(productID string, size Size, quantity, unitPrice int64) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > MaxCartLineQuantity {
		return ErrQuantityTooLarge
	}
	items := append([]CartItem(nil), c.Items...)
	if i := c.find(productID, size); i >= 0 {
		items[i].Quantity += quantity
		if items[i].Quantity > MaxCartLineQuantity {
			return ErrQuantityTooLarge
		}
	} else {
		items = append(items, CartItem{
			ProductID: productID,
			Size:      size,
			Quantity:  quantity,
			Price:     unitPrice,
		})
	}
	total, err := sumItems(items)
	if err != nil {
		return err
	}
	c.Items = items
	c.TotalPrice = total
	return nil
}

// RemoveOne は数量を1減らす。1なら明細ごと消す。
func (c *Cart) RemoveOne(productID string, size Size) error {
	i := c.find(productID, size)
	if i < 0 {
		return ErrLineNotFound
	}
	line := c.Items[i]
	if line.Quantity > 1 {
		c.Items[i].Quantity--
	} else {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.TotalPrice -= line.Price
	return nil
}

// SetQuantity は数量を上書きし、差分だけ合計を動かす。
func (c *Cart) SetQuantity(productID string, size Size, quantity int64) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > MaxCartLineQuantity {
		return ErrQuantityTooLarge
	}
	i := c.find(productID, size)
	if i < 0 {
		return ErrLineNotFound
	}
	line := c.Items[i]
	before, ok := lineTotal(line)
	if !ok {
		return ErrTotalTooLarge
	}
	line.Quantity = quantity
	after, ok := lineTotal(line)
	if !ok {
		return ErrTotalTooLarge
	}
	delta := after - before
	if delta > 0 && c.TotalPrice > math.MaxInt64-delta {
		return ErrTotalTooLarge
	}
	c.Items[i].Quantity = quantity
	c.TotalPrice += delta
	return nil
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalPrice = 0
}

// lineTotal は price*quantity が int64 に収まるときだけ ok。
func lineTotal(it CartItem) (int64, bool) {
	if it.Quantity < 0 || it.Price < 0 {
		return 0, false
	}
	if it.Quantity > 0 && it.Price > math.MaxInt64/it.Quantity {
		return 0, false
	}
	return it.Price * it.Quantity, true
}

func sumItems(items []CartItem) (int64, error) {
	var total int64
	for _, it := range items {
		v, ok := lineTotal(it)
		if !ok || total > math.MaxInt64-v {
			return 0, ErrTotalTooLarge
		}
		total += v
	}
	return total, nil
}

// Validate は全明細の数量範囲と合計の桁あふれを確認する。
func (c *Cart) Validate() error {
	for _, it := range c.Items {
		if it.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if it.Quantity > MaxCartLineQuantity {
			return ErrQuantityTooLarge
		}
	}
	_, err := sumItems(c.Items)
	return err
}

func (c *Cart) Recalculate() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	c.TotalPrice = total
	return total
}
