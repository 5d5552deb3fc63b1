package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownSize     = errors.New("unknown size")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidPrice    = errors.New("price, discount and stock must not be negative")
	ErrDiscountTooHigh = errors.New("discount must not exceed price")
)

type Category string

const (
	CategoryMen    Category = "MEN"
	CategoryWomen  Category = "WOMEN"
	CategoryKids   Category = "KIDS"
	CategoryUnisex Category = "UNISEX"
)

// ParseCategory は大文字小文字を区別せずにカテゴリを解釈する。
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	switch c {
	case CategoryMen, CategoryWomen, CategoryKids, CategoryUnisex:
		return c, nil
	}
	return "", ErrUnknownCategory
}

type Size string

const (
	SizeXS   Size = "XS"
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	SizeXXL  Size = "XXL"
	SizeXXXL Size = "XXXL"
	SizeFree Size = "FREE"
)

var knownSizes = map[Size]struct{}{
	SizeXS: {}, SizeS: {}, SizeM: {}, SizeL: {},
	SizeXL: {}, SizeXXL: {}, SizeXXXL: {}, SizeFree: {},
}

// NormalizeSize は " m " を "M" のような正規形にそろえる。
func NormalizeSize(raw string) (Size, error) {
	s := Size(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownSizes[s]; !ok {
		return "", ErrUnknownSize
	}
	return s, nil
}

type Product struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	SKU           string     `gorm:"type:varchar(64);not null;uniqueIndex" bson:"sku" json:"sku"`
	Name          string     `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Description   string     `gorm:"type:text" bson:"description" json:"description"`
	Price         int64      `gorm:"not null" bson:"price" json:"price"`
	Discount      int64      `gorm:"not null;default:0" bson:"discount" json:"discount"`
	Category      Category   `gorm:"type:varchar(20);not null;index" bson:"category" json:"category"`
	Type          string     `gorm:"type:varchar(100);not null" bson:"type" json:"type"`
	Sizes         []Size     `gorm:"serializer:json;type:text" bson:"sizes" json:"sizes"`
	Stock         int64      `gorm:"not null" bson:"stock" json:"stock"`
	AverageRating float64    `gorm:"not null;default:0" bson:"averageRating" json:"averageRating"`
	ReviewCount   int64      `gorm:"not null;default:0" bson:"reviewCount" json:"reviewCount"`
	IsActive      bool       `gorm:"not null;default:false" bson:"isActive" json:"isActive"`
	CreatedAt     time.Time  `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time `gorm:"index" bson:"deletedAt,omitempty" json:"-"`
}

// SellingPrice は price - discount。0未満にはしない。
func (p Product) SellingPrice() int64 {
	if p.Discount >= p.Price {
		return 0
	}
	return p.Price - p.Discount
}

// HasSize はサイズ指定のない商品なら常にtrue。
func (p Product) HasSize(s Size) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, v := range p.Sizes {
		if v == s {
			return true
		}
	}
	return false
}

func (p Product) IsAvailable() bool {
	return p.IsActive && p.DeletedAt == nil
}

// ValidatePricing は書き込み前の金額チェック。
func (p Product) ValidatePricing() error {
	if p.Price < 0 || p.Discount < 0 || p.Stock < 0 {
		return ErrInvalidPrice
	}
	if p.Discount > p.Price {
		return ErrDiscountTooHigh
	}
	return nil
}
