package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// 1ユーザー1商品につき1件。
type Review struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_user_product" bson:"userId" json:"userId"`
	ProductID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_user_product;index" bson:"productId" json:"productId"`
	Rating    int    `gorm:"not null" bson:"rating" json:"rating"`
	Comment   string `gorm:"type:text" bson:"comment" json:"comment"`

	//退会済みユーザーのレビューは平均から外す
	UserDeleted bool `gorm:"not null;default:false" bson:"userDeleted" json:"userDeleted"`

	CreatedAt time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
