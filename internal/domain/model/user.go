package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" bson:"passwordHash" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'USER'" bson:"role" json:"role"`
	TokenVersion int        `gorm:"not null;default:0" bson:"tokenVersion" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" bson:"isActive" json:"isActive"`
	LastLoginAt  *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
