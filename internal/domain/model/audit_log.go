package model

import "time"

// 商品更新、注文ステータス更新など。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//商品を更新した操作。
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
	//商品を削除した操作。
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
	//ユーザーを削除した操作。
	AuditActionDeleteUser AuditAction = "DELETE_USER"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID string `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`

	//操作した管理者のID。
	ActorUserID string `gorm:"type:varchar(36);not null;index" bson:"actorUserId" json:"actorUserId"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" bson:"action" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" bson:"resourceType" json:"resourceType"`
	ResourceID   string            `gorm:"type:varchar(36);not null;index" bson:"resourceId" json:"resourceId"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" bson:"beforeJson" json:"beforeJson"`
	AfterJSON  string `gorm:"type:text" bson:"afterJson" json:"afterJson"`

	CreatedAt time.Time `gorm:"not null;index" bson:"createdAt" json:"createdAt"`
}
