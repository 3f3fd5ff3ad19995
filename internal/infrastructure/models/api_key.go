package models

import (
	"time"
)

type ApiKey struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	KeyDigest   string     `gorm:"type:varchar(64);uniqueIndex;not null"` // SHA256 of plaintext key
	KeyPrefix   string     `gorm:"type:varchar(20);not null"`
	Tier        string     `gorm:"type:varchar(10);not null;default:'free'"`
	OwnerEmail  string     `gorm:"type:varchar(255)"`
	OwnerUserID *int64     `gorm:"index"`
	Active      bool       `gorm:"default:true;not null"`
	Label       string     `gorm:"type:varchar(100)"`
	RotatedFrom *int64     // lineage back-reference, weak
	SuspendedAt *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time

	History     []ApiKeyHistory `gorm:"foreignKey:KeyID;constraint:OnDelete:CASCADE"`
	RequestLogs []RequestLog    `gorm:"foreignKey:KeyID;constraint:OnDelete:CASCADE"`
}

func (ApiKey) TableName() string {
	return "api_keys"
}
