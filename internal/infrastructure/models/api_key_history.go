package models

import (
	"time"
)

type ApiKeyHistory struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	KeyID       int64  `gorm:"index;not null"`
	Action      string `gorm:"type:varchar(50);not null"`
	OldValue    string `gorm:"type:varchar(255)"`
	NewValue    string `gorm:"type:varchar(255)"`
	PerformedBy *int64
	CreatedAt   time.Time
}

func (ApiKeyHistory) TableName() string {
	return "api_key_history"
}
