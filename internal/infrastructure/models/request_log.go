package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// RequestLog rows are append-only; they are never updated after insert.
type RequestLog struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	KeyID         null.Int64 `gorm:"index"`
	Endpoint      string     `gorm:"type:varchar(255);not null"`
	StatusCode    int        `gorm:"not null"`
	LatencyMs     float64    `gorm:"not null;default:0"`
	MaskedPayload string     `gorm:"type:varchar(64)"`
	SourceIP      string     `gorm:"type:varchar(64)"`
	CreatedAt     time.Time  `gorm:"index"`
}

func (RequestLog) TableName() string {
	return "request_logs"
}
