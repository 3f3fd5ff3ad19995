package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// RequestLog is one append-only row per accepted or rejected call attempt.
// KeyID is nullable so records survive key deletion while in flight; stored
// rows cascade-delete with their key.
type RequestLog struct {
	ID            int64      `json:"id"`
	KeyID         null.Int64 `json:"keyId,omitempty"`
	Endpoint      string     `json:"endpoint"`
	StatusCode    int        `json:"statusCode"`
	LatencyMs     float64    `json:"latencyMs"`
	MaskedPayload string     `json:"maskedPayload,omitempty"`
	SourceIP      string     `json:"sourceIp,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// DailyUsage is one day's rollup of request logs for a key or an owner.
type DailyUsage struct {
	Date         string  `json:"date"`
	Count        int64   `json:"count"`
	SuccessCount int64   `json:"success"`
	ErrorCount   int64   `json:"error"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// UsageStats is the on-demand rollup served to dashboards and billing.
type UsageStats struct {
	KeyID           *int64       `json:"keyId,omitempty"`
	KeyPrefix       string       `json:"keyPrefix,omitempty"`
	Tier            Tier         `json:"tier,omitempty"`
	TotalRequests   int64        `json:"totalRequests"`
	SuccessRequests int64        `json:"successRequests"`
	ErrorRequests   int64        `json:"errorRequests"`
	AvgLatencyMs    float64      `json:"avgLatencyMs"`
	Daily           []DailyUsage `json:"daily"`
}
