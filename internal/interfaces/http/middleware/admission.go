package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/volatiletech/null/v8"
	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
	"cccd-api.backend/internal/interfaces/http/response"
	"cccd-api.backend/internal/usecases"
	"cccd-api.backend/pkg/metrics"
)

const (
	// ApiKeyHeader carries the plaintext key on parse requests
	ApiKeyHeader = "X-API-Key"
	// KeyInfoKey is the context key for the admitted key
	KeyInfoKey = "keyInfo"
	// MaskedPayloadKey is the context key handlers use to expose the masked
	// request payload for usage recording
	MaskedPayloadKey = "maskedPayload"
)

// Admission validates the API key and charges the request against its tier
// window before any handler runs. Every request, admitted or refused, is
// recorded fire-and-forget with its outcome and latency.
func Admission(apiKeyUsecase *usecases.ApiKeyUsecase, usageUsecase *usecases.UsageUsecase, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		sourceIP := c.ClientIP()

		info, err := apiKeyUsecase.ValidateAndAdmit(c.Request.Context(), c.GetHeader(ApiKeyHeader), sourceIP)
		if err != nil {
			recordRefusal(m, err)
			response.Error(c, err)
			c.Abort()
			recordUsage(usageUsecase, c, info, sourceIP, start)
			return
		}

		c.Set(KeyInfoKey, info)
		c.Next()

		recordUsage(usageUsecase, c, info, sourceIP, start)
	}
}

// GetKeyInfo gets the admitted key from context
func GetKeyInfo(c *gin.Context) (*entities.KeyInfo, bool) {
	v, exists := c.Get(KeyInfoKey)
	if !exists {
		return nil, false
	}
	return v.(*entities.KeyInfo), true
}

func recordRefusal(m *metrics.Metrics, err error) {
	if m == nil {
		return
	}
	switch {
	case errors.Is(err, domainerrors.ErrRateLimited):
		m.RecordAdmissionDenied()
	case errors.Is(err, domainerrors.ErrInvalidKey),
		errors.Is(err, domainerrors.ErrDeactivated),
		errors.Is(err, domainerrors.ErrExpired):
		m.RecordAuthFailure()
	}
}

func recordUsage(usageUsecase *usecases.UsageUsecase, c *gin.Context, info *entities.KeyInfo, sourceIP string, start time.Time) {
	log := &entities.RequestLog{
		Endpoint:      c.FullPath(),
		StatusCode:    c.Writer.Status(),
		LatencyMs:     float64(time.Since(start).Microseconds()) / 1000.0,
		MaskedPayload: c.GetString(MaskedPayloadKey),
		SourceIP:      sourceIP,
	}
	if log.Endpoint == "" {
		log.Endpoint = c.Request.URL.Path
	}
	if info != nil {
		log.KeyID = null.Int64From(info.ID)
	}
	usageUsecase.Record(log)
}
