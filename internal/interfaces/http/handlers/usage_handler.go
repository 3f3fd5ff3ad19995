package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"cccd-api.backend/internal/interfaces/http/middleware"
	"cccd-api.backend/internal/interfaces/http/response"
	"cccd-api.backend/internal/usecases"
)

const (
	defaultUsageRangeDays = 30
	maxUsageRangeDays     = 365
)

type UsageHandler struct {
	usageUsecase *usecases.UsageUsecase
}

func NewUsageHandler(usageUsecase *usecases.UsageUsecase) *UsageHandler {
	return &UsageHandler{usageUsecase: usageUsecase}
}

// GetOwnerUsage rolls up usage across every key the caller owns. An owner
// with no keys or no traffic gets zeroed aggregates.
func (h *UsageHandler) GetOwnerUsage(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.usageUsecase.AggregateForOwner(c.Request.Context(), userID, rangeDays(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GetKeyUsage returns the per-day rollup for one key the caller owns.
func (h *UsageHandler) GetKeyUsage(c *gin.Context) {
	keyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid API key ID")
		return
	}

	scope, exists := middleware.OwnerScope(c)
	if !exists {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.usageUsecase.AggregateDaily(c.Request.Context(), keyID, scope, rangeDays(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// rangeDays reads ?days= clamped to [1, 365]; anything unparsable falls back
// to the 30-day default.
func rangeDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultUsageRangeDays)))
	if err != nil || days < 1 {
		return defaultUsageRangeDays
	}
	if days > maxUsageRangeDays {
		return maxUsageRangeDays
	}
	return days
}
