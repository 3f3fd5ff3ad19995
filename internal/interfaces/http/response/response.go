package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	domainerrors "cccd-api.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps a domain error onto the wire. Rate-limit errors additionally
// carry a Retry-After header.
func Error(c *gin.Context, err error) {
	var rlErr *domainerrors.RateLimitError
	if errors.As(err, &rlErr) {
		c.Header("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "rate limit exceeded",
			"limit":               rlErr.Limit,
			"retry_after_seconds": rlErr.RetryAfterSeconds,
		})
		return
	}

	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}

	c.JSON(appErr.Code, gin.H{
		"error": appErr.Message,
	})
}

// ErrorWithStatus sends an error response with an explicit status and message.
func ErrorWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error": message,
	})
}
