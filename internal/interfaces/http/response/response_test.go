package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	domainerrors "cccd-api.backend/internal/domain/errors"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func TestError_AppError(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, domainerrors.NotFound("key not found"))
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "key not found")
}

func TestError_RateLimitCarriesRetryAfter(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, domainerrors.RateLimited(10, 42))
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "42", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), `"limit":10`)
	require.Contains(t, w.Body.String(), `"retry_after_seconds":42`)
}

func TestError_UnknownErrorIsInternal(t *testing.T) {
	w := record(func(c *gin.Context) {
		Error(c, errors.New("boom"))
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "internal server error")
}
