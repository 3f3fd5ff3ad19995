package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBusinessCounters(t *testing.T) {
	m := New()

	m.RecordParse("ok")
	m.RecordParse("ok")
	m.RecordParse("invalid_format")
	m.RecordAdmissionDenied()
	m.RecordAuthFailure()
	m.RecordKeyCreated("premium")
	m.RecordKeyRotated()

	require.Equal(t, 2.0, testutil.ToFloat64(m.ParseRequests.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ParseRequests.WithLabelValues("invalid_format")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionsDenied))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.KeysCreated.WithLabelValues("premium")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.KeysRotated))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/keys/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/keys/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Labelled by route pattern, not the raw URL.
	require.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/keys/:id", "200")))

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, scrape)
	require.Equal(t, http.StatusOK, sw.Code)
	require.Contains(t, sw.Body.String(), "http_requests_total")
}

func TestNewIsIsolatedPerInstance(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.RecordKeyRotated()
	require.Equal(t, 1.0, testutil.ToFloat64(a.KeysRotated))
	require.Equal(t, 0.0, testutil.ToFloat64(b.KeysRotated))
}
