package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/interfaces/http/middleware"
	"cccd-api.backend/internal/interfaces/http/response"
	"cccd-api.backend/internal/usecases"
	"cccd-api.backend/pkg/metrics"
)

type ApiKeyHandler struct {
	apiKeyUsecase *usecases.ApiKeyUsecase
	metrics       *metrics.Metrics
}

func NewApiKeyHandler(apiKeyUsecase *usecases.ApiKeyUsecase, m *metrics.Metrics) *ApiKeyHandler {
	return &ApiKeyHandler{
		apiKeyUsecase: apiKeyUsecase,
		metrics:       m,
	}
}

// CreateApiKey mints a new key for the authenticated user. The plaintext key
// appears in this response and nowhere else.
func (h *ApiKeyHandler) CreateApiKey(c *gin.Context) {
	var input entities.CreateApiKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	email, _ := middleware.GetUserEmail(c)

	resp, err := h.apiKeyUsecase.Create(c.Request.Context(), &input, &userID, email)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordKeyCreated(string(resp.Tier))
	}
	response.Success(c, http.StatusCreated, resp)
}

// ListApiKeys lists the keys the authenticated user owns, newest first.
func (h *ApiKeyHandler) ListApiKeys(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	apiKeys, err := h.apiKeyUsecase.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"keys": apiKeys})
}

// GetApiKey returns one key the caller owns.
func (h *ApiKeyHandler) GetApiKey(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	key, err := h.apiKeyUsecase.Get(c.Request.Context(), keyID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, key)
}

// RotateApiKey replaces the key's secret. The old key stops validating
// immediately; its row is kept until the grace period ends.
func (h *ApiKeyHandler) RotateApiKey(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	var input struct {
		GracePeriodDays int `json:"gracePeriodDays"`
	}
	// Body is optional; an absent or empty body means the default grace.
	_ = c.ShouldBindJSON(&input)

	resp, err := h.apiKeyUsecase.Rotate(c.Request.Context(), keyID, scope, input.GracePeriodDays)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordKeyRotated()
	}
	response.Success(c, http.StatusOK, resp)
}

// SuspendApiKey pauses a key without destroying it.
func (h *ApiKeyHandler) SuspendApiKey(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	if err := h.apiKeyUsecase.Suspend(c.Request.Context(), keyID, scope); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "API key suspended"})
}

// ResumeApiKey reactivates a suspended key.
func (h *ApiKeyHandler) ResumeApiKey(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	if err := h.apiKeyUsecase.Resume(c.Request.Context(), keyID, scope); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "API key resumed"})
}

// DeleteApiKey permanently removes a key and everything recorded against it.
func (h *ApiKeyHandler) DeleteApiKey(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	if err := h.apiKeyUsecase.Delete(c.Request.Context(), keyID, scope); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "API key deleted"})
}

// UpdateApiKeyLabel replaces the key's label.
func (h *ApiKeyHandler) UpdateApiKeyLabel(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	var input entities.UpdateLabelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.apiKeyUsecase.UpdateLabel(c.Request.Context(), keyID, scope, input.Label); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Label updated"})
}

// GetApiKeyHistory returns the audit trail of a key the caller owns.
func (h *ApiKeyHandler) GetApiKeyHistory(c *gin.Context) {
	keyID, scope, ok := h.scopedKeyID(c)
	if !ok {
		return
	}

	history, err := h.apiKeyUsecase.History(c.Request.Context(), keyID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// scopedKeyID parses the :id param and resolves the caller's owner scope.
// Writes the error response itself when either fails.
func (h *ApiKeyHandler) scopedKeyID(c *gin.Context) (int64, *int64, bool) {
	keyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid API key ID")
		return 0, nil, false
	}

	scope, exists := middleware.OwnerScope(c)
	if !exists {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "User not authenticated")
		return 0, nil, false
	}
	return keyID, scope, true
}
