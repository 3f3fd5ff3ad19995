package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"cccd-api.backend/internal/domain/entities"
	"cccd-api.backend/internal/interfaces/http/middleware"
	"cccd-api.backend/internal/interfaces/http/response"
	"cccd-api.backend/internal/usecases"
	"cccd-api.backend/pkg/metrics"
)

// maxCCCDInputLength caps the payload before any processing so garbage
// input is rejected cheaply.
const maxCCCDInputLength = 20

type CCCDHandler struct {
	parser         usecases.CCCDParser
	defaultVersion entities.ProvinceVersion
	metrics        *metrics.Metrics
}

func NewCCCDHandler(parser usecases.CCCDParser, defaultVersion entities.ProvinceVersion, m *metrics.Metrics) *CCCDHandler {
	return &CCCDHandler{
		parser:         parser,
		defaultVersion: defaultVersion,
		metrics:        m,
	}
}

// ParseCCCD decodes a 12-digit citizen-ID number. Only the masked form of
// the number is ever exposed to logging and usage recording.
func (h *CCCDHandler) ParseCCCD(c *gin.Context) {
	var input entities.ParseCCCDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.recordParse("invalid_format")
		response.ErrorWithStatus(c, http.StatusBadRequest, "cccd field is required and must be a string")
		return
	}

	cccd := strings.TrimSpace(input.CCCD)
	if cccd == "" {
		h.recordParse("invalid_format")
		response.ErrorWithStatus(c, http.StatusBadRequest, "cccd field is required")
		return
	}
	if len(cccd) > maxCCCDInputLength {
		h.recordParse("invalid_format")
		c.Set(middleware.MaskedPayloadKey, usecases.MaskCCCD(cccd[:maxCCCDInputLength]))
		response.Success(c, http.StatusBadRequest, &entities.ParseCCCDResponse{
			IsValidFormat: false,
			Message:       "cccd must be exactly 12 digits",
		})
		return
	}

	c.Set(middleware.MaskedPayloadKey, usecases.MaskCCCD(cccd))

	version, versionWarnings, ok := usecases.ResolveProvinceVersion(input.ProvinceVersion, h.defaultVersion)
	if !ok {
		h.recordParse("invalid_format")
		response.ErrorWithStatus(c, http.StatusBadRequest, "province_version must be one of: legacy_63, current_34")
		return
	}

	if !isTwelveDigits(cccd) {
		h.recordParse("invalid_format")
		response.Success(c, http.StatusBadRequest, &entities.ParseCCCDResponse{
			IsValidFormat:   false,
			ProvinceVersion: version,
			Message:         "cccd must be exactly 12 digits",
		})
		return
	}

	info, parseWarnings := h.parser.Parse(cccd, version)
	// Alias warnings are informational only; plausibility is judged on the
	// parse itself.
	plausible := len(parseWarnings) == 0
	warnings := append(versionWarnings, parseWarnings...)

	outcome := "ok"
	if !plausible {
		outcome = "implausible"
	}
	h.recordParse(outcome)

	response.Success(c, http.StatusOK, &entities.ParseCCCDResponse{
		Success:         true,
		IsValidFormat:   true,
		IsPlausible:     plausible,
		Data:            info,
		ProvinceVersion: version,
		Warnings:        warnings,
	})
}

func (h *CCCDHandler) recordParse(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordParse(outcome)
	}
}

func isTwelveDigits(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
