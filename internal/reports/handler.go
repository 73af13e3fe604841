package reports

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/campaigns"
)

// Handler handles HTTP requests for reporting operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats", h.getPlatformStats)
	router.GET("/stats/cache", h.getCacheStats)
	router.GET("/campaigns/:id/funding", h.getCampaignFunding)
	router.GET("/campaigns/:id/investments/export", h.exportInvestments)
}

// getPlatformStats handles GET /api/v1/reports/stats
func (h *Handler) getPlatformStats(c *gin.Context) {
	stats, err := h.service.GetPlatformStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get platform stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get platform stats", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// getCacheStats handles GET /api/v1/reports/stats/cache
func (h *Handler) getCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CacheStats())
}

// getCampaignFunding handles GET /api/v1/reports/campaigns/:id/funding
func (h *Handler) getCampaignFunding(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID", "code": "invalid_request"})
		return
	}

	funding, err := h.service.GetCampaignFunding(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, funding)
}

// exportInvestments handles GET /api/v1/reports/campaigns/:id/investments/export
func (h *Handler) exportInvestments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign ID", "code": "invalid_request"})
		return
	}
	format := ExportFormat(c.DefaultQuery("format", string(ExportFormatCSV)))

	var buf bytes.Buffer
	contentType, err := h.service.ExportInvestments(c.Request.Context(), id, format, &buf)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=investments-%s.%s", id, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, campaigns.ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "campaign_not_found"})
	case errors.Is(err, ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unsupported_format"})
	default:
		h.logger.Error("Report request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}
