package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cryptobal/gardops-api/internal/service"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
	"github.com/Cryptobal/gardops-api/pkg/response"
)

// AuditHandler exposes compliance views over the transition audit trail.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param actor query string false "Actor ID"
// @Param dateFrom query string false "From date (RFC3339)"
// @Param dateTo query string false "To date (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	req := service.AuditListRequest{
		Actor:    c.Query("actor"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	if raw := c.Query("dateFrom"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be RFC3339"))
			return
		}
		req.DateFrom = &ts
	}
	if raw := c.Query("dateTo"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be RFC3339"))
			return
		}
		req.DateTo = &ts
	}
	entries, pagination, err := h.audit.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
