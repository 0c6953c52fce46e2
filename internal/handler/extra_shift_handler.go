package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cryptobal/gardops-api/internal/service"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
	"github.com/Cryptobal/gardops-api/pkg/response"
)

// ExtraShiftHandler exposes the billing ledger for ad-hoc coverage shifts.
type ExtraShiftHandler struct {
	ledger *service.ExtraShiftService
}

// NewExtraShiftHandler constructs the handler.
func NewExtraShiftHandler(ledger *service.ExtraShiftService) *ExtraShiftHandler {
	return &ExtraShiftHandler{ledger: ledger}
}

// Record godoc
// @Summary Record a billable extra shift
// @Tags TurnosExtra
// @Accept json
// @Produce json
// @Param payload body service.RecordExtraShiftRequest true "Extra shift"
// @Success 201 {object} response.Envelope
// @Router /turnos-extra [post]
func (h *ExtraShiftHandler) Record(c *gin.Context) {
	var req service.RecordExtraShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	entry, err := h.ledger.Record(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Get godoc
// @Summary Fetch one ledger entry
// @Tags TurnosExtra
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /turnos-extra/{id} [get]
func (h *ExtraShiftHandler) Get(c *gin.Context) {
	entry, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// List godoc
// @Summary List ledger entries
// @Tags TurnosExtra
// @Produce json
// @Param installationId query string false "Installation ID"
// @Param paid query bool false "Paid flag"
// @Success 200 {object} response.Envelope
// @Router /turnos-extra [get]
func (h *ExtraShiftHandler) List(c *gin.Context) {
	req := service.ExtraShiftListRequest{
		InstallationID: c.Query("installationId"),
		PostID:         c.Query("postId"),
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "pageSize"),
	}
	if raw := c.Query("paid"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "paid must be a boolean"))
			return
		}
		req.Paid = &value
	}
	if raw := c.Query("includeVoided"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "includeVoided must be a boolean"))
			return
		}
		req.IncludeVoided = value
	}
	if raw := c.Query("dateFrom"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD"))
			return
		}
		req.DateFrom = &date
	}
	if raw := c.Query("dateTo"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD"))
			return
		}
		req.DateTo = &date
	}
	entries, pagination, err := h.ledger.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

type markPaidBody struct {
	PayrollBatchID string `json:"payroll_batch_id"`
}

// MarkPaid godoc
// @Summary Fold a ledger entry into a payroll batch
// @Tags TurnosExtra
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body markPaidBody true "Payroll batch"
// @Success 200 {object} response.Envelope
// @Router /turnos-extra/{id}/pagar [put]
func (h *ExtraShiftHandler) MarkPaid(c *gin.Context) {
	var body markPaidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	if err := h.ledger.MarkPaid(c.Request.Context(), c.Param("id"), body.PayrollBatchID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "paid"}, nil)
}
