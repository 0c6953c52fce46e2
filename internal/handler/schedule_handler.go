package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cryptobal/gardops-api/internal/service"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
	"github.com/Cryptobal/gardops-api/pkg/response"
)

// ScheduleHandler exposes monthly roster generation and views.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(schedule *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// Generate godoc
// @Summary Generate the monthly roster for an installation
// @Tags Pauta
// @Accept json
// @Produce json
// @Param payload body service.GenerateMonthRequest true "Target month"
// @Success 201 {object} response.Envelope
// @Router /pauta/generar [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req service.GenerateMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	result, err := h.schedule.GenerateMonth(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Month godoc
// @Summary Monthly roster view of an installation
// @Tags Pauta
// @Produce json
// @Param installationId query string true "Installation ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /pauta [get]
func (h *ScheduleHandler) Month(c *gin.Context) {
	installationID := c.Query("installationId")
	year := queryInt(c, "year")
	month := queryInt(c, "month")
	if installationID == "" || year == 0 || month == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "installationId, year and month are required"))
		return
	}
	view, err := h.schedule.Month(c.Request.Context(), installationID, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
