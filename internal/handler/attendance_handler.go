package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/service"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
	"github.com/Cryptobal/gardops-api/pkg/response"
)

// AttendanceHandler drives the day-level attendance state machine and its
// follow-up effects: coverage resolution, ledger voiding on undo and roster
// cache eviction.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	coverage   *service.CoverageService
	ledger     *service.ExtraShiftService
	audit      *service.AuditService
	schedule   *service.ScheduleService
	logger     *zap.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService, coverage *service.CoverageService, ledger *service.ExtraShiftService, audit *service.AuditService, schedule *service.ScheduleService, logger *zap.Logger) *AttendanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceHandler{
		attendance: attendance,
		coverage:   coverage,
		ledger:     ledger,
		audit:      audit,
		schedule:   schedule,
		logger:     logger,
	}
}

type markAttendanceBody struct {
	Status     string  `json:"status"`
	WithNotice *bool   `json:"with_notice"`
	Reason     *string `json:"reason"`
	Comment    *string `json:"comment"`
}

// Mark godoc
// @Summary Mark a planned entry as worked or absent
// @Tags Pauta
// @Accept json
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Param payload body markAttendanceBody true "Attendance outcome"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id}/asistencia [put]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	var body markAttendanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	entry, err := h.attendance.Mark(c.Request.Context(), actorFromContext(c), service.MarkAttendanceRequest{
		ShiftPlanID: shiftPlanID,
		Status:      body.Status,
		WithNotice:  body.WithNotice,
		Reason:      body.Reason,
		Comment:     body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.schedule.InvalidatePeriod(c.Request.Context(), entry.Year, entry.Month)
	response.JSON(c, http.StatusOK, entry, nil)
}

type resolveCoverageBody struct {
	Covered         bool    `json:"covered"`
	CoverageGuardID *string `json:"coverage_guard_id"`
	WithNotice      *bool   `json:"with_notice"`
	Reason          *string `json:"reason"`
	Comment         *string `json:"comment"`
}

// ResolveCoverage godoc
// @Summary Resolve an absence as replaced or uncovered
// @Tags Pauta
// @Accept json
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Param payload body resolveCoverageBody true "Coverage outcome"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id}/cobertura [put]
func (h *AttendanceHandler) ResolveCoverage(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	var body resolveCoverageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	entry, err := h.coverage.Resolve(c.Request.Context(), actorFromContext(c), service.ResolveCoverageRequest{
		ShiftPlanID:     shiftPlanID,
		Covered:         body.Covered,
		CoverageGuardID: body.CoverageGuardID,
		WithNotice:      body.WithNotice,
		Reason:          body.Reason,
		Comment:         body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.schedule.InvalidatePeriod(c.Request.Context(), entry.Year, entry.Month)
	response.JSON(c, http.StatusOK, entry, nil)
}

// Undo godoc
// @Summary Reset a marked entry back to planned
// @Tags Pauta
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id}/deshacer [post]
func (h *AttendanceHandler) Undo(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	result, err := h.attendance.Undo(c.Request.Context(), actorFromContext(c), shiftPlanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Undoing a covered absence cancels its unpaid billing entry. Paid
	// entries survive and must be reconciled manually with payroll.
	voided := false
	if result.PriorState == models.StateReplaced {
		voided, err = h.ledger.VoidUnpaid(c.Request.Context(), result.Entry.PostID, result.Entry.Date())
		if err != nil {
			h.logger.Warn("failed to void extra shift after undo",
				zap.Int64("shift_plan_id", shiftPlanID),
				zap.Error(err))
		}
	}

	h.schedule.InvalidatePeriod(c.Request.Context(), result.Entry.Year, result.Entry.Month)
	response.JSON(c, http.StatusOK, gin.H{
		"entry":              result.Entry,
		"prior_state":        result.PriorState,
		"extra_shift_voided": voided,
	}, nil)
}

type displayStatusBody struct {
	DisplayStatus string `json:"display_status"`
}

// SetDisplayStatus godoc
// @Summary Set the cosmetic traffic-light tag of an entry
// @Tags Pauta
// @Accept json
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Param payload body displayStatusBody true "Display status"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id}/estado-ui [put]
func (h *AttendanceHandler) SetDisplayStatus(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	var body displayStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	if err := h.attendance.SetDisplayStatus(c.Request.Context(), shiftPlanID, body.DisplayStatus); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "updated"}, nil)
}

// Get godoc
// @Summary Fetch one shift plan entry
// @Tags Pauta
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	entry, err := h.attendance.Get(c.Request.Context(), shiftPlanID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// History godoc
// @Summary Transition history of one entry
// @Tags Pauta
// @Produce json
// @Param id path int true "Shift plan entry ID"
// @Success 200 {object} response.Envelope
// @Router /pauta/{id}/historial [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	shiftPlanID, ok := shiftPlanIDParam(c)
	if !ok {
		return
	}
	entries, err := h.audit.History(c.Request.Context(), shiftPlanID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func shiftPlanIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid shift plan id"))
		return 0, false
	}
	return id, true
}
