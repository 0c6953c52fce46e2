package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type shiftPlanStore interface {
	GetByID(ctx context.Context, id int64) (*models.ShiftPlanEntry, error)
	Transition(ctx context.Context, params repository.TransitionParams) (*models.ShiftPlanEntry, models.ShiftState, error)
	SetDisplayStatus(ctx context.Context, id int64, status string) error
}

type transitionObserver interface {
	ObserveTransition(action string, outcome string)
}

// AttendanceService runs the day-level attendance state machine over
// shift-plan entries. Every state change is delegated to the repository's
// atomic transition so concurrent marks on the same entry cannot both win.
type AttendanceService struct {
	store     shiftPlanStore
	metrics   transitionObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(store shiftPlanStore, metrics transitionObserver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, metrics: metrics, validator: validate, logger: logger}
}

// MarkAttendanceRequest describes a worked/absent mark for one entry.
type MarkAttendanceRequest struct {
	ShiftPlanID int64   `json:"shift_plan_id" validate:"required"`
	Status      string  `json:"status" validate:"required,oneof=worked absent"`
	WithNotice  *bool   `json:"with_notice"`
	Reason      *string `json:"reason"`
	Comment     *string `json:"comment"`
}

// UndoResult reports an undo outcome, including the state the entry held
// before it was reset. Callers use PriorState to decide follow-up cleanup.
type UndoResult struct {
	Entry      *models.ShiftPlanEntry `json:"entry"`
	PriorState models.ShiftState      `json:"prior_state"`
}

// Mark records the day outcome for an entry that is still planned. Entries
// without a title holder cannot be marked; their coverage is billed through
// the extra-shift ledger instead.
func (s *AttendanceService) Mark(ctx context.Context, actor string, req MarkAttendanceRequest) (*models.ShiftPlanEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	current, err := s.store.GetByID(ctx, req.ShiftPlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift plan entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift plan entry")
	}
	if current.GuardID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry has no assigned guard; attendance cannot be marked")
	}

	toState := models.ShiftState(req.Status)
	merge := models.Metadata{}
	if toState == models.StateAbsent {
		if req.WithNotice != nil {
			merge[models.MetaWithNotice] = fmt.Sprintf("%t", *req.WithNotice)
		}
		if req.Reason != nil && *req.Reason != "" {
			merge[models.MetaReason] = *req.Reason
		}
	}
	if req.Comment != nil && *req.Comment != "" {
		merge[models.MetaComment] = *req.Comment
	}

	entry, _, err := s.store.Transition(ctx, repository.TransitionParams{
		ShiftPlanID: req.ShiftPlanID,
		Actor:       actor,
		Action:      models.AuditActionMarkAttendance,
		FromStates:  []models.ShiftState{models.StatePlanned},
		ToState:     toState,
		MergeMeta:   merge,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, models.AuditActionMarkAttendance)
	}
	s.observe(models.AuditActionMarkAttendance, "success")
	s.logger.Info("attendance marked",
		zap.Int64("shift_plan_id", entry.ID),
		zap.String("state", string(entry.State)),
		zap.String("actor", actor))
	return entry, nil
}

// Undo resets a marked entry back to planned and clears coverage metadata.
// The audit row still records the reverted transition. PriorState comes from
// the transition itself, observed under the row lock, so a concurrent state
// change cannot make it stale.
func (s *AttendanceService) Undo(ctx context.Context, actor string, shiftPlanID int64) (*UndoResult, error) {
	entry, priorState, err := s.store.Transition(ctx, repository.TransitionParams{
		ShiftPlanID: shiftPlanID,
		Actor:       actor,
		Action:      models.AuditActionUndo,
		FromStates:  models.UndoableStates,
		ToState:     models.StatePlanned,
		ClearKeys:   models.CoverageMetaKeys,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, models.AuditActionUndo)
	}
	s.observe(models.AuditActionUndo, "success")
	s.logger.Info("attendance undone",
		zap.Int64("shift_plan_id", entry.ID),
		zap.String("prior_state", string(priorState)),
		zap.String("actor", actor))
	return &UndoResult{Entry: entry, PriorState: priorState}, nil
}

// Get loads one shift-plan entry.
func (s *AttendanceService) Get(ctx context.Context, shiftPlanID int64) (*models.ShiftPlanEntry, error) {
	entry, err := s.store.GetByID(ctx, shiftPlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift plan entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift plan entry")
	}
	return entry, nil
}

// SetDisplayStatus stores the cosmetic traffic-light tag outside the state
// machine. Any string is accepted and no audit row is written.
func (s *AttendanceService) SetDisplayStatus(ctx context.Context, shiftPlanID int64, status string) error {
	if err := s.store.SetDisplayStatus(ctx, shiftPlanID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift plan entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set display status")
	}
	return nil
}

func (s *AttendanceService) mapTransitionError(err error, action string) error {
	return mapTransitionError(s.metrics, err, action)
}

func (s *AttendanceService) observe(action, outcome string) {
	observeTransition(s.metrics, action, outcome)
}

func mapTransitionError(metrics transitionObserver, err error, action string) error {
	var conflict *repository.StateConflictError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		observeTransition(metrics, action, "not_found")
		return appErrors.Clone(appErrors.ErrNotFound, "shift plan entry not found")
	case errors.As(err, &conflict):
		observeTransition(metrics, action, "conflict")
		return appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("transition not allowed from state %q", conflict.Current))
	default:
		observeTransition(metrics, action, "error")
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transition failed")
	}
}

func observeTransition(metrics transitionObserver, action, outcome string) {
	if metrics != nil {
		metrics.ObserveTransition(action, outcome)
	}
}
