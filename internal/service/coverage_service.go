package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

// CoverageService decides the outcome of an absence: a replacement guard
// steps in or the post stays uncovered for the day. Only absent entries can
// be resolved.
type CoverageService struct {
	store     shiftPlanStore
	metrics   transitionObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoverageService constructs the coverage resolver.
func NewCoverageService(store shiftPlanStore, metrics transitionObserver, validate *validator.Validate, logger *zap.Logger) *CoverageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverageService{store: store, metrics: metrics, validator: validate, logger: logger}
}

// ResolveCoverageRequest describes the resolution of one absence. Covered
// states the intent explicitly: a covered absence names its replacement
// guard, an uncovered one does not.
type ResolveCoverageRequest struct {
	ShiftPlanID     int64   `json:"shift_plan_id" validate:"required"`
	Covered         bool    `json:"covered"`
	CoverageGuardID *string `json:"coverage_guard_id"`
	WithNotice      *bool   `json:"with_notice"`
	Reason          *string `json:"reason"`
	Comment         *string `json:"comment"`
}

// Resolve transitions an absent entry to replaced or uncovered.
func (s *CoverageService) Resolve(ctx context.Context, actor string, req ResolveCoverageRequest) (*models.ShiftPlanEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage payload")
	}

	toState := models.StateUncovered
	merge := models.Metadata{}
	if req.Covered {
		if req.CoverageGuardID == nil || *req.CoverageGuardID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "coverage_guard_id is required when covered is true")
		}
		toState = models.StateReplaced
		merge[models.MetaCoverageGuard] = *req.CoverageGuardID
		if req.WithNotice != nil {
			merge[models.MetaWithNotice] = fmt.Sprintf("%t", *req.WithNotice)
		}
	} else if req.CoverageGuardID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coverage_guard_id must be omitted when covered is false")
	}
	if req.Reason != nil && *req.Reason != "" {
		merge[models.MetaReason] = *req.Reason
	}
	if req.Comment != nil && *req.Comment != "" {
		merge[models.MetaComment] = *req.Comment
	}

	entry, _, err := s.store.Transition(ctx, repository.TransitionParams{
		ShiftPlanID: req.ShiftPlanID,
		Actor:       actor,
		Action:      models.AuditActionResolveCoverage,
		FromStates:  []models.ShiftState{models.StateAbsent},
		ToState:     toState,
		MergeMeta:   merge,
	})
	if err != nil {
		return nil, mapTransitionError(s.metrics, err, models.AuditActionResolveCoverage)
	}
	observeTransition(s.metrics, models.AuditActionResolveCoverage, "success")
	s.logger.Info("coverage resolved",
		zap.Int64("shift_plan_id", entry.ID),
		zap.String("state", string(entry.State)),
		zap.String("actor", actor))
	return entry, nil
}

