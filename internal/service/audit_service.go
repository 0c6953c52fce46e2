package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type auditRepository interface {
	ListByShiftPlan(ctx context.Context, shiftPlanID int64) ([]models.ShiftAuditEntry, error)
	ListByActor(ctx context.Context, filter models.AuditFilter) ([]models.ShiftAuditEntry, int, error)
}

// AuditService exposes read access to the transition audit trail.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// History returns the full transition history of one entry, oldest first.
func (s *AuditService) History(ctx context.Context, shiftPlanID int64) ([]models.ShiftAuditEntry, error) {
	entries, err := s.repo.ListByShiftPlan(ctx, shiftPlanID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit history")
	}
	return entries, nil
}

// AuditListRequest filters compliance-review queries.
type AuditListRequest struct {
	Actor    string     `json:"actor"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// List returns audit rows matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, req AuditListRequest) ([]models.ShiftAuditEntry, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 100
	}
	filter := models.AuditFilter{
		Actor:    req.Actor,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Page:     page,
		PageSize: size,
	}
	entries, total, err := s.repo.ListByActor(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}
