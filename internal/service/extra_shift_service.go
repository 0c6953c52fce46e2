package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type extraShiftRepository interface {
	Create(ctx context.Context, entry *models.ExtraShiftEntry) error
	GetByID(ctx context.Context, id string) (*models.ExtraShiftEntry, error)
	List(ctx context.Context, filter models.ExtraShiftFilter) ([]models.ExtraShiftEntry, int, error)
	MarkPaid(ctx context.Context, id, payrollBatchID string) error
	VoidUnpaid(ctx context.Context, postID string, date time.Time) (int64, error)
}

type postReader interface {
	GetByID(ctx context.Context, id string) (*models.OperationalPost, error)
}

// ExtraShiftService owns the billing ledger for ad-hoc coverage shifts.
// Entries are append-only; undoing a covered absence voids the unpaid
// entry rather than deleting it.
type ExtraShiftService struct {
	repo      extraShiftRepository
	posts     postReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExtraShiftService constructs the ledger service.
func NewExtraShiftService(repo extraShiftRepository, posts postReader, validate *validator.Validate, logger *zap.Logger) *ExtraShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtraShiftService{repo: repo, posts: posts, validator: validate, logger: logger}
}

// RecordExtraShiftRequest describes one billable coverage event. TitleHolderID
// names the absent guard being replaced; when omitted it falls back to the
// post's current guard, which may differ if the post was reassigned after
// the absence.
type RecordExtraShiftRequest struct {
	PostID          string          `json:"post_id" validate:"required"`
	Date            string          `json:"date" validate:"required"`
	Origin          string          `json:"origin" validate:"required,oneof=vacancy-fill replacement"`
	TitleHolderID   *string         `json:"title_holder_id"`
	CoverageGuardID string          `json:"coverage_guard_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
}

// ExtraShiftListRequest filters ledger listings.
type ExtraShiftListRequest struct {
	InstallationID string     `json:"installation_id"`
	PostID         string     `json:"post_id"`
	DateFrom       *time.Time `json:"date_from"`
	DateTo         *time.Time `json:"date_to"`
	Paid           *bool      `json:"paid"`
	IncludeVoided  bool       `json:"include_voided"`
	Page           int        `json:"page"`
	PageSize       int        `json:"page_size"`
}

// Record appends a ledger entry. Installation and role context are
// denormalized from the post at write time so payroll reads need no joins.
func (s *ExtraShiftService) Record(ctx context.Context, actor string, req RecordExtraShiftRequest) (*models.ExtraShiftEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extra shift payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	if req.Amount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must not be negative")
	}

	post, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	titleHolder := post.GuardID
	if req.TitleHolderID != nil && *req.TitleHolderID != "" {
		titleHolder = req.TitleHolderID
	}

	origin := models.ExtraShiftOrigin(req.Origin)
	switch origin {
	case models.OriginVacancyFill:
		if !post.Vacant {
			return nil, appErrors.Clone(appErrors.ErrValidation, "post has a title holder; use origin replacement")
		}
	case models.OriginReplacement:
		if titleHolder == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "replacement requires a title holder")
		}
	}

	entry := &models.ExtraShiftEntry{
		Date:            date,
		InstallationID:  post.InstallationID,
		PostID:          post.ID,
		RoleID:          post.RoleID,
		Origin:          origin,
		TitleHolderID:   titleHolder,
		CoverageGuardID: req.CoverageGuardID,
		Amount:          req.Amount,
		CreatedBy:       actor,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEntry):
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "an extra shift is already recorded for this post and date")
		case errors.Is(err, repository.ErrForeignKey):
			return nil, appErrors.Clone(appErrors.ErrValidation, "referenced post or guard does not exist")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record extra shift")
		}
	}
	s.logger.Info("extra shift recorded",
		zap.String("entry_id", entry.ID),
		zap.String("post_id", entry.PostID),
		zap.String("origin", string(entry.Origin)),
		zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// Get loads one ledger entry.
func (s *ExtraShiftService) Get(ctx context.Context, id string) (*models.ExtraShiftEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "extra shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extra shift")
	}
	return entry, nil
}

// List returns paginated ledger entries. Voided entries stay hidden unless
// explicitly requested.
func (s *ExtraShiftService) List(ctx context.Context, req ExtraShiftListRequest) ([]models.ExtraShiftEntry, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.ExtraShiftFilter{
		InstallationID: req.InstallationID,
		PostID:         req.PostID,
		DateFrom:       req.DateFrom,
		DateTo:         req.DateTo,
		Paid:           req.Paid,
		IncludeVoided:  req.IncludeVoided,
		Page:           page,
		PageSize:       size,
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list extra shifts")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}

// MarkPaid folds an entry into a payroll batch. Paying twice or paying a
// voided entry is a conflict.
func (s *ExtraShiftService) MarkPaid(ctx context.Context, id, payrollBatchID string) error {
	if payrollBatchID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "payroll_batch_id is required")
	}
	if err := s.repo.MarkPaid(ctx, id, payrollBatchID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "extra shift not found")
		case errors.Is(err, repository.ErrAlreadyPaid):
			return appErrors.Clone(appErrors.ErrConflict, "extra shift is already paid")
		case errors.Is(err, repository.ErrEntryVoided):
			return appErrors.Clone(appErrors.ErrConflict, "extra shift was voided")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark extra shift paid")
		}
	}
	s.logger.Info("extra shift paid", zap.String("entry_id", id), zap.String("payroll_batch_id", payrollBatchID))
	return nil
}

// VoidUnpaid cancels the live unpaid entry for a post/day, if one exists.
// Paid entries are left alone so payroll history stays intact.
func (s *ExtraShiftService) VoidUnpaid(ctx context.Context, postID string, date time.Time) (bool, error) {
	count, err := s.repo.VoidUnpaid(ctx, postID, date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to void extra shift")
	}
	if count > 0 {
		s.logger.Info("extra shift voided",
			zap.String("post_id", postID),
			zap.String("date", date.Format("2006-01-02")))
	}
	return count > 0, nil
}
