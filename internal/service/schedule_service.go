package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type rosterStore interface {
	BulkInsert(ctx context.Context, entries []models.ShiftPlanEntry) (int, error)
	MonthRows(ctx context.Context, installationID string, year, month int) ([]models.RosterRow, error)
}

type activePostLister interface {
	ListActiveByInstallation(ctx context.Context, installationID string) ([]models.OperationalPost, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService generates and serves the monthly roster ("pauta") of an
// installation. Month views are cached; any write to the month evicts it.
type ScheduleService struct {
	store     rosterStore
	posts     activePostLister
	cache     rosterCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(store rosterStore, posts activePostLister, cache rosterCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{store: store, posts: posts, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// GenerateMonthRequest describes one roster generation run.
type GenerateMonthRequest struct {
	InstallationID string `json:"installation_id" validate:"required"`
	Year           int    `json:"year" validate:"required,min=2000,max=2100"`
	Month          int    `json:"month" validate:"required,min=1,max=12"`
}

// GenerateMonthResult summarises a generation run.
type GenerateMonthResult struct {
	Posts    int `json:"posts"`
	Days     int `json:"days"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// MonthView is the cached roster of one installation month.
type MonthView struct {
	InstallationID string             `json:"installation_id"`
	Year           int                `json:"year"`
	Month          int                `json:"month"`
	Rows           []models.RosterRow `json:"rows"`
}

// GenerateMonth creates planned entries for every active post and day of the
// month. Days that already carry an entry are left untouched, so the
// operation is safe to repeat after adding posts mid-month.
func (s *ScheduleService) GenerateMonth(ctx context.Context, req GenerateMonthRequest) (*GenerateMonthResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	posts, err := s.posts.ListActiveByInstallation(ctx, req.InstallationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list installation posts")
	}
	if len(posts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installation has no active posts")
	}

	days := daysInMonth(req.Year, req.Month)
	entries := make([]models.ShiftPlanEntry, 0, len(posts)*days)
	for _, post := range posts {
		for day := 1; day <= days; day++ {
			entries = append(entries, models.ShiftPlanEntry{
				PostID:  post.ID,
				GuardID: post.GuardID,
				Year:    req.Year,
				Month:   req.Month,
				Day:     day,
			})
		}
	}

	start := time.Now()
	inserted, err := s.store.BulkInsert(ctx, entries)
	s.metrics.ObserveDBQuery("roster_bulk_insert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate roster")
	}

	s.InvalidateMonth(ctx, req.InstallationID, req.Year, req.Month)
	s.logger.Info("roster generated",
		zap.String("installation_id", req.InstallationID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(entries)-inserted))
	return &GenerateMonthResult{
		Posts:    len(posts),
		Days:     days,
		Inserted: inserted,
		Skipped:  len(entries) - inserted,
	}, nil
}

// Month returns the roster view for one installation month.
func (s *ScheduleService) Month(ctx context.Context, installationID string, year, month int) (*MonthView, error) {
	if installationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installation id is required")
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	key := rosterCacheKey(installationID, year, month)
	if s.cache != nil {
		var cached MonthView
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("roster cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	start := time.Now()
	rows, err := s.store.MonthRows(ctx, installationID, year, month)
	s.metrics.ObserveDBQuery("roster_month_rows", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	view := &MonthView{InstallationID: installationID, Year: year, Month: month, Rows: rows}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return view, nil
}

// InvalidateMonth evicts the cached view of one installation month. Eviction
// failures are logged and swallowed; the TTL bounds staleness either way.
func (s *ScheduleService) InvalidateMonth(ctx context.Context, installationID string, year, month int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, rosterCacheKey(installationID, year, month)); err != nil {
		s.logger.Warn("roster cache eviction failed",
			zap.String("installation_id", installationID),
			zap.Error(err))
	}
}

// InvalidatePeriod evicts cached views of one month across installations.
// Used by attendance writes, which know the entry's month but not its
// installation.
func (s *ScheduleService) InvalidatePeriod(ctx context.Context, year, month int) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("roster:*:%04d-%02d", year, month)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("roster cache eviction failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// InvalidateAll evicts every cached roster view. Used when a write cannot be
// scoped to a single month, such as post reassignment.
func (s *ScheduleService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
		s.logger.Warn("roster cache flush failed", zap.Error(err))
	}
}

func rosterCacheKey(installationID string, year, month int) string {
	return fmt.Sprintf("roster:%s:%04d-%02d", installationID, year, month)
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
