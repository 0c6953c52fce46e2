package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Cryptobal/gardops-api/internal/models"
)

// AuditRepository reads the shift_audit trail. Writes happen exclusively
// inside ShiftPlanRepository.Transition so that every audit row commits with
// the state change it records; no update or delete path exists.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, shift_plan_id, actor, action, before_state, after_state, created_at`

// ListByShiftPlan returns the full transition history of one entry, oldest
// first.
func (r *AuditRepository) ListByShiftPlan(ctx context.Context, shiftPlanID int64) ([]models.ShiftAuditEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_audit WHERE shift_plan_id = $1 ORDER BY created_at ASC`, auditColumns)
	var entries []models.ShiftAuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, shiftPlanID); err != nil {
		return nil, fmt.Errorf("list shift audit: %w", err)
	}
	return entries, nil
}

// ListByActor returns audit rows for compliance review, newest first.
func (r *AuditRepository) ListByActor(ctx context.Context, filter models.AuditFilter) ([]models.ShiftAuditEntry, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Actor != "" {
		where = append(where, fmt.Sprintf("actor = $%d", len(args)+1))
		args = append(args, filter.Actor)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM shift_audit WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		auditColumns, whereClause, size, offset)
	var entries []models.ShiftAuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit by actor: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shift_audit WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit rows: %w", err)
	}
	return entries, total, nil
}
