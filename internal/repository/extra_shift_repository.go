package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Cryptobal/gardops-api/internal/models"
)

// Sentinel errors surfaced by the ledger repository. The partial unique
// index on (post_id, date) WHERE voided_at IS NULL is the authority on
// duplicates, so racing inserts cannot both land.
var (
	ErrDuplicateEntry = errors.New("extra shift already recorded for post and date")
	ErrForeignKey     = errors.New("referenced entity does not exist")
	ErrAlreadyPaid    = errors.New("extra shift already paid")
	ErrEntryVoided    = errors.New("extra shift entry voided")
)

const pqUniqueViolation = "23505"
const pqForeignKeyViolation = "23503"

// ExtraShiftRepository owns the extra_shifts ledger table.
type ExtraShiftRepository struct {
	db *sqlx.DB
}

// NewExtraShiftRepository constructs the repository.
func NewExtraShiftRepository(db *sqlx.DB) *ExtraShiftRepository {
	return &ExtraShiftRepository{db: db}
}

const extraShiftColumns = `id, date, installation_id, post_id, role_id, origin, title_holder_id, coverage_guard_id, amount, paid, payroll_batch_id, voided_at, created_by, created_at`

// Create appends a ledger entry. Duplicates for the same (post, date) are
// rejected by the database, never merged.
func (r *ExtraShiftRepository) Create(ctx context.Context, entry *models.ExtraShiftEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO extra_shifts (id, date, installation_id, post_id, role_id, origin, title_holder_id, coverage_guard_id, amount, paid, payroll_batch_id, voided_at, created_by, created_at)
VALUES (:id, :date, :installation_id, :post_id, :role_id, :origin, :title_holder_id, :coverage_guard_id, :amount, :paid, :payroll_batch_id, :voided_at, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqUniqueViolation:
				return ErrDuplicateEntry
			case pqForeignKeyViolation:
				return ErrForeignKey
			}
		}
		return fmt.Errorf("create extra shift: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry.
func (r *ExtraShiftRepository) GetByID(ctx context.Context, id string) (*models.ExtraShiftEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM extra_shifts WHERE id = $1`, extraShiftColumns)
	var entry models.ExtraShiftEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetLiveByPostAndDate returns the non-voided entry for a post/day, if any.
func (r *ExtraShiftRepository) GetLiveByPostAndDate(ctx context.Context, postID string, date time.Time) (*models.ExtraShiftEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM extra_shifts WHERE post_id = $1 AND date = $2 AND voided_at IS NULL`, extraShiftColumns)
	var entry models.ExtraShiftEntry
	if err := r.db.GetContext(ctx, &entry, query, postID, date); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns ledger entries matching the filter.
func (r *ExtraShiftRepository) List(ctx context.Context, filter models.ExtraShiftFilter) ([]models.ExtraShiftEntry, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if !filter.IncludeVoided {
		where = append(where, "voided_at IS NULL")
	}
	if filter.InstallationID != "" {
		where = append(where, fmt.Sprintf("installation_id = $%d", len(args)+1))
		args = append(args, filter.InstallationID)
	}
	if filter.PostID != "" {
		where = append(where, fmt.Sprintf("post_id = $%d", len(args)+1))
		args = append(args, filter.PostID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Paid != nil {
		where = append(where, fmt.Sprintf("paid = $%d", len(args)+1))
		args = append(args, *filter.Paid)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM extra_shifts WHERE %s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d`,
		extraShiftColumns, whereClause, size, offset)
	var entries []models.ExtraShiftEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list extra shifts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM extra_shifts WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count extra shifts: %w", err)
	}
	return entries, total, nil
}

// MarkPaid folds an entry into a payroll batch. The paid flag only moves
// one way; a second call observes zero affected rows and reports why.
func (r *ExtraShiftRepository) MarkPaid(ctx context.Context, id, payrollBatchID string) error {
	const query = `UPDATE extra_shifts SET paid = true, payroll_batch_id = $2 WHERE id = $1 AND paid = false AND voided_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, payrollBatchID)
	if err != nil {
		return fmt.Errorf("mark extra shift paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check mark paid rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var row struct {
		Paid     bool       `db:"paid"`
		VoidedAt *time.Time `db:"voided_at"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT paid, voided_at FROM extra_shifts WHERE id = $1`, id); err != nil {
		return err
	}
	if row.VoidedAt != nil {
		return ErrEntryVoided
	}
	if row.Paid {
		return ErrAlreadyPaid
	}
	return sql.ErrNoRows
}

// VoidUnpaid stamps voided_at on the live unpaid entry for a post/day.
// Paid entries are never touched. Returns the number of voided rows.
func (r *ExtraShiftRepository) VoidUnpaid(ctx context.Context, postID string, date time.Time) (int64, error) {
	const query = `UPDATE extra_shifts SET voided_at = $3 WHERE post_id = $1 AND date = $2 AND paid = false AND voided_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, postID, date, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("void extra shift: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check void rows: %w", err)
	}
	return rows, nil
}
