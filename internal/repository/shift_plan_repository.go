package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Cryptobal/gardops-api/internal/models"
)

// StateConflictError reports a transition precondition mismatch together
// with the state actually observed under lock.
type StateConflictError struct {
	Current models.ShiftState
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("shift plan state conflict: current state is %q", e.Current)
}

// TransitionParams describes one atomic state change of a shift-plan entry.
type TransitionParams struct {
	ShiftPlanID int64
	Actor       string
	Action      string
	FromStates  []models.ShiftState
	ToState     models.ShiftState
	MergeMeta   models.Metadata
	ClearKeys   []string
}

// ShiftPlanRepository owns the shift_plan table. All state changes go through
// Transition, which locks the row, checks the precondition, applies the write
// and appends the audit entry in a single transaction, so two racing callers
// on the same entry cannot both succeed.
type ShiftPlanRepository struct {
	db *sqlx.DB
}

// NewShiftPlanRepository constructs the repository.
func NewShiftPlanRepository(db *sqlx.DB) *ShiftPlanRepository {
	return &ShiftPlanRepository{db: db}
}

const shiftPlanColumns = `id, post_id, guard_id, year, month, day, state, meta, observation, created_at, updated_at`

// GetByID fetches a shift-plan entry by its pauta id.
func (r *ShiftPlanRepository) GetByID(ctx context.Context, id int64) (*models.ShiftPlanEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM shift_plan WHERE id = $1`, shiftPlanColumns)
	var entry models.ShiftPlanEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Transition applies one state change atomically. The row is locked before
// the precondition check; metadata is merged so keys outside MergeMeta and
// ClearKeys are preserved. The second return value is the state observed
// under lock, the same one written to the audit row. Returns sql.ErrNoRows
// when the entry does not exist and *StateConflictError when the
// precondition fails.
func (r *ShiftPlanRepository) Transition(ctx context.Context, params TransitionParams) (*models.ShiftPlanEntry, models.ShiftState, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("begin shift transition: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM shift_plan WHERE id = $1 FOR UPDATE`, shiftPlanColumns)
	var current models.ShiftPlanEntry
	if err := tx.GetContext(ctx, &current, lockQuery, params.ShiftPlanID); err != nil {
		return nil, "", err
	}

	allowed := false
	for _, state := range params.FromStates {
		if current.State == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "", &StateConflictError{Current: current.State}
	}

	now := time.Now().UTC()
	merge := params.MergeMeta
	if merge == nil {
		merge = models.Metadata{}
	}
	clearKeys := params.ClearKeys
	if clearKeys == nil {
		clearKeys = []string{}
	}
	updateQuery := fmt.Sprintf(`UPDATE shift_plan
SET state = $2, meta = (meta - $3::text[]) || $4::jsonb, updated_at = $5
WHERE id = $1
RETURNING %s`, shiftPlanColumns)
	var updated models.ShiftPlanEntry
	if err := tx.QueryRowxContext(ctx, updateQuery, params.ShiftPlanID, params.ToState, pq.Array(clearKeys), merge, now).StructScan(&updated); err != nil {
		return nil, "", fmt.Errorf("apply shift transition: %w", err)
	}

	const auditQuery = `INSERT INTO shift_audit (id, shift_plan_id, actor, action, before_state, after_state, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, auditQuery, uuid.NewString(), params.ShiftPlanID, params.Actor, params.Action, current.State, params.ToState, now); err != nil {
		return nil, "", fmt.Errorf("append shift audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit shift transition: %w", err)
	}
	committed = true
	return &updated, current.State, nil
}

// SetDisplayStatus merges the cosmetic traffic-light tag into the metadata
// map. No precondition and no audit row: the tag is not part of the state
// machine.
func (r *ShiftPlanRepository) SetDisplayStatus(ctx context.Context, id int64, status string) error {
	const query = `UPDATE shift_plan SET meta = meta || $2::jsonb, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.Metadata{models.MetaDisplayStatus: status}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set display status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check display status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkInsert creates roster entries for a month, skipping days that already
// have one. Returns the number of rows actually inserted.
func (r *ShiftPlanRepository) BulkInsert(ctx context.Context, entries []models.ShiftPlanEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin roster insert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO shift_plan (post_id, guard_id, year, month, day, state, meta, observation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (post_id, year, month, day) DO NOTHING
RETURNING id`
	now := time.Now().UTC()
	inserted := 0
	for i := range entries {
		entry := &entries[i]
		if entry.State == "" {
			entry.State = models.StatePlanned
		}
		if entry.Meta == nil {
			entry.Meta = models.Metadata{}
		}
		var insertedID int64
		err := tx.QueryRowxContext(ctx, query, entry.PostID, entry.GuardID, entry.Year, entry.Month, entry.Day,
			entry.State, entry.Meta, entry.Observation, now, now).Scan(&insertedID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return 0, fmt.Errorf("insert roster entry: %w", err)
		}
		entry.ID = insertedID
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit roster insert: %w", err)
	}
	committed = true
	return inserted, nil
}

// MonthRows returns the roster of an installation for one month, joined with
// post context, ordered by post then day.
func (r *ShiftPlanRepository) MonthRows(ctx context.Context, installationID string, year, month int) ([]models.RosterRow, error) {
	const query = `SELECT sp.id, sp.post_id, sp.guard_id, sp.year, sp.month, sp.day, sp.state, sp.meta, sp.observation, sp.created_at, sp.updated_at,
       p.name AS post_name, p.installation_id, p.role_id, p.vacant AS post_vacant
FROM shift_plan sp
JOIN operational_posts p ON p.id = sp.post_id
WHERE p.installation_id = $1 AND sp.year = $2 AND sp.month = $3
ORDER BY p.name, sp.day`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, installationID, year, month); err != nil {
		return nil, fmt.Errorf("month roster: %w", err)
	}
	return rows, nil
}
