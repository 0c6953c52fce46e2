package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Cryptobal/gardops-api/internal/models"
)

// PostRepository handles persistence for operational posts. It is the only
// component that writes to the operational_posts table.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository constructs the repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, installation_id, role_id, name, vacant, guard_id, active, created_at, updated_at`

// Create inserts a new post. A post created without a guard starts vacant.
func (r *PostRepository) Create(ctx context.Context, post *models.OperationalPost) error {
	now := time.Now().UTC()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.Vacant = post.GuardID == nil
	post.Active = true
	post.CreatedAt = now
	post.UpdatedAt = now
	const query = `INSERT INTO operational_posts (id, installation_id, role_id, name, vacant, guard_id, active, created_at, updated_at)
VALUES (:id, :installation_id, :role_id, :name, :vacant, :guard_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetByID fetches a post by identifier.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.OperationalPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM operational_posts WHERE id = $1`, postColumns)
	var post models.OperationalPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts matching the provided filter.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.OperationalPost, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.InstallationID != "" {
		where = append(where, fmt.Sprintf("installation_id = $%d", len(args)+1))
		args = append(args, filter.InstallationID)
	}
	if filter.RoleID != "" {
		where = append(where, fmt.Sprintf("role_id = $%d", len(args)+1))
		args = append(args, filter.RoleID)
	}
	if filter.Vacant != nil {
		where = append(where, fmt.Sprintf("vacant = $%d", len(args)+1))
		args = append(args, *filter.Vacant)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	sortColumn := "name"
	if filter.SortBy == "created_at" {
		sortColumn = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM operational_posts WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		postColumns, whereClause, sortColumn, order, size, offset)
	var posts []models.OperationalPost
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM operational_posts WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return posts, total, nil
}

// Assign sets the standing guard of a post. Guard reference and vacant flag
// always change together in one statement, keeping the vacancy invariant.
func (r *PostRepository) Assign(ctx context.Context, postID, guardID string) error {
	const query = `UPDATE operational_posts SET guard_id = $2, vacant = false, updated_at = $3 WHERE id = $1`
	return r.execOnPost(ctx, query, postID, guardID, time.Now().UTC())
}

// Vacate clears the standing guard, turning the post into a PPC. Shift-plan
// rows are untouched: vacancy is a standing-assignment concept, not a
// day-level attendance event.
func (r *PostRepository) Vacate(ctx context.Context, postID string) error {
	const query = `UPDATE operational_posts SET guard_id = NULL, vacant = true, updated_at = $2 WHERE id = $1`
	return r.execOnPost(ctx, query, postID, time.Now().UTC())
}

// Deactivate soft-deletes a post.
func (r *PostRepository) Deactivate(ctx context.Context, postID string) error {
	const query = `UPDATE operational_posts SET active = false, updated_at = $2 WHERE id = $1`
	return r.execOnPost(ctx, query, postID, time.Now().UTC())
}

// ListVacant returns the active vacant posts of an installation, driving
// fill-the-gap workflows.
func (r *PostRepository) ListVacant(ctx context.Context, installationID string) ([]models.OperationalPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM operational_posts WHERE installation_id = $1 AND vacant = true AND active = true ORDER BY name`, postColumns)
	var posts []models.OperationalPost
	if err := r.db.SelectContext(ctx, &posts, query, installationID); err != nil {
		return nil, fmt.Errorf("list vacant posts: %w", err)
	}
	return posts, nil
}

// ListActiveByInstallation returns the active posts used for roster generation.
func (r *PostRepository) ListActiveByInstallation(ctx context.Context, installationID string) ([]models.OperationalPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM operational_posts WHERE installation_id = $1 AND active = true ORDER BY name`, postColumns)
	var posts []models.OperationalPost
	if err := r.db.SelectContext(ctx, &posts, query, installationID); err != nil {
		return nil, fmt.Errorf("list installation posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) execOnPost(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check post update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
