package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Cryptobal/gardops-api/internal/models"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
)

type postRepository interface {
	Create(ctx context.Context, post *models.OperationalPost) error
	GetByID(ctx context.Context, id string) (*models.OperationalPost, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.OperationalPost, int, error)
	Assign(ctx context.Context, postID, guardID string) error
	Vacate(ctx context.Context, postID string) error
	Deactivate(ctx context.Context, postID string) error
	ListVacant(ctx context.Context, installationID string) ([]models.OperationalPost, error)
}

// PostService manages the registry of operational posts.
type PostService struct {
	repo      postRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService constructs the post service.
func NewPostService(repo postRepository, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, validator: validate, logger: logger}
}

// CreatePostRequest describes the payload for registering a post.
type CreatePostRequest struct {
	InstallationID string  `json:"installation_id" validate:"required"`
	RoleID         string  `json:"role_id" validate:"required"`
	Name           string  `json:"name" validate:"required,max=120"`
	GuardID        *string `json:"guard_id"`
}

// PostListRequest describes filters for listing posts.
type PostListRequest struct {
	InstallationID string `json:"installation_id"`
	RoleID         string `json:"role_id"`
	Vacant         *bool  `json:"vacant"`
	Active         *bool  `json:"active"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
	SortBy         string `json:"sort_by"`
	SortOrder      string `json:"sort_order"`
}

// Create registers a new operational post. Without a guard the post starts
// as a PPC.
func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (*models.OperationalPost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	if req.GuardID != nil && *req.GuardID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "guard_id must not be empty when provided")
	}
	post := &models.OperationalPost{
		InstallationID: req.InstallationID,
		RoleID:         req.RoleID,
		Name:           req.Name,
		GuardID:        req.GuardID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	s.logger.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("installation_id", post.InstallationID),
		zap.Bool("vacant", post.Vacant))
	return post, nil
}

// Get fetches one post.
func (s *PostService) Get(ctx context.Context, id string) (*models.OperationalPost, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	return post, nil
}

// List returns paginated posts.
func (s *PostService) List(ctx context.Context, req PostListRequest) ([]models.OperationalPost, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.PostFilter{
		InstallationID: req.InstallationID,
		RoleID:         req.RoleID,
		Vacant:         req.Vacant,
		Active:         req.Active,
		Page:           page,
		PageSize:       size,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return posts, pagination, nil
}

// AssignGuard sets the standing title holder of a post.
func (s *PostService) AssignGuard(ctx context.Context, postID, guardID string) error {
	if guardID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "guard_id is required")
	}
	if err := s.repo.Assign(ctx, postID, guardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign guard")
	}
	s.logger.Info("guard assigned", zap.String("post_id", postID), zap.String("guard_id", guardID))
	return nil
}

// Vacate removes the standing guard, flipping the post to PPC. Existing
// roster entries keep whatever state they are in.
func (s *PostService) Vacate(ctx context.Context, postID string) error {
	if err := s.repo.Vacate(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to vacate post")
	}
	s.logger.Info("post vacated", zap.String("post_id", postID))
	return nil
}

// Deactivate soft-deletes a post.
func (s *PostService) Deactivate(ctx context.Context, postID string) error {
	if err := s.repo.Deactivate(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate post")
	}
	return nil
}

// ListVacant returns active PPC posts of an installation.
func (s *PostService) ListVacant(ctx context.Context, installationID string) ([]models.OperationalPost, error) {
	if installationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installation id is required")
	}
	posts, err := s.repo.ListVacant(ctx, installationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vacant posts")
	}
	return posts, nil
}
