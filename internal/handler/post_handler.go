package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Cryptobal/gardops-api/internal/service"
	appErrors "github.com/Cryptobal/gardops-api/pkg/errors"
	"github.com/Cryptobal/gardops-api/pkg/response"
)

// PostHandler exposes the operational post registry.
type PostHandler struct {
	posts    *service.PostService
	schedule *service.ScheduleService
}

// NewPostHandler constructs the handler.
func NewPostHandler(posts *service.PostService, schedule *service.ScheduleService) *PostHandler {
	return &PostHandler{posts: posts, schedule: schedule}
}

// Create godoc
// @Summary Register an operational post
// @Tags Puestos
// @Accept json
// @Produce json
// @Param payload body service.CreatePostRequest true "Post definition"
// @Success 201 {object} response.Envelope
// @Router /puestos [post]
func (h *PostHandler) Create(c *gin.Context) {
	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	post, err := h.posts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Get godoc
// @Summary Fetch one post
// @Tags Puestos
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /puestos/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// List godoc
// @Summary List posts
// @Tags Puestos
// @Produce json
// @Param installationId query string false "Installation ID"
// @Param vacant query bool false "Only vacant posts"
// @Success 200 {object} response.Envelope
// @Router /puestos [get]
func (h *PostHandler) List(c *gin.Context) {
	req := service.PostListRequest{
		InstallationID: c.Query("installationId"),
		RoleID:         c.Query("roleId"),
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "pageSize"),
		SortBy:         c.Query("sortBy"),
		SortOrder:      c.Query("sortOrder"),
	}
	if raw := c.Query("vacant"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vacant must be a boolean"))
			return
		}
		req.Vacant = &value
	}
	if raw := c.Query("active"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		req.Active = &value
	}
	posts, pagination, err := h.posts.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, pagination)
}

type assignGuardRequest struct {
	GuardID string `json:"guard_id"`
}

// Assign godoc
// @Summary Assign a standing guard to a post
// @Tags Puestos
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /puestos/{id}/asignar [put]
func (h *PostHandler) Assign(c *gin.Context) {
	var req assignGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	if err := h.posts.AssignGuard(c.Request.Context(), c.Param("id"), req.GuardID); err != nil {
		response.Error(c, err)
		return
	}
	h.schedule.InvalidateAll(c.Request.Context())
	response.JSON(c, http.StatusOK, gin.H{"status": "assigned"}, nil)
}

// Vacate godoc
// @Summary Remove the standing guard, turning the post into a PPC
// @Tags Puestos
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /puestos/{id}/vacar [put]
func (h *PostHandler) Vacate(c *gin.Context) {
	if err := h.posts.Vacate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.schedule.InvalidateAll(c.Request.Context())
	response.JSON(c, http.StatusOK, gin.H{"status": "vacated"}, nil)
}

// Deactivate godoc
// @Summary Soft delete a post
// @Tags Puestos
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Router /puestos/{id} [delete]
func (h *PostHandler) Deactivate(c *gin.Context) {
	if err := h.posts.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListVacant godoc
// @Summary List vacant posts of an installation
// @Tags Puestos
// @Produce json
// @Param id path string true "Installation ID"
// @Success 200 {object} response.Envelope
// @Router /instalaciones/{id}/puestos/vacantes [get]
func (h *PostHandler) ListVacant(c *gin.Context) {
	posts, err := h.posts.ListVacant(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
