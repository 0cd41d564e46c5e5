package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/core/jobs"
)

// JobStore is the queue surface the admin endpoints need.
type JobStore interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*jobs.Job, error)
	ListJobs(ctx context.Context, filter jobs.JobFilter) ([]jobs.Job, error)
	Cancel(ctx context.Context, jobID uuid.UUID) error
}

// JobHandler exposes read-and-cancel admin access to the background job queue
type JobHandler struct {
	store JobStore
}

// NewJobHandler creates a new job handler
func NewJobHandler(store JobStore) *JobHandler {
	return &JobHandler{store: store}
}

// RegisterRoutes mounts job admin endpoints on the router
func (h *JobHandler) RegisterRoutes(api fiber.Router) {
	project := api.Group("/projects/:projectId/jobs")
	project.Get("/", h.ListJobs)
	project.Get("/:id", h.GetJob)
	project.Post("/:id/cancel", h.CancelJob)
}

// ListJobs godoc
// @Summary List background jobs
// @Description List a project's background jobs, optionally filtered by status or type
// @Tags Jobs
// @Produce json
// @Param projectId path string true "Project ID"
// @Param status query string false "Job status filter"
// @Param type query string false "Job type filter"
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /projects/{projectId}/jobs [get]
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid project id",
		})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	list, err := h.store.ListJobs(c.Context(), jobs.JobFilter{
		ProjectID: &projectID,
		Type:      c.Query("type"),
		Status:    jobs.JobStatus(c.Query("status")),
		Limit:     limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list jobs",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   list,
	})
}

// GetJob godoc
// @Summary Get a background job
// @Description Retrieve one background job by ID
// @Tags Jobs
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/jobs/{id} [get]
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	projectID, jobID, ok := h.parseScope(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	job, err := h.fetchScoped(c.Context(), projectID, jobID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   job,
	})
}

// CancelJob godoc
// @Summary Cancel a background job
// @Description Cancel a pending or retrying background job
// @Tags Jobs
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /projects/{projectId}/jobs/{id}/cancel [post]
func (h *JobHandler) CancelJob(c *fiber.Ctx) error {
	projectID, jobID, ok := h.parseScope(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	if _, err := h.fetchScoped(c.Context(), projectID, jobID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
		})
	}

	if err := h.store.Cancel(c.Context(), jobID); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "job is not in a cancellable state",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Job cancelled",
	})
}

func (h *JobHandler) parseScope(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, jobID, true
}

// fetchScoped loads a job and enforces the project scope; a job belonging to
// another project is indistinguishable from a missing one.
func (h *JobHandler) fetchScoped(ctx context.Context, projectID, jobID uuid.UUID) (*jobs.Job, error) {
	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ProjectID != projectID {
		return nil, gorm.ErrRecordNotFound
	}
	return job, nil
}
