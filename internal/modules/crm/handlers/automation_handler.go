package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tracklane/tracklane-be/internal/core/automation"
	"github.com/tracklane/tracklane-be/internal/modules/crm/services"
)

// AutomationHandler handles automation-related requests
type AutomationHandler struct {
	automationService  *services.AutomationService
	timeTriggerService *services.TimeTriggerService
	timeTriggerLimit   int
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(automationService *services.AutomationService, timeTriggerService *services.TimeTriggerService, timeTriggerLimit int) *AutomationHandler {
	return &AutomationHandler{
		automationService:  automationService,
		timeTriggerService: timeTriggerService,
		timeTriggerLimit:   timeTriggerLimit,
	}
}

// RegisterRoutes mounts automation endpoints on the router
func (h *AutomationHandler) RegisterRoutes(api fiber.Router) {
	api.Post("/events", h.IngestEvent)
	api.Post("/time-triggers/run", h.RunTimeTriggers)

	project := api.Group("/projects/:projectId")
	project.Post("/automations", h.CreateAutomation)
	project.Get("/automations", h.ListAutomations)
	project.Get("/automations/:id", h.GetAutomation)
	project.Put("/automations/:id", h.UpdateAutomation)
	project.Delete("/automations/:id", h.DeleteAutomation)
	project.Get("/automations/:id/executions", h.GetExecutions)
	project.Post("/automations/:id/dry-run", h.DryRun)
}

// IngestEvent godoc
// @Summary Ingest a domain event
// @Description Hand an entity-change event to the automation engine (fire-and-forget)
// @Tags Automations
// @Accept json
// @Produce json
// @Param event body automation.Event true "Event"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /events [post]
func (h *AutomationHandler) IngestEvent(c *fiber.Ctx) error {
	var event automation.Event
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if event.ProjectID == uuid.Nil || event.TriggerType == "" || event.EntityID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project_id, trigger_type and entity_id are required",
		})
	}
	if automation.EntityTable(event.EntityType) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid entity_type",
		})
	}

	// Fire-and-forget: the caller never waits for automation processing
	h.automationService.HandleEvent(event)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "accepted",
		"message": "Event queued for processing",
	})
}

// RunTimeTriggers godoc
// @Summary Run the time-trigger poll
// @Description Check all active time-based automations and dispatch synthetic events for new matches
// @Tags Automations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /time-triggers/run [post]
func (h *AutomationHandler) RunTimeTriggers(c *fiber.Ctx) error {
	result, err := h.timeTriggerService.ProcessTimeTriggers(c.Context(), h.timeTriggerLimit)
	if err != nil {
		log.Printf("❌ Time-trigger run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "time-trigger run failed",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   result,
	})
}

// CreateAutomation godoc
// @Summary Create a new automation
// @Description Create an automation rule for a project
// @Tags Automations
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param automation body automation.CreateAutomationRequest true "Automation details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /projects/{projectId}/automations [post]
func (h *AutomationHandler) CreateAutomation(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid project id",
		})
	}

	var req automation.CreateAutomationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}
	if req.TriggerType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "trigger_type is required",
		})
	}
	if len(req.Actions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one action is required",
		})
	}

	created, err := h.automationService.CreateAutomation(projectID, req)
	if err != nil {
		log.Printf("❌ Failed to create automation: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Automation created successfully",
		"data":    created,
	})
}

// ListAutomations godoc
// @Summary List automations for a project
// @Tags Automations
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /projects/{projectId}/automations [get]
func (h *AutomationHandler) ListAutomations(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid project id",
		})
	}

	automations, err := h.automationService.ListAutomations(projectID)
	if err != nil {
		log.Printf("❌ Failed to list automations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list automations",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   automations,
	})
}

// GetAutomation godoc
// @Summary Get an automation
// @Tags Automations
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Automation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/automations/{id} [get]
func (h *AutomationHandler) GetAutomation(c *fiber.Ctx) error {
	projectID, automationID, err := parseScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	found, err := h.automationService.GetAutomation(automationID, projectID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "automation not found",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   found,
	})
}

// UpdateAutomation godoc
// @Summary Update an automation
// @Tags Automations
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Automation ID"
// @Param automation body automation.UpdateAutomationRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/automations/{id} [put]
func (h *AutomationHandler) UpdateAutomation(c *fiber.Ctx) error {
	projectID, automationID, err := parseScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var req automation.UpdateAutomationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	updated, err := h.automationService.UpdateAutomation(automationID, projectID, req)
	if err != nil {
		log.Printf("❌ Failed to update automation: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Automation updated successfully",
		"data":    updated,
	})
}

// DeleteAutomation godoc
// @Summary Delete an automation
// @Tags Automations
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Automation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/automations/{id} [delete]
func (h *AutomationHandler) DeleteAutomation(c *fiber.Ctx) error {
	projectID, automationID, err := parseScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.automationService.DeleteAutomation(automationID, projectID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "automation not found",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Automation deleted successfully",
	})
}

// GetExecutions godoc
// @Summary List execution history for an automation
// @Tags Automations
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Automation ID"
// @Param limit query int false "Max rows" default(50)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/automations/{id}/executions [get]
func (h *AutomationHandler) GetExecutions(c *fiber.Ctx) error {
	projectID, automationID, err := parseScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	executions, err := h.automationService.GetExecutions(automationID, projectID, limit)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "automation not found",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   executions,
	})
}

// DryRun godoc
// @Summary Preview an automation against a live entity
// @Description Evaluate the automation's conditions against the current entity row without executing any action
// @Tags Automations
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param id path string true "Automation ID"
// @Param target body object true "Entity reference {entity_type, entity_id}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{projectId}/automations/{id}/dry-run [post]
func (h *AutomationHandler) DryRun(c *fiber.Ctx) error {
	projectID, automationID, err := parseScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var body struct {
		EntityType string    `json:"entity_type"`
		EntityID   uuid.UUID `json:"entity_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if body.EntityType == "" || body.EntityID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "entity_type and entity_id are required",
		})
	}

	result, err := h.automationService.DryRun(automationID, projectID, body.EntityType, body.EntityID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   result,
	})
}

func parseScope(c *fiber.Ctx) (projectID, automationID uuid.UUID, err error) {
	projectID, err = uuid.Parse(c.Params("projectId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}
	automationID, err = uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid automation id")
	}
	return projectID, automationID, nil
}
