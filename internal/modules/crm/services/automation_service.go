package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tracklane/tracklane-be/internal/core/automation"
	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
	"github.com/tracklane/tracklane-be/internal/modules/crm/repositories"
)

// ActionRunner executes one action and always returns a result
type ActionRunner interface {
	Execute(ctx context.Context, action automation.Action, actx automation.ActionContext) automation.ActionResult
}

// AutomationService is the engine core: it owns definition CRUD, event
// dispatch, and the dry-run preview
type AutomationService struct {
	repo      repositories.AutomationRepo
	entities  repositories.EntityRepo
	evaluator *automation.ConditionEvaluator
	executor  ActionRunner
	guard     *automation.LoopGuard
}

// NewAutomationService creates a new automation service
func NewAutomationService(repo repositories.AutomationRepo, entities repositories.EntityRepo, executor ActionRunner, guard *automation.LoopGuard) *AutomationService {
	return &AutomationService{
		repo:      repo,
		entities:  entities,
		evaluator: automation.NewConditionEvaluator(),
		executor:  executor,
		guard:     guard,
	}
}

// CreateAutomation creates a new automation definition
func (s *AutomationService) CreateAutomation(projectID uuid.UUID, req automation.CreateAutomationRequest) (*models.Automation, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := automation.ValidateDefinition(req.TriggerType, req.TriggerConfig, req.Conditions, req.Actions); err != nil {
		return nil, err
	}

	triggerConfigJSON, err := json.Marshal(orEmptyMap(req.TriggerConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger config: %w", err)
	}
	conditionsJSON, err := json.Marshal(orEmptyConditions(req.Conditions))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	actionsJSON, err := json.Marshal(orEmptyActions(req.Actions))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	def := &models.Automation{
		ProjectID:     projectID,
		Name:          req.Name,
		Description:   req.Description,
		TriggerType:   req.TriggerType,
		TriggerConfig: datatypes.JSON(triggerConfigJSON),
		Conditions:    datatypes.JSON(conditionsJSON),
		Actions:       datatypes.JSON(actionsJSON),
		IsActive:      isActive,
	}
	if err := s.repo.Create(def); err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}

	log.Printf("✅ Automation created: %s (ID: %s)", def.Name, def.ID)
	return def, nil
}

// ListAutomations lists all automations for a project
func (s *AutomationService) ListAutomations(projectID uuid.UUID) ([]models.Automation, error) {
	return s.repo.FindByProject(projectID)
}

// GetAutomation retrieves an automation by ID within a project
func (s *AutomationService) GetAutomation(id, projectID uuid.UUID) (*models.Automation, error) {
	return s.repo.FindByID(id, projectID)
}

// UpdateAutomation updates an existing automation
func (s *AutomationService) UpdateAutomation(id, projectID uuid.UUID, req automation.UpdateAutomationRequest) (*models.Automation, error) {
	def, err := s.repo.FindByID(id, projectID)
	if err != nil {
		return nil, fmt.Errorf("automation not found: %w", err)
	}

	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Description != nil {
		def.Description = *req.Description
	}
	if req.TriggerType != nil {
		def.TriggerType = *req.TriggerType
	}
	if req.TriggerConfig != nil {
		configJSON, err := json.Marshal(req.TriggerConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal trigger config: %w", err)
		}
		def.TriggerConfig = datatypes.JSON(configJSON)
	}
	if req.Conditions != nil {
		conditionsJSON, err := json.Marshal(req.Conditions)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal conditions: %w", err)
		}
		def.Conditions = datatypes.JSON(conditionsJSON)
	}
	if req.Actions != nil {
		actionsJSON, err := json.Marshal(req.Actions)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal actions: %w", err)
		}
		def.Actions = datatypes.JSON(actionsJSON)
	}
	if req.IsActive != nil {
		def.IsActive = *req.IsActive
	}

	// Re-validate the merged definition before saving
	triggerConfig, conditions, actions, err := parseDefinition(def)
	if err != nil {
		return nil, err
	}
	if err := automation.ValidateDefinition(def.TriggerType, triggerConfig, conditions, actions); err != nil {
		return nil, err
	}

	if err := s.repo.Update(def); err != nil {
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	log.Printf("✅ Automation updated: %s (ID: %s)", def.Name, def.ID)
	return def, nil
}

// DeleteAutomation deletes an automation
func (s *AutomationService) DeleteAutomation(id, projectID uuid.UUID) error {
	if _, err := s.repo.FindByID(id, projectID); err != nil {
		return fmt.Errorf("automation not found: %w", err)
	}
	if err := s.repo.Delete(id, projectID); err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	log.Printf("✅ Automation deleted: %s", id)
	return nil
}

// GetExecutions retrieves execution history for an automation
func (s *AutomationService) GetExecutions(id, projectID uuid.UUID, limit int) ([]models.AutomationExecution, error) {
	if _, err := s.repo.FindByID(id, projectID); err != nil {
		return nil, fmt.Errorf("automation not found: %w", err)
	}
	return s.repo.FindExecutions(id, limit)
}

// HandleEvent ingests an event fire-and-forget: the caller never observes
// processing outcomes directly, only the execution audit trail.
func (s *AutomationService) HandleEvent(event automation.Event) {
	go s.ProcessEvent(context.Background(), event)
}

// ProcessEvent runs one event through the full dispatch path synchronously.
// Actions that mutate entities re-enter here via the executor's emit
// callback, on the same goroutine, so the chain-depth counter is honored.
func (s *AutomationService) ProcessEvent(ctx context.Context, event automation.Event) {
	log.Printf("📬 Event received: %s (%s %s)", event.TriggerType, event.EntityType, event.EntityID)

	if s.guard.AtMaxDepth() {
		log.Printf("🛑 Chain depth limit reached, dropping event %s for %s %s",
			event.TriggerType, event.EntityType, event.EntityID)
		return
	}

	automations, err := s.repo.FindActiveByTrigger(event.ProjectID, event.TriggerType)
	if err != nil {
		log.Printf("❌ Failed to load automations for trigger %s: %v", event.TriggerType, err)
		return
	}

	// Sequential on purpose: later automations may depend on earlier side
	// effects, and the loop guard has no per-key locking.
	for i := range automations {
		s.processAutomation(ctx, &automations[i], event)
	}
}

// processAutomation runs one automation against one event
func (s *AutomationService) processAutomation(ctx context.Context, def *models.Automation, event automation.Event) {
	triggerConfig, conditions, actions, err := parseDefinition(def)
	if err != nil {
		log.Printf("⚠️ Automation %s has a malformed definition: %v", def.ID, err)
		return
	}

	// Trigger-config mismatch is a silent skip: no execution record
	if !automation.Matches(event.TriggerType, triggerConfig, event) {
		return
	}

	// Cooldown is a defensive skip, also silent
	if s.guard.InCooldown(def.ID, event.EntityID) {
		log.Printf("⏭️  Automation %s in cooldown for %s, skipping", def.Name, event.EntityID)
		return
	}

	startTime := time.Now()
	conditionsMet := s.evaluator.EvaluateAll(conditions, event.Data)

	execution := &models.AutomationExecution{
		AutomationID:  def.ID,
		ProjectID:     def.ProjectID,
		TriggerType:   event.TriggerType,
		EntityType:    event.EntityType,
		EntityID:      event.EntityID,
		ConditionsMet: conditionsMet,
	}

	if !conditionsMet {
		execution.Status = "skipped"
		execution.DurationMs = int(time.Since(startTime).Milliseconds())
		s.recordExecution(execution, nil)
		return
	}

	// Stamp before running so a slow action cannot let a duplicate event
	// through the cooldown check. Check and stamp are one locked step, so
	// a concurrent event that raced past the pre-filter above loses here.
	if !s.guard.CheckAndStamp(def.ID, event.EntityID) {
		log.Printf("⏭️  Automation %s in cooldown for %s, skipping", def.Name, event.EntityID)
		return
	}

	s.guard.EnterChain()
	results := s.runActions(ctx, def, event, actions)
	s.guard.LeaveChain()

	execution.Status = aggregateStatus(results)
	execution.ErrorMessage = firstError(results)
	execution.DurationMs = int(time.Since(startTime).Milliseconds())
	s.recordExecution(execution, results)

	log.Printf("🚀 Automation %s finished: %s (%d actions)", def.Name, execution.Status, len(results))
}

// runActions executes the action list strictly in order. A panic escaping an
// action (the executor already recovers its own) fails the remaining list.
func (s *AutomationService) runActions(ctx context.Context, def *models.Automation, event automation.Event, actions []automation.Action) (results []automation.ActionResult) {
	actx := automation.ActionContext{
		ProjectID:      def.ProjectID,
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		Data:           event.Data,
		AutomationID:   def.ID,
		AutomationName: def.Name,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Automation %s aborted: %v", def.Name, r)
			results = append(results, automation.ActionResult{
				ActionType: "unknown",
				Success:    false,
				Error:      fmt.Sprintf("execution aborted: %v", r),
			})
		}
	}()

	for i, action := range actions {
		log.Printf("   🔧 Action %d/%d: %s", i+1, len(actions), action.Type)
		results = append(results, s.executor.Execute(ctx, action, actx))
	}
	return results
}

// DryRun previews whether an automation's conditions hold against the live
// entity row. Trigger matching is skipped: this is a conditions preview, not
// an event simulation. Nothing executes.
func (s *AutomationService) DryRun(automationID, projectID uuid.UUID, entityType string, entityID uuid.UUID) (*automation.DryRunResult, error) {
	def, err := s.repo.FindByID(automationID, projectID)
	if err != nil {
		return nil, fmt.Errorf("automation not found: %w", err)
	}

	table := automation.EntityTable(entityType)
	if table == "" {
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
	entityData, err := s.entities.FindAsMap(table, entityID, projectID)
	if err != nil {
		return nil, fmt.Errorf("entity not found: %w", err)
	}

	_, conditions, actions, err := parseDefinition(def)
	if err != nil {
		return nil, err
	}

	conditionsMet := s.evaluator.EvaluateAll(conditions, entityData)
	return &automation.DryRunResult{
		WouldTrigger:  def.IsActive && conditionsMet,
		ConditionsMet: conditionsMet,
		Actions:       actions,
		EntityData:    entityData,
	}, nil
}

func (s *AutomationService) recordExecution(execution *models.AutomationExecution, results []automation.ActionResult) {
	if results == nil {
		results = []automation.ActionResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		resultsJSON = []byte("[]")
	}
	execution.ActionResults = datatypes.JSON(resultsJSON)

	if err := s.repo.CreateExecution(execution); err != nil {
		log.Printf("⚠️ Failed to record execution for automation %s: %v", execution.AutomationID, err)
	}
}

// parseDefinition unpacks the JSON columns of a stored automation
func parseDefinition(def *models.Automation) (map[string]interface{}, []automation.Condition, []automation.Action, error) {
	triggerConfig := map[string]interface{}{}
	if len(def.TriggerConfig) > 0 {
		if err := json.Unmarshal(def.TriggerConfig, &triggerConfig); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse trigger config: %w", err)
		}
	}

	var conditions []automation.Condition
	if len(def.Conditions) > 0 {
		if err := json.Unmarshal(def.Conditions, &conditions); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse conditions: %w", err)
		}
	}

	var actions []automation.Action
	if len(def.Actions) > 0 {
		if err := json.Unmarshal(def.Actions, &actions); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse actions: %w", err)
		}
	}

	return triggerConfig, conditions, actions, nil
}

// aggregateStatus folds per-action outcomes into the execution status
func aggregateStatus(results []automation.ActionResult) string {
	if len(results) == 0 {
		return "success"
	}
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	switch succeeded {
	case len(results):
		return "success"
	case 0:
		return "failed"
	default:
		return "partial_failure"
	}
}

func firstError(results []automation.ActionResult) string {
	for _, r := range results {
		if !r.Success {
			return fmt.Sprintf("%s: %s", r.ActionType, r.Error)
		}
	}
	return ""
}

func orEmptyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func orEmptyConditions(c []automation.Condition) []automation.Condition {
	if c == nil {
		return []automation.Condition{}
	}
	return c
}

func orEmptyActions(a []automation.Action) []automation.Action {
	if a == nil {
		return []automation.Action{}
	}
	return a
}
