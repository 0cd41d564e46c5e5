package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/core/automation"
	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
	"github.com/tracklane/tracklane-be/internal/modules/crm/repositories"
)

// TimeTriggerResult summarizes one poller run
type TimeTriggerResult struct {
	Processed int      `json:"processed"`
	Matched   int      `json:"matched"`
	Errors    int      `json:"errors"`
	Details   []string `json:"details"`
}

// TimeTriggerService converts the passage of time into synthetic events: it
// polls for entities newly matching time-based triggers and feeds them into
// the normal dispatch path.
type TimeTriggerService struct {
	repo    repositories.AutomationRepo
	queries repositories.TimeQueryRepo
	engine  *AutomationService
	now     func() time.Time
}

// NewTimeTriggerService creates a new time trigger service
func NewTimeTriggerService(repo repositories.AutomationRepo, queries repositories.TimeQueryRepo, engine *AutomationService) *TimeTriggerService {
	return &TimeTriggerService{
		repo:    repo,
		queries: queries,
		engine:  engine,
		now:     time.Now,
	}
}

// ProcessTimeTriggers runs one poll across all active time-based automations.
// limit caps the candidate rows per automation per run.
func (s *TimeTriggerService) ProcessTimeTriggers(ctx context.Context, limit int) (*TimeTriggerResult, error) {
	if limit <= 0 {
		limit = 500
	}

	automations, err := s.repo.FindActiveTimeTriggers(automation.TimeTriggerTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to load time-based automations: %w", err)
	}

	log.Printf("⏰ Time-trigger poll: %d automations to check", len(automations))

	result := &TimeTriggerResult{Details: []string{}}
	for i := range automations {
		def := &automations[i]
		result.Processed++

		matched, err := s.processAutomation(ctx, def, limit)
		if err != nil {
			result.Errors++
			result.Details = append(result.Details, fmt.Sprintf("%s: %v", def.Name, err))
			log.Printf("⚠️ Time trigger %s failed: %v", def.Name, err)
			continue
		}
		result.Matched += matched
		if matched > 0 {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d new matches", def.Name, matched))
		}
	}

	log.Printf("✅ Time-trigger poll done: %d processed, %d matched, %d errors",
		result.Processed, result.Matched, result.Errors)
	return result, nil
}

// processAutomation finds candidates for one automation, filters out ids seen
// in earlier runs, dispatches events for the rest, and grows the snapshot.
func (s *TimeTriggerService) processAutomation(ctx context.Context, def *models.Automation, limit int) (int, error) {
	var triggerConfig map[string]interface{}
	if err := json.Unmarshal(def.TriggerConfig, &triggerConfig); err != nil {
		return 0, fmt.Errorf("malformed trigger config: %w", err)
	}

	entityType, rows, err := s.findCandidates(def.TriggerType, def.ProjectID, triggerConfig, limit)
	if err != nil {
		return 0, err
	}

	seen, err := s.loadSnapshot(def.ID)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, row := range rows {
		entityID, ok := rowID(row)
		if !ok {
			continue
		}
		if seen[entityID.String()] {
			continue
		}
		seen[entityID.String()] = true
		matched++

		// Synthetic events go through the identical sequential dispatch path
		s.engine.ProcessEvent(ctx, automation.Event{
			ProjectID:   def.ProjectID,
			TriggerType: def.TriggerType,
			EntityType:  entityType,
			EntityID:    entityID,
			Data:        row,
		})
	}

	// The snapshot only grows: an entity that stops matching stays recorded
	// so it cannot re-fire when it matches again later.
	if err := s.saveSnapshot(def.ID, seen); err != nil {
		return matched, err
	}
	return matched, nil
}

// findCandidates runs the per-trigger-type query
func (s *TimeTriggerService) findCandidates(triggerType string, projectID uuid.UUID, config map[string]interface{}, limit int) (string, []map[string]interface{}, error) {
	switch triggerType {
	case automation.TriggerEntityInactive:
		entityType, _ := config["entity_type"].(string)
		table := automation.EntityTable(entityType)
		if table == "" {
			return "", nil, fmt.Errorf("invalid entity_type in trigger config")
		}
		rows, err := s.queries.FindInactiveEntities(projectID, table, clampDays(config["days"]), limit)
		return entityType, rows, err

	case automation.TriggerTaskOverdue:
		rows, err := s.queries.FindOverdueTasks(projectID, limit)
		return automation.EntityTask, rows, err

	case automation.TriggerCloseDateApproaching:
		rows, err := s.queries.FindClosingOpportunities(projectID, clampDays(config["days_before"]), limit)
		return automation.EntityOpportunity, rows, err

	case automation.TriggerCreatedAgo:
		entityType, _ := config["entity_type"].(string)
		table := automation.EntityTable(entityType)
		if table == "" {
			return "", nil, fmt.Errorf("invalid entity_type in trigger config")
		}
		rows, err := s.queries.FindCreatedAgo(projectID, table, clampDays(config["days"]), limit)
		return entityType, rows, err

	default:
		return "", nil, fmt.Errorf("not a time-based trigger: %s", triggerType)
	}
}

func (s *TimeTriggerService) loadSnapshot(automationID uuid.UUID) (map[string]bool, error) {
	seen := map[string]bool{}

	state, err := s.repo.GetTimeTriggerState(automationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trigger state: %w", err)
	}

	var ids []string
	if len(state.MatchedIDs) > 0 {
		if err := json.Unmarshal(state.MatchedIDs, &ids); err != nil {
			return nil, fmt.Errorf("malformed trigger state: %w", err)
		}
	}
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

func (s *TimeTriggerService) saveSnapshot(automationID uuid.UUID, seen map[string]bool) error {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode trigger state: %w", err)
	}

	err = s.repo.SaveTimeTriggerState(&models.TimeTriggerState{
		AutomationID: automationID,
		MatchedIDs:   datatypes.JSON(idsJSON),
		LastRunAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to save trigger state: %w", err)
	}
	return nil
}

// rowID extracts the entity id from a raw row
func rowID(row map[string]interface{}) (uuid.UUID, bool) {
	raw, exists := row["id"]
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprintf("%v", raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// clampDays bounds a days-style config value to [1, 365]
func clampDays(raw interface{}) int {
	days := 1
	switch v := raw.(type) {
	case float64:
		days = int(v)
	case int:
		days = v
	case string:
		fmt.Sscanf(v, "%d", &days)
	}
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}
	return days
}
