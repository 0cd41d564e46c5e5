package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/core/automation"
	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
)

// mockAutomationRepo is an in-memory AutomationRepo
type mockAutomationRepo struct {
	mu         sync.Mutex
	rows       []*models.Automation
	executions []*models.AutomationExecution
	states     map[uuid.UUID]*models.TimeTriggerState
}

func newMockAutomationRepo() *mockAutomationRepo {
	return &mockAutomationRepo{states: map[uuid.UUID]*models.TimeTriggerState{}}
}

func (m *mockAutomationRepo) Create(a *models.Automation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.rows = append(m.rows, a)
	return nil
}

func (m *mockAutomationRepo) FindByID(id, projectID uuid.UUID) (*models.Automation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID == id && a.ProjectID == projectID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAutomationRepo) FindByProject(projectID uuid.UUID) ([]models.Automation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Automation
	for _, a := range m.rows {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAutomationRepo) FindActiveByTrigger(projectID uuid.UUID, triggerType string) ([]models.Automation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Automation
	for _, a := range m.rows {
		if a.ProjectID == projectID && a.TriggerType == triggerType && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAutomationRepo) FindActiveTimeTriggers(triggerTypes []string) ([]models.Automation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Automation
	for _, a := range m.rows {
		if !a.IsActive {
			continue
		}
		for _, tt := range triggerTypes {
			if a.TriggerType == tt {
				out = append(out, *a)
				break
			}
		}
	}
	return out, nil
}

func (m *mockAutomationRepo) Update(a *models.Automation) error { return nil }

func (m *mockAutomationRepo) Delete(id, projectID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.rows {
		if a.ID == id && a.ProjectID == projectID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockAutomationRepo) CreateExecution(e *models.AutomationExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.executions = append(m.executions, e)
	return nil
}

func (m *mockAutomationRepo) FindExecutions(automationID uuid.UUID, limit int) ([]models.AutomationExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AutomationExecution
	for _, e := range m.executions {
		if e.AutomationID == automationID {
			out = append(out, *e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAutomationRepo) GetTimeTriggerState(automationID uuid.UUID) (*models.TimeTriggerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[automationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return state, nil
}

func (m *mockAutomationRepo) SaveTimeTriggerState(state *models.TimeTriggerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.AutomationID] = state
	return nil
}

func (m *mockAutomationRepo) executionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.executions)
}

// mockEntityRepo serves canned entity rows
type mockEntityRepo struct {
	rows map[uuid.UUID]map[string]interface{}
}

func newMockEntityRepo() *mockEntityRepo {
	return &mockEntityRepo{rows: map[uuid.UUID]map[string]interface{}{}}
}

func (m *mockEntityRepo) FindAsMap(table string, entityID, projectID uuid.UUID) (map[string]interface{}, error) {
	row, ok := m.rows[entityID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

// mockActionRunner records executed actions and returns scripted results
type mockActionRunner struct {
	mu       sync.Mutex
	executed []automation.Action
	results  map[string]automation.ActionResult
	onRun    func(automation.Action, automation.ActionContext)
}

func newMockActionRunner() *mockActionRunner {
	return &mockActionRunner{results: map[string]automation.ActionResult{}}
}

func (m *mockActionRunner) Execute(ctx context.Context, action automation.Action, actx automation.ActionContext) automation.ActionResult {
	m.mu.Lock()
	m.executed = append(m.executed, action)
	onRun := m.onRun
	result, scripted := m.results[action.Type]
	m.mu.Unlock()

	if onRun != nil {
		onRun(action, actx)
	}
	if scripted {
		return result
	}
	return automation.ActionResult{ActionType: action.Type, Success: true}
}

func (m *mockActionRunner) executedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.executed)
}

// mockTimeQueryRepo serves canned candidate rows
type mockTimeQueryRepo struct {
	inactive map[string][]map[string]interface{}
	overdue  []map[string]interface{}
	closing  []map[string]interface{}
	created  map[string][]map[string]interface{}
}

func (m *mockTimeQueryRepo) FindInactiveEntities(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error) {
	return m.inactive[table], nil
}

func (m *mockTimeQueryRepo) FindOverdueTasks(projectID uuid.UUID, limit int) ([]map[string]interface{}, error) {
	return m.overdue, nil
}

func (m *mockTimeQueryRepo) FindClosingOpportunities(projectID uuid.UUID, daysBefore, limit int) ([]map[string]interface{}, error) {
	return m.closing, nil
}

func (m *mockTimeQueryRepo) FindCreatedAgo(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error) {
	return m.created[table], nil
}

func entityRow(id uuid.UUID, extra map[string]interface{}) map[string]interface{} {
	row := map[string]interface{}{"id": id.String()}
	for k, v := range extra {
		row[k] = v
	}
	return row
}
