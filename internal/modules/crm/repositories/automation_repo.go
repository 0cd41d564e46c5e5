package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
)

// AutomationRepo interface for automation database operations
type AutomationRepo interface {
	Create(automation *models.Automation) error
	FindByID(id, projectID uuid.UUID) (*models.Automation, error)
	FindByProject(projectID uuid.UUID) ([]models.Automation, error)
	FindActiveByTrigger(projectID uuid.UUID, triggerType string) ([]models.Automation, error)
	FindActiveTimeTriggers(triggerTypes []string) ([]models.Automation, error)
	Update(automation *models.Automation) error
	Delete(id, projectID uuid.UUID) error
	CreateExecution(execution *models.AutomationExecution) error
	FindExecutions(automationID uuid.UUID, limit int) ([]models.AutomationExecution, error)
	GetTimeTriggerState(automationID uuid.UUID) (*models.TimeTriggerState, error)
	SaveTimeTriggerState(state *models.TimeTriggerState) error
}

type automationRepo struct {
	db *gorm.DB
}

// NewAutomationRepo creates a new automation repository
func NewAutomationRepo(db *gorm.DB) AutomationRepo {
	return &automationRepo{db: db}
}

func (r *automationRepo) Create(automation *models.Automation) error {
	return r.db.Create(automation).Error
}

func (r *automationRepo) FindByID(id, projectID uuid.UUID) (*models.Automation, error) {
	var automation models.Automation
	err := r.db.Where("id = ? AND project_id = ?", id, projectID).First(&automation).Error
	if err != nil {
		return nil, err
	}
	return &automation, nil
}

func (r *automationRepo) FindByProject(projectID uuid.UUID) ([]models.Automation, error) {
	var automations []models.Automation
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&automations).Error
	return automations, err
}

func (r *automationRepo) FindActiveByTrigger(projectID uuid.UUID, triggerType string) ([]models.Automation, error) {
	var automations []models.Automation
	err := r.db.Where("project_id = ? AND trigger_type = ? AND is_active = ?", projectID, triggerType, true).
		Order("created_at ASC").
		Find(&automations).Error
	return automations, err
}

func (r *automationRepo) FindActiveTimeTriggers(triggerTypes []string) ([]models.Automation, error) {
	var automations []models.Automation
	err := r.db.Where("trigger_type IN ? AND is_active = ?", triggerTypes, true).
		Order("created_at ASC").
		Find(&automations).Error
	return automations, err
}

func (r *automationRepo) Update(automation *models.Automation) error {
	return r.db.Save(automation).Error
}

func (r *automationRepo) Delete(id, projectID uuid.UUID) error {
	return r.db.Where("id = ? AND project_id = ?", id, projectID).Delete(&models.Automation{}).Error
}

func (r *automationRepo) CreateExecution(execution *models.AutomationExecution) error {
	return r.db.Create(execution).Error
}

func (r *automationRepo) FindExecutions(automationID uuid.UUID, limit int) ([]models.AutomationExecution, error) {
	var executions []models.AutomationExecution
	query := r.db.Where("automation_id = ?", automationID).Order("executed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&executions).Error
	return executions, err
}

func (r *automationRepo) GetTimeTriggerState(automationID uuid.UUID) (*models.TimeTriggerState, error) {
	var state models.TimeTriggerState
	err := r.db.Where("automation_id = ?", automationID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *automationRepo) SaveTimeTriggerState(state *models.TimeTriggerState) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "automation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"matched_ids", "last_run_at", "updated_at"}),
	}).Create(state).Error
}
