package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeQueryRepo finds entities whose only "event" is the passage of time. Each
// query is scoped to one project and returns raw rows the poller converts into
// synthetic events.
type TimeQueryRepo interface {
	FindInactiveEntities(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error)
	FindOverdueTasks(projectID uuid.UUID, limit int) ([]map[string]interface{}, error)
	FindClosingOpportunities(projectID uuid.UUID, daysBefore, limit int) ([]map[string]interface{}, error)
	FindCreatedAgo(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error)
}

type timeQueryRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTimeQueryRepo creates a new time query repository
func NewTimeQueryRepo(db *gorm.DB) TimeQueryRepo {
	return &timeQueryRepo{db: db, now: time.Now}
}

func (r *timeQueryRepo) FindInactiveEntities(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error) {
	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour)
	var rows []map[string]interface{}
	err := r.db.Table(table).
		Where("project_id = ? AND updated_at < ?", projectID, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive %s: %w", table, err)
	}
	return decodeJSONRows(rows), nil
}

func (r *timeQueryRepo) FindOverdueTasks(projectID uuid.UUID, limit int) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := r.db.Table("tasks").
		Where("project_id = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?",
			projectID, "open", r.now()).
		Order("due_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue tasks: %w", err)
	}
	return decodeJSONRows(rows), nil
}

func (r *timeQueryRepo) FindClosingOpportunities(projectID uuid.UUID, daysBefore, limit int) ([]map[string]interface{}, error) {
	now := r.now()
	horizon := now.Add(time.Duration(daysBefore) * 24 * time.Hour)
	var rows []map[string]interface{}
	err := r.db.Table("opportunities").
		Where("project_id = ? AND stage NOT IN ? AND close_date IS NOT NULL AND close_date >= ? AND close_date <= ?",
			projectID, []string{"closed_won", "closed_lost"}, now, horizon).
		Order("close_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query closing opportunities: %w", err)
	}
	return decodeJSONRows(rows), nil
}

// FindCreatedAgo matches rows created inside a one-day window N days back, so
// an entity fires at most once per configured N even without snapshot state.
func (r *timeQueryRepo) FindCreatedAgo(projectID uuid.UUID, table string, days, limit int) ([]map[string]interface{}, error) {
	now := r.now()
	upper := now.Add(-time.Duration(days) * 24 * time.Hour)
	lower := now.Add(-time.Duration(days+1) * 24 * time.Hour)
	var rows []map[string]interface{}
	err := r.db.Table(table).
		Where("project_id = ? AND created_at <= ? AND created_at > ?", projectID, upper, lower).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s created %d days ago: %w", table, days, err)
	}
	return decodeJSONRows(rows), nil
}
