package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityRepo provides generic, project-scoped reads over the entity tables.
// The engine treats entity rows as loosely-typed maps; typed access stays in
// the record-level CRUD code outside the engine.
type EntityRepo interface {
	FindAsMap(table string, entityID, projectID uuid.UUID) (map[string]interface{}, error)
}

type entityRepo struct {
	db *gorm.DB
}

// NewEntityRepo creates a new entity repository
func NewEntityRepo(db *gorm.DB) EntityRepo {
	return &entityRepo{db: db}
}

func (r *entityRepo) FindAsMap(table string, entityID, projectID uuid.UUID) (map[string]interface{}, error) {
	var row map[string]interface{}
	err := r.db.Table(table).
		Where("id = ? AND project_id = ?", entityID, projectID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return decodeJSONColumns(row), nil
}
