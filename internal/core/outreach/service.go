package outreach

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
)

// Enrollment errors surfaced to callers; the action executor turns them into
// failed action results.
var (
	ErrSequenceNotFound   = errors.New("sequence not found in project")
	ErrSequenceInactive   = errors.New("sequence is not active")
	ErrNoActiveConnection = errors.New("project has no active outbound channel connection")
)

// Service handles sequence enrollment. It owns the project-scope and
// channel-connection checks so callers cannot enroll across tenants or into
// a project that has nothing to send with.
type Service struct {
	db *gorm.DB
}

// NewService creates a new outreach service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EnrollResult reports what Enroll did.
type EnrollResult struct {
	EnrollmentID    uuid.UUID
	AlreadyEnrolled bool
}

// Enroll adds a person to a sequence. Already-active enrollment is an
// idempotent success, not an error.
func (s *Service) Enroll(ctx context.Context, projectID, sequenceID, personID uuid.UUID, enrolledBy string) (*EnrollResult, error) {
	var sequence models.Sequence
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", sequenceID, projectID).
		First(&sequence).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSequenceNotFound
		}
		return nil, fmt.Errorf("failed to load sequence: %w", err)
	}
	if !sequence.IsActive {
		return nil, ErrSequenceInactive
	}

	hasConnection, err := s.HasActiveConnection(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !hasConnection {
		return nil, ErrNoActiveConnection
	}

	// Idempotency: an active enrollment short-circuits
	var existing models.SequenceEnrollment
	err = s.db.WithContext(ctx).
		Where("sequence_id = ? AND person_id = ? AND status = ?", sequenceID, personID, "active").
		First(&existing).Error
	if err == nil {
		return &EnrollResult{EnrollmentID: existing.ID, AlreadyEnrolled: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	enrollment := &models.SequenceEnrollment{
		SequenceID: sequenceID,
		PersonID:   personID,
		ProjectID:  projectID,
		Status:     "active",
		EnrolledBy: enrolledBy,
	}
	if err := s.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return &EnrollResult{EnrollmentID: enrollment.ID}, nil
}

// HasActiveConnection reports whether the project has at least one active
// outbound channel connection.
func (s *Service) HasActiveConnection(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChannelConnection{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count channel connections: %w", err)
	}
	return count > 0, nil
}
