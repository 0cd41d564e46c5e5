package models

import (
	"time"

	"github.com/google/uuid"
)

// Sequence is a multi-step outreach cadence owned by a project
type Sequence struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Sequence
func (Sequence) TableName() string {
	return "sequences"
}

// SequenceEnrollment tracks one person's progress through a sequence
type SequenceEnrollment struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SequenceID uuid.UUID  `json:"sequence_id" gorm:"type:uuid;not null;index"`
	PersonID   uuid.UUID  `json:"person_id" gorm:"type:uuid;not null;index"`
	ProjectID  uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	Status     string     `json:"status" gorm:"type:varchar(32);not null;default:'active';index"` // 'active', 'completed', 'replied', 'exited'
	EnrolledBy string     `json:"enrolled_by" gorm:"type:varchar(64)"`                            // 'user', 'automation'
	EnrolledAt time.Time  `json:"enrolled_at" gorm:"autoCreateTime"`
	ExitedAt   *time.Time `json:"exited_at,omitempty"`
}

// TableName specifies the table name for SequenceEnrollment
func (SequenceEnrollment) TableName() string {
	return "sequence_enrollments"
}

// ChannelConnection is an outbound channel (mailbox, dialer) connected to a
// project. Sequence enrollment requires at least one active connection; the
// engine never talks to the channel itself.
type ChannelConnection struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID   uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	ChannelType string    `json:"channel_type" gorm:"type:varchar(32);not null"` // 'email', 'phone'
	Identity    string    `json:"identity" gorm:"type:varchar(255)"`             // e.g. the connected mailbox address
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ChannelConnection
func (ChannelConnection) TableName() string {
	return "channel_connections"
}
