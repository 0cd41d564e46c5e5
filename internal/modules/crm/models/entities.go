package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Organization represents a company record
type Organization struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Domain         string         `json:"domain" gorm:"type:varchar(255)"`
	Industry       string         `json:"industry" gorm:"type:varchar(128)"`
	Website        string         `json:"website" gorm:"type:varchar(512)"`
	Phone          string         `json:"phone" gorm:"type:varchar(64)"`
	EmployeeCount  int            `json:"employee_count"`
	LifecycleStage string         `json:"lifecycle_stage" gorm:"type:varchar(64);index"`
	OwnerID        *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields   datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Organization) TableName() string { return "organizations" }

// Person represents a contact record
type Person struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID        uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	OrganizationID   *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	FirstName        string         `json:"first_name" gorm:"type:varchar(128)"`
	LastName         string         `json:"last_name" gorm:"type:varchar(128)"`
	Email            string         `json:"email" gorm:"type:varchar(255);index"`
	Phone            string         `json:"phone" gorm:"type:varchar(64)"`
	Title            string         `json:"title" gorm:"type:varchar(128)"`
	LifecycleStage   string         `json:"lifecycle_stage" gorm:"type:varchar(64);index"`
	IsPrimaryContact bool           `json:"is_primary_contact" gorm:"default:false"`
	OwnerID          *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields     datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Person) TableName() string { return "people" }

// Opportunity represents a deal moving through the pipeline
type Opportunity struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	PersonID       *uuid.UUID     `json:"person_id" gorm:"type:uuid;index"` // primary contact
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Stage          string         `json:"stage" gorm:"type:varchar(64);not null;index"`
	Amount         float64        `json:"amount"`
	Probability    int            `json:"probability"`
	CloseDate      *time.Time     `json:"close_date" gorm:"index"`
	NextStep       string         `json:"next_step" gorm:"type:text"`
	OwnerID        *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields   datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Opportunity) TableName() string { return "opportunities" }

// RFP represents a request-for-proposal record
type RFP struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	PersonID       *uuid.UUID     `json:"person_id" gorm:"type:uuid;index"` // primary contact
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	Status         string         `json:"status" gorm:"type:varchar(64);not null;index"`
	DueDate        *time.Time     `json:"due_date" gorm:"index"`
	OwnerID        *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields   datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (RFP) TableName() string { return "rfps" }

// Task represents a to-do linked to at most one triggering entity
type Task struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Status         string         `json:"status" gorm:"type:varchar(32);not null;default:'open';index"` // 'open', 'completed', 'cancelled'
	Priority       string         `json:"priority" gorm:"type:varchar(16);default:'normal'"`
	DueDate        *time.Time     `json:"due_date" gorm:"index"`
	PersonID       *uuid.UUID     `json:"person_id" gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	OpportunityID  *uuid.UUID     `json:"opportunity_id" gorm:"type:uuid;index"`
	RFPID          *uuid.UUID     `json:"rfp_id" gorm:"type:uuid;index"`
	OwnerID        *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields   datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Task) TableName() string { return "tasks" }

// Meeting represents a scheduled or held meeting
type Meeting struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	MeetingType    string         `json:"meeting_type" gorm:"type:varchar(64);index"`
	Outcome        string         `json:"outcome" gorm:"type:varchar(64)"`
	Notes          string         `json:"notes" gorm:"type:text"`
	StartsAt       *time.Time     `json:"starts_at" gorm:"index"`
	EndsAt         *time.Time     `json:"ends_at"`
	PersonID       *uuid.UUID     `json:"person_id" gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	OwnerID        *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields   datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Meeting) TableName() string { return "meetings" }

// Call represents a logged phone call
type Call struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID       uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Direction       string         `json:"direction" gorm:"type:varchar(16)"` // 'inbound', 'outbound'
	Disposition     string         `json:"disposition" gorm:"type:varchar(64);index"`
	DurationSeconds int            `json:"duration_seconds"`
	Notes           string         `json:"notes" gorm:"type:text"`
	PersonID        *uuid.UUID     `json:"person_id" gorm:"type:uuid;index"`
	OrganizationID  *uuid.UUID     `json:"organization_id" gorm:"type:uuid;index"`
	OwnerID         *uuid.UUID     `json:"owner_id" gorm:"type:uuid;index"`
	CustomFields    datatypes.JSON `json:"custom_fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Call) TableName() string { return "calls" }
