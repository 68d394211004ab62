package repository

import (
	"errors"
	"time"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("lead not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrVersionConflict    = errors.New("lead was modified concurrently")
	ErrTaskStatusMismatch = errors.New("task status changed concurrently")
)

type Lead struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	Stage        domain.Stage
	Status       domain.Status
	Score        int
	PropertyType string
	Budget       string
	Location     string
	BedroomCount *int
	Source       string
	AssignedTo   *domain.Owner
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	DeletedAt    *time.Time
}

type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	AuthorID  uuid.UUID
	Content   string
	CreatedAt time.Time
	Seq       int64
}

type CallSummary struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	AuthorID        uuid.UUID
	DurationSeconds int
	Outcome         string
	NextAction      string
	Notes           string
	CreatedAt       time.Time
	Seq             int64
}

type Task struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	Priority    domain.TaskPriority
	Status      domain.TaskStatus
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Seq         int64
}

type Meeting struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	AuthorID    uuid.UUID
	MeetingDate time.Time
	Attendees   []string
	Agenda      string
	Discussion  string
	ActionItems []string
	CreatedAt   time.Time
	Seq         int64
}

// TimelineEvent is a system-generated trail entry. It is never authored directly by a user.
type TimelineEvent struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	ActorID   uuid.UUID
	EventType domain.EventType
	Title     string
	Metadata  map[string]any
	CreatedAt time.Time
	Seq       int64
}

// ListParams filters a lead listing. Zero-valued fields impose no constraint.
type ListParams struct {
	Search     string
	Stage      *domain.Stage
	Status     *domain.Status
	Source     string
	AssignedTo *domain.Owner
	MinScore   *int
	MaxScore   *int
	Scope      domain.AccessScope
	Limit      int
	Offset     int
}
