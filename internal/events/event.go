// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"estate_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// OwnerRef identifies a lead owner without importing the leads domain.
// Kind is "user" or "team".
type OwnerRef struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	CreatedBy  uuid.UUID `json:"createdBy"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Source     string    `json:"source"`
	AssignedTo *OwnerRef `json:"assignedTo,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStageChanged is published on every stage transition, including same-stage saves.
type LeadStageChanged struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadStatusChanged is published on every status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadScoreChanged is published when a lead's score is updated.
type LeadScoreChanged struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
	From    int       `json:"from"`
	To      int       `json:"to"`
}

func (e LeadScoreChanged) EventName() string { return "leads.score.changed" }

// LeadFieldsUpdated is published when descriptive lead fields change.
type LeadFieldsUpdated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
	Fields  []string  `json:"fields"`
}

func (e LeadFieldsUpdated) EventName() string { return "leads.fields.updated" }

// LeadDeleted is published when a lead is soft-deleted.
type LeadDeleted struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e LeadDeleted) EventName() string { return "leads.lead.deleted" }

// LeadAssigned is published when a lead's owner changes, including unassignment.
type LeadAssigned struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	LeadName      string    `json:"leadName"`
	PreviousOwner *OwnerRef `json:"previousOwner,omitempty"`
	NewOwner      *OwnerRef `json:"newOwner,omitempty"`
	AssignedByID  uuid.UUID `json:"assignedById"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// =============================================================================
// Activity Domain Events
// =============================================================================

// TaskRecorded is published when a follow-up task is added to a lead.
type TaskRecorded struct {
	BaseEvent
	TaskID     uuid.UUID  `json:"taskId"`
	LeadID     uuid.UUID  `json:"leadId"`
	AuthorID   uuid.UUID  `json:"authorId"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	Title      string     `json:"title"`
	DueDate    time.Time  `json:"dueDate"`
}

func (e TaskRecorded) EventName() string { return "activity.task.recorded" }

// TaskStatusToggled is published when a task flips between pending and completed.
type TaskStatusToggled struct {
	BaseEvent
	TaskID  uuid.UUID `json:"taskId"`
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
	Status  string    `json:"status"`
}

func (e TaskStatusToggled) EventName() string { return "activity.task.toggled" }

// TaskDue is published by the scheduler when a pending task reaches its due date.
type TaskDue struct {
	BaseEvent
	TaskID     uuid.UUID  `json:"taskId"`
	LeadID     uuid.UUID  `json:"leadId"`
	LeadName   string     `json:"leadName"`
	AuthorID   uuid.UUID  `json:"authorId"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	Title      string     `json:"title"`
	DueDate    time.Time  `json:"dueDate"`
}

func (e TaskDue) EventName() string { return "activity.task.due" }

// =============================================================================
// Team Domain Events
// =============================================================================

// TeamCreated is published when a team is created.
type TeamCreated struct {
	BaseEvent
	TeamID  uuid.UUID `json:"teamId"`
	ActorID uuid.UUID `json:"actorId"`
	Name    string    `json:"name"`
}

func (e TeamCreated) EventName() string { return "teams.team.created" }

// TeamDeleted is published after a team, its memberships and its lead ownerships are removed.
type TeamDeleted struct {
	BaseEvent
	TeamID          uuid.UUID   `json:"teamId"`
	ActorID         uuid.UUID   `json:"actorId"`
	UnassignedLeads []uuid.UUID `json:"unassignedLeads"`
}

func (e TeamDeleted) EventName() string { return "teams.team.deleted" }

// TeamMemberAdded is published when a user joins a team.
type TeamMemberAdded struct {
	BaseEvent
	TeamID  uuid.UUID `json:"teamId"`
	UserID  uuid.UUID `json:"userId"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e TeamMemberAdded) EventName() string { return "teams.member.added" }

// TeamMemberRemoved is published when a user leaves a team.
type TeamMemberRemoved struct {
	BaseEvent
	TeamID  uuid.UUID `json:"teamId"`
	UserID  uuid.UUID `json:"userId"`
	ActorID uuid.UUID `json:"actorId"`
}

func (e TeamMemberRemoved) EventName() string { return "teams.member.removed" }
