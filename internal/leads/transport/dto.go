package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// OwnerRequest references a user or team owner.
type OwnerRequest struct {
	Kind string    `json:"kind" validate:"required,oneof=user team"`
	ID   uuid.UUID `json:"id" validate:"required"`
}

// LeadFields is the validated field set of a lead. Create binds it directly;
// updates merge the present fields over the stored lead and validate the result.
type LeadFields struct {
	Name         string `json:"name" validate:"notblank,max=200"`
	Email        string `json:"email" validate:"required,leademail,max=254"`
	Phone        string `json:"phone" validate:"notblank,max=30"`
	Source       string `json:"source" validate:"notblank,max=100"`
	PropertyType string `json:"propertyType" validate:"notblank,max=100"`
	Budget       string `json:"budget" validate:"notblank,max=100"`
	Location     string `json:"location" validate:"max=200"`
	BedroomCount *int   `json:"bedroomCount,omitempty" validate:"omitempty,min=0,max=100"`
}

type CreateLeadRequest struct {
	LeadFields
	AssignedTo *OwnerRequest `json:"assignedTo,omitempty" validate:"omitempty"`
}

// UpdateLeadRequest is a partial update. Absent fields are left untouched.
type UpdateLeadRequest struct {
	Name            *string     `json:"name,omitempty"`
	Email           *string     `json:"email,omitempty"`
	Phone           *string     `json:"phone,omitempty"`
	Source          *string     `json:"source,omitempty"`
	PropertyType    *string     `json:"propertyType,omitempty"`
	Budget          *string     `json:"budget,omitempty"`
	Location        *string     `json:"location,omitempty"`
	BedroomCount    OptionalInt `json:"bedroomCount,omitempty"`
	ExpectedVersion *int64      `json:"expectedVersion,omitempty"`
}

type TransitionStageRequest struct {
	Stage           string `json:"stage" validate:"required"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

type TransitionStatusRequest struct {
	Status          string `json:"status" validate:"required"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

type UpdateScoreRequest struct {
	Score           *int   `json:"score" validate:"required"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

type RecordNoteRequest struct {
	Content string `json:"content" validate:"notblank,max=5000"`
}

type RecordCallRequest struct {
	DurationSeconds int    `json:"durationSeconds" validate:"required,min=1"`
	Outcome         string `json:"outcome" validate:"notblank,max=200"`
	NextAction      string `json:"nextAction" validate:"max=500"`
	Notes           string `json:"notes" validate:"max=5000"`
}

type RecordTaskRequest struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"dueDate" validate:"required"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
}

type RecordMeetingRequest struct {
	MeetingDate *time.Time `json:"meetingDate" validate:"required"`
	Attendees   []string   `json:"attendees" validate:"omitempty,dive,notblank"`
	Agenda      string     `json:"agenda" validate:"notblank,max=2000"`
	Discussion  string     `json:"discussion" validate:"max=10000"`
	ActionItems []string   `json:"actionItems" validate:"omitempty,dive,notblank"`
}

type ToggleTaskRequest struct {
	ExpectedStatus string `json:"expectedStatus,omitempty" validate:"omitempty,oneof=pending completed"`
}

type ListLeadsRequest struct {
	Search       string `form:"search" validate:"max=100"`
	Stage        string `form:"stage"`
	Status       string `form:"status"`
	Source       string `form:"source" validate:"max=100"`
	AssignedKind string `form:"assignedKind" validate:"omitempty,oneof=user team"`
	AssignedID   string `form:"assignedId" validate:"omitempty,uuid"`
	MinScore     *int   `form:"minScore" validate:"omitempty,min=0,max=100"`
	MaxScore     *int   `form:"maxScore" validate:"omitempty,min=0,max=100"`
	Page         int    `form:"page" validate:"omitempty,min=1,max=100000"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}
