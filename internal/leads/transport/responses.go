package transport

import (
	"time"

	"github.com/google/uuid"
)

// Response DTOs

type OwnerResponse struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

type LeadResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Stage        string         `json:"stage"`
	Status       string         `json:"status"`
	Score        int            `json:"score"`
	PropertyType string         `json:"propertyType"`
	Budget       string         `json:"budget"`
	Location     string         `json:"location,omitempty"`
	BedroomCount *int           `json:"bedroomCount,omitempty"`
	Source       string         `json:"source"`
	AssignedTo   *OwnerResponse `json:"assignedTo"`
	CreatedBy    uuid.UUID      `json:"createdBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Version      int64          `json:"version"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type CountsResponse struct {
	Total    int            `json:"total"`
	ByStage  map[string]int `json:"byStage"`
	ByStatus map[string]int `json:"byStatus"`
}

type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type CallResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"leadId"`
	AuthorID        uuid.UUID `json:"authorId"`
	DurationSeconds int       `json:"durationSeconds"`
	Outcome         string    `json:"outcome"`
	NextAction      string    `json:"nextAction,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	AuthorID    uuid.UUID  `json:"authorId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     time.Time  `json:"dueDate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type MeetingResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	AuthorID    uuid.UUID `json:"authorId"`
	MeetingDate time.Time `json:"meetingDate"`
	Attendees   []string  `json:"attendees"`
	Agenda      string    `json:"agenda"`
	Discussion  string    `json:"discussion,omitempty"`
	ActionItems []string  `json:"actionItems"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SystemEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	LeadID    uuid.UUID      `json:"leadId"`
	ActorID   uuid.UUID      `json:"actorId"`
	EventType string         `json:"eventType"`
	Title     string         `json:"title"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FeedItemResponse is one entry of the merged activity feed. Exactly one of the
// typed payloads is set, matching Kind.
type FeedItemResponse struct {
	Kind      string               `json:"kind"`
	Timestamp time.Time            `json:"timestamp"`
	Note      *NoteResponse        `json:"note,omitempty"`
	Call      *CallResponse        `json:"call,omitempty"`
	Task      *TaskResponse        `json:"task,omitempty"`
	Meeting   *MeetingResponse     `json:"meeting,omitempty"`
	Event     *SystemEventResponse `json:"event,omitempty"`
}

type FeedResponse struct {
	Items []FeedItemResponse `json:"items"`
}

type UpcomingResponse struct {
	Items []TaskResponse `json:"items"`
}

type SummaryResponse struct {
	LastContactedAt *time.Time    `json:"lastContactedAt"`
	NextActionDue   *TaskResponse `json:"nextActionDue"`
	NoteCount       int           `json:"noteCount"`
	CallCount       int           `json:"callCount"`
	TaskCount       int           `json:"taskCount"`
	PendingTasks    int           `json:"pendingTasks"`
	MeetingCount    int           `json:"meetingCount"`
}
