package repository

import (
	"context"
	"time"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
// Soft-deleted leads are invisible to every reader method.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
	ListLeads(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListLeadIDsByOwner(ctx context.Context, owner domain.Owner) ([]uuid.UUID, error)
}

// LeadWriter provides write operations for lead management.
// Each call writes the lead row and appends events to its trail atomically.
type LeadWriter interface {
	CreateLead(ctx context.Context, lead Lead, events []TimelineEvent) (Lead, error)
	UpdateLead(ctx context.Context, lead Lead, expectedVersion int64, events []TimelineEvent) (Lead, error)
}

// NoteStore manages lead notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note Note) (Note, error)
	ListNotes(ctx context.Context, leadID uuid.UUID) ([]Note, error)
}

// CallStore manages call summaries.
type CallStore interface {
	CreateCall(ctx context.Context, call CallSummary) (CallSummary, error)
	ListCalls(ctx context.Context, leadID uuid.UUID) ([]CallSummary, error)
}

// TaskStore manages follow-up tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (Task, error)
	ListTasks(ctx context.Context, leadID uuid.UUID) ([]Task, error)
	// SwapTaskStatus sets the status to `to` only if it currently equals `from`,
	// appending event to the lead trail in the same write.
	SwapTaskStatus(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus, at time.Time, event TimelineEvent) (Task, error)
}

// MeetingStore manages minutes of meeting.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	ListMeetings(ctx context.Context, leadID uuid.UUID) ([]Meeting, error)
}

// TimelineEventStore manages system-generated trail entries.
type TimelineEventStore interface {
	ListTimelineEvents(ctx context.Context, leadID uuid.UUID) ([]TimelineEvent, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadsRepository defines the complete interface for leads data operations.
// Composed of smaller, focused interfaces for better testability and flexibility.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	NoteStore
	CallStore
	TaskStore
	MeetingStore
	TimelineEventStore
}

// Ensure both implementations satisfy LeadsRepository
var (
	_ LeadsRepository = (*Repository)(nil)
	_ LeadsRepository = (*Memory)(nil)
)
