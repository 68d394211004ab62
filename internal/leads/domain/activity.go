package domain

// TaskStatus is the completion state of a follow-up task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == TaskCompleted {
		return TaskPending
	}
	return TaskCompleted
}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskCompleted
}

// TaskPriority ranks follow-up tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// EventType names a system-generated activity trail entry.
type EventType string

const (
	EventLeadCreated       EventType = "lead_created"
	EventStageChanged      EventType = "stage_changed"
	EventStatusChanged     EventType = "status_changed"
	EventScoreChanged      EventType = "score_changed"
	EventLeadUpdated       EventType = "lead_updated"
	EventReassigned        EventType = "reassigned"
	EventLeadDeleted       EventType = "lead_deleted"
	EventTaskStatusChanged EventType = "task_status_changed"
)

// Titles stored with each system event.
const (
	TitleLeadCreated   = "Lead created"
	TitleStageChanged  = "Stage changed"
	TitleStatusChanged = "Status changed"
	TitleScoreChanged  = "Score updated"
	TitleLeadUpdated   = "Lead details updated"
	TitleReassigned    = "Lead reassigned"
	TitleUnassigned    = "Lead unassigned"
	TitleLeadDeleted   = "Lead deleted"
	TitleTaskCompleted = "Task completed"
	TitleTaskReopened  = "Task reopened"
)

// FeedKind tags the source record of a feed entry.
type FeedKind string

const (
	FeedNote    FeedKind = "note"
	FeedCall    FeedKind = "call"
	FeedTask    FeedKind = "task"
	FeedMeeting FeedKind = "meeting"
	FeedSystem  FeedKind = "system"
)
