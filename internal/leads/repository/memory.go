package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Memory is an in-process LeadsRepository. It backs STORE_DRIVER=memory and the
// service tests. Records are copied on the way in and out so callers never share
// state with the store.
type Memory struct {
	mu       sync.RWMutex
	seq      int64
	leads    map[uuid.UUID]Lead
	notes    []Note
	calls    []CallSummary
	tasks    map[uuid.UUID]Task
	meetings []Meeting
	timeline []TimelineEvent
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		leads: make(map[uuid.UUID]Lead),
		tasks: make(map[uuid.UUID]Task),
	}
}

func (m *Memory) nextSeq() int64 {
	m.seq++
	return m.seq
}

func copyLead(l Lead) Lead {
	if l.BedroomCount != nil {
		v := *l.BedroomCount
		l.BedroomCount = &v
	}
	if l.AssignedTo != nil {
		o := *l.AssignedTo
		l.AssignedTo = &o
	}
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		l.DeletedAt = &t
	}
	return l
}

func copyTask(t Task) Task {
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	return t
}

func copyMeeting(mt Meeting) Meeting {
	mt.Attendees = slices.Clone(mt.Attendees)
	mt.ActionItems = slices.Clone(mt.ActionItems)
	return mt
}

func copyEvent(e TimelineEvent) TimelineEvent {
	e.Metadata = maps.Clone(e.Metadata)
	return e
}

func (m *Memory) GetLead(_ context.Context, id uuid.UUID) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok || lead.DeletedAt != nil {
		return Lead{}, ErrNotFound
	}
	return copyLead(lead), nil
}

func (m *Memory) CreateLead(_ context.Context, lead Lead, events []TimelineEvent) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Version == 0 {
		lead.Version = 1
	}
	m.leads[lead.ID] = copyLead(lead)
	m.appendEventsLocked(lead.ID, events)
	return copyLead(lead), nil
}

func (m *Memory) UpdateLead(_ context.Context, lead Lead, expectedVersion int64, events []TimelineEvent) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.leads[lead.ID]
	if !ok || current.DeletedAt != nil {
		return Lead{}, ErrNotFound
	}
	if current.Version != expectedVersion {
		return Lead{}, ErrVersionConflict
	}
	// Identity and creation columns are not writable.
	lead.Source = current.Source
	lead.CreatedBy = current.CreatedBy
	lead.CreatedAt = current.CreatedAt
	lead.Version = current.Version + 1
	m.leads[lead.ID] = copyLead(lead)
	m.appendEventsLocked(lead.ID, events)
	return copyLead(lead), nil
}

func (m *Memory) appendEventsLocked(leadID uuid.UUID, events []TimelineEvent) {
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.LeadID = leadID
		e.Seq = m.nextSeq()
		m.timeline = append(m.timeline, copyEvent(e))
	}
}

func (m *Memory) ListLeads(_ context.Context, params ListParams) ([]Lead, int, error) {
	m.mu.RLock()
	matched := make([]Lead, 0)
	for _, lead := range m.leads {
		if params.Matches(lead) {
			matched = append(matched, copyLead(lead))
		}
	}
	m.mu.RUnlock()

	sortLeads(matched)
	return paginate(matched, params.Limit, params.Offset), len(matched), nil
}

func (m *Memory) ListLeadIDsByOwner(_ context.Context, owner domain.Owner) ([]uuid.UUID, error) {
	m.mu.RLock()
	matched := make([]Lead, 0)
	for _, lead := range m.leads {
		if lead.DeletedAt == nil && lead.AssignedTo != nil && *lead.AssignedTo == owner {
			matched = append(matched, lead)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Lead) int { return a.CreatedAt.Compare(b.CreatedAt) })
	ids := make([]uuid.UUID, 0, len(matched))
	for _, lead := range matched {
		ids = append(ids, lead.ID)
	}
	return ids, nil
}

func (m *Memory) CreateNote(_ context.Context, note Note) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.Seq = m.nextSeq()
	m.notes = append(m.notes, note)
	return note, nil
}

func (m *Memory) ListNotes(_ context.Context, leadID uuid.UUID) ([]Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Note, 0)
	for i := len(m.notes) - 1; i >= 0; i-- {
		if m.notes[i].LeadID == leadID {
			out = append(out, m.notes[i])
		}
	}
	return out, nil
}

func (m *Memory) CreateCall(_ context.Context, call CallSummary) (CallSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	call.Seq = m.nextSeq()
	m.calls = append(m.calls, call)
	return call, nil
}

func (m *Memory) ListCalls(_ context.Context, leadID uuid.UUID) ([]CallSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CallSummary, 0)
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].LeadID == leadID {
			out = append(out, m.calls[i])
		}
	}
	return out, nil
}

func (m *Memory) CreateTask(_ context.Context, task Task) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.Seq = m.nextSeq()
	m.tasks[task.ID] = copyTask(task)
	return copyTask(task), nil
}

func (m *Memory) GetTask(_ context.Context, id uuid.UUID) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (m *Memory) ListTasks(_ context.Context, leadID uuid.UUID) ([]Task, error) {
	m.mu.RLock()
	out := make([]Task, 0)
	for _, task := range m.tasks {
		if task.LeadID == leadID {
			out = append(out, copyTask(task))
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
	return out, nil
}

func (m *Memory) SwapTaskStatus(_ context.Context, id uuid.UUID, from, to domain.TaskStatus, at time.Time, event TimelineEvent) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if task.Status != from {
		return Task{}, ErrTaskStatusMismatch
	}
	task.Status = to
	task.UpdatedAt = at
	m.tasks[id] = task
	m.appendEventsLocked(task.LeadID, []TimelineEvent{event})
	return copyTask(task), nil
}

func (m *Memory) CreateMeeting(_ context.Context, meeting Meeting) (Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	meeting.Attendees = nonNilStrings(meeting.Attendees)
	meeting.ActionItems = nonNilStrings(meeting.ActionItems)
	meeting.Seq = m.nextSeq()
	m.meetings = append(m.meetings, copyMeeting(meeting))
	return copyMeeting(meeting), nil
}

func (m *Memory) ListMeetings(_ context.Context, leadID uuid.UUID) ([]Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Meeting, 0)
	for i := len(m.meetings) - 1; i >= 0; i-- {
		if m.meetings[i].LeadID == leadID {
			out = append(out, copyMeeting(m.meetings[i]))
		}
	}
	return out, nil
}

func (m *Memory) ListTimelineEvents(_ context.Context, leadID uuid.UUID) ([]TimelineEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TimelineEvent, 0)
	for i := len(m.timeline) - 1; i >= 0; i-- {
		if m.timeline[i].LeadID == leadID {
			out = append(out, copyEvent(m.timeline[i]))
		}
	}
	return out, nil
}
