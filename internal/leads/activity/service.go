// Package activity records the append-only trail of a lead (notes, call
// summaries, tasks, meeting minutes) and reads it back as a single feed.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	assigndomain "estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/ports"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/sanitize"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// Repository is the data access the activity aggregator needs.
type Repository interface {
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	repository.NoteStore
	repository.CallStore
	repository.TaskStore
	repository.MeetingStore
	repository.TimelineEventStore
}

// Service implements the activity aggregator.
type Service struct {
	repo      Repository
	locker    lock.Locker
	eventBus  events.Bus
	reminders ports.ReminderScheduler
	validator *validator.Validator
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReminderScheduler enables due-date reminders for recorded tasks.
func WithReminderScheduler(r ports.ReminderScheduler) Option {
	return func(s *Service) { s.reminders = r }
}

// New creates an activity service.
func New(repo Repository, locker lock.Locker, eventBus events.Bus, val *validator.Validator, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:      repo,
		locker:    locker,
		eventBus:  eventBus,
		validator: val,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordNote appends a free-text note.
func (s *Service) RecordNote(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.RecordNoteRequest) (repository.Note, error) {
	req.Content = sanitize.Text(req.Content)
	if err := s.validator.Check(req); err != nil {
		return repository.Note{}, err
	}
	if err := s.ensureLead(ctx, leadID); err != nil {
		return repository.Note{}, err
	}

	return s.repo.CreateNote(ctx, repository.Note{
		ID:        uuid.New(),
		LeadID:    leadID,
		AuthorID:  actor.ID,
		Content:   req.Content,
		CreatedAt: s.now(),
	})
}

// RecordCall appends a call summary.
func (s *Service) RecordCall(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.RecordCallRequest) (repository.CallSummary, error) {
	req.Outcome = strings.TrimSpace(req.Outcome)
	req.NextAction = sanitize.Text(req.NextAction)
	req.Notes = sanitize.Text(req.Notes)
	if err := s.validator.Check(req); err != nil {
		return repository.CallSummary{}, err
	}
	if err := s.ensureLead(ctx, leadID); err != nil {
		return repository.CallSummary{}, err
	}

	return s.repo.CreateCall(ctx, repository.CallSummary{
		ID:              uuid.New(),
		LeadID:          leadID,
		AuthorID:        actor.ID,
		DurationSeconds: req.DurationSeconds,
		Outcome:         req.Outcome,
		NextAction:      req.NextAction,
		Notes:           req.Notes,
		CreatedAt:       s.now(),
	})
}

// RecordTask appends a pending follow-up task. Priority defaults to medium.
// A task due in the future gets a reminder; failing to schedule it is logged only.
func (s *Service) RecordTask(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.RecordTaskRequest) (repository.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = sanitize.Text(req.Description)
	req.Priority = strings.ToLower(strings.TrimSpace(req.Priority))
	if err := s.validator.Check(req); err != nil {
		return repository.Task{}, err
	}
	if err := s.ensureLead(ctx, leadID); err != nil {
		return repository.Task{}, err
	}

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	now := s.now()
	task, err := s.repo.CreateTask(ctx, repository.Task{
		ID:          uuid.New(),
		LeadID:      leadID,
		AuthorID:    actor.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		Priority:    priority,
		Status:      domain.TaskPending,
		AssigneeID:  req.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return repository.Task{}, err
	}

	if s.reminders != nil && task.DueDate.After(now) {
		reminder := ports.TaskReminder{TaskID: task.ID, LeadID: leadID}
		if err := s.reminders.ScheduleTaskReminder(ctx, reminder, task.DueDate); err != nil {
			s.log.Warn("failed to schedule task reminder", "taskId", task.ID, "error", err)
		}
	}

	s.eventBus.Publish(ctx, events.TaskRecorded{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     task.ID,
		LeadID:     leadID,
		AuthorID:   actor.ID,
		AssigneeID: task.AssigneeID,
		Title:      task.Title,
		DueDate:    task.DueDate,
	})
	return task, nil
}

// RecordMeeting appends meeting minutes.
func (s *Service) RecordMeeting(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.RecordMeetingRequest) (repository.Meeting, error) {
	req.Agenda = sanitize.Text(req.Agenda)
	req.Discussion = sanitize.Text(req.Discussion)
	req.Attendees = sanitize.List(req.Attendees)
	req.ActionItems = sanitize.List(req.ActionItems)
	if err := s.validator.Check(req); err != nil {
		return repository.Meeting{}, err
	}
	if err := s.ensureLead(ctx, leadID); err != nil {
		return repository.Meeting{}, err
	}

	return s.repo.CreateMeeting(ctx, repository.Meeting{
		ID:          uuid.New(),
		LeadID:      leadID,
		AuthorID:    actor.ID,
		MeetingDate: req.MeetingDate.UTC(),
		Attendees:   req.Attendees,
		Agenda:      req.Agenda,
		Discussion:  req.Discussion,
		ActionItems: req.ActionItems,
		CreatedAt:   s.now(),
	})
}

// GetTask returns a task on a live lead.
func (s *Service) GetTask(ctx context.Context, taskID uuid.UUID) (repository.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return repository.Task{}, apperr.NotFound("task not found")
		}
		return repository.Task{}, err
	}
	if err := s.ensureLead(ctx, task.LeadID); err != nil {
		return repository.Task{}, err
	}
	return task, nil
}

// ToggleTaskStatus flips a task between pending and completed as a
// compare-and-swap on the status the caller last saw. A stale expectation is a conflict.
func (s *Service) ToggleTaskStatus(ctx context.Context, actor assigndomain.CurrentUser, taskID uuid.UUID, req transport.ToggleTaskRequest) (repository.Task, error) {
	if err := s.validator.Check(req); err != nil {
		return repository.Task{}, err
	}

	release, err := s.locker.Lock(ctx, lock.Key("task", taskID))
	if err != nil {
		return repository.Task{}, apperr.Wrap(apperr.KindConflict, "task is busy, retry", err)
	}
	defer release()

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return repository.Task{}, err
	}

	from := task.Status
	if req.ExpectedStatus != "" && domain.TaskStatus(req.ExpectedStatus) != from {
		return repository.Task{}, apperr.Conflict("task status changed since it was loaded")
	}
	to := from.Toggled()

	title := domain.TitleTaskCompleted
	if to == domain.TaskPending {
		title = domain.TitleTaskReopened
	}
	now := s.now()
	trail := repository.TimelineEvent{
		ID:        uuid.New(),
		LeadID:    task.LeadID,
		ActorID:   actor.ID,
		EventType: domain.EventTaskStatusChanged,
		Title:     title,
		Metadata: map[string]any{
			"taskId": task.ID.String(),
			"title":  task.Title,
			"from":   string(from),
			"to":     string(to),
		},
		CreatedAt: now,
	}

	updated, err := s.repo.SwapTaskStatus(ctx, taskID, from, to, now, trail)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskStatusMismatch):
			return repository.Task{}, apperr.Conflict("task status changed since it was loaded")
		case errors.Is(err, repository.ErrTaskNotFound):
			return repository.Task{}, apperr.NotFound("task not found")
		}
		s.log.DatabaseError("toggle_task", err)
		return repository.Task{}, err
	}

	s.eventBus.Publish(ctx, events.TaskStatusToggled{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    updated.ID,
		LeadID:    updated.LeadID,
		ActorID:   actor.ID,
		Status:    string(updated.Status),
	})
	return updated, nil
}

func (s *Service) ensureLead(ctx context.Context, leadID uuid.UUID) error {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}
	return nil
}
