package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/ports"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeSource struct {
	tasks map[uuid.UUID]repository.Task
	leads map[uuid.UUID]repository.Lead
}

func (f fakeSource) GetTask(_ context.Context, id uuid.UUID) (repository.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	return t, nil
}

func (f fakeSource) GetLead(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func reminderFor(t *testing.T, taskID, leadID uuid.UUID) *asynq.Task {
	t.Helper()
	task, err := NewTaskReminderTask(TaskReminderPayload{TaskID: taskID.String(), LeadID: leadID.String()})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func newHandler(status domain.TaskStatus, withLead bool) (*reminderHandler, *recordingBus, repository.Task) {
	lead := repository.Lead{ID: uuid.New(), Name: "Rajesh Kumar"}
	task := repository.Task{ID: uuid.New(), LeadID: lead.ID, Title: "Site visit", Status: status, DueDate: time.Now()}
	src := fakeSource{
		tasks: map[uuid.UUID]repository.Task{task.ID: task},
		leads: map[uuid.UUID]repository.Lead{},
	}
	if withLead {
		src.leads[lead.ID] = lead
	}
	bus := &recordingBus{}
	return &reminderHandler{source: src, bus: bus, log: logger.Discard()}, bus, task
}

func TestReminderPublishesTaskDue(t *testing.T) {
	h, bus, task := newHandler(domain.TaskPending, true)

	if err := h.handleTaskReminder(context.Background(), reminderFor(t, task.ID, task.LeadID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	due, ok := bus.events[0].(events.TaskDue)
	if !ok || due.TaskID != task.ID || due.LeadName != "Rajesh Kumar" || due.Title != "Site visit" {
		t.Fatalf("unexpected event %+v", bus.events[0])
	}
}

func TestReminderSkipsCompletedTask(t *testing.T) {
	h, bus, task := newHandler(domain.TaskCompleted, true)

	if err := h.handleTaskReminder(context.Background(), reminderFor(t, task.ID, task.LeadID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.events) != 0 {
		t.Fatalf("expected no events, got %d", len(bus.events))
	}
}

func TestReminderSkipsDeletedLeadAndMissingTask(t *testing.T) {
	h, bus, task := newHandler(domain.TaskPending, false)

	if err := h.handleTaskReminder(context.Background(), reminderFor(t, task.ID, task.LeadID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.handleTaskReminder(context.Background(), reminderFor(t, uuid.New(), task.LeadID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.events) != 0 {
		t.Fatalf("expected no events, got %d", len(bus.events))
	}
}

func TestReminderMalformedPayloadSkipsRetry(t *testing.T) {
	h, _, _ := newHandler(domain.TaskPending, true)

	err := h.handleTaskReminder(context.Background(), asynq.NewTask(TaskLeadTaskReminder, []byte(`{"taskId":"nope"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
	var c *Client
	if err := c.ScheduleTaskReminder(context.Background(), reminderPorts(), time.Now()); err != nil {
		t.Fatalf("nil client should be a no-op, got %v", err)
	}
}

type schedulerConfig struct{}

func (schedulerConfig) GetRedisURL() string       { return "" }
func (schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (schedulerConfig) GetAsynqQueueName() string { return "" }
func (schedulerConfig) GetAsynqConcurrency() int  { return 0 }

func reminderPorts() ports.TaskReminder {
	return ports.TaskReminder{TaskID: uuid.New(), LeadID: uuid.New()}
}
