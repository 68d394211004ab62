package scheduler

import (
	"context"
	"errors"
	"fmt"

	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskSource loads the task and lead a reminder refers to.
type TaskSource interface {
	GetTask(ctx context.Context, id uuid.UUID) (repository.Task, error)
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler *reminderHandler
	log     *logger.Logger
}

type reminderHandler struct {
	source TaskSource
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, source TaskSource, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	h := &reminderHandler{source: source, bus: bus, log: log}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLeadTaskReminder, h.handleTaskReminder)

	return &Worker{server: server, mux: mux, handler: h, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleTaskReminder publishes TaskDue for a task that is still pending on a
// live lead. Completed tasks and deleted leads are dropped without retry.
func (h *reminderHandler) handleTaskReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTaskReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	t, err := h.source.GetTask(ctx, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if t.Status != domain.TaskPending {
		h.log.Debug("reminder skipped, task no longer pending", "task_id", t.ID)
		return nil
	}

	lead, err := h.source.GetLead(ctx, t.LeadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return h.bus.PublishSync(ctx, events.TaskDue{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     t.ID,
		LeadID:     lead.ID,
		LeadName:   lead.Name,
		AuthorID:   t.AuthorID,
		AssigneeID: t.AssigneeID,
		Title:      t.Title,
		DueDate:    t.DueDate,
	})
}
