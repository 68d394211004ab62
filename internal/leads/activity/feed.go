package activity

import (
	"cmp"
	"context"
	"slices"
	"time"

	"estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FeedItem is one entry of the merged activity trail. Exactly one record
// pointer is set, matching Kind.
type FeedItem struct {
	Kind      domain.FeedKind
	Timestamp time.Time
	Seq       int64
	Note      *repository.Note
	Call      *repository.CallSummary
	Task      *repository.Task
	Meeting   *repository.Meeting
	Event     *repository.TimelineEvent
}

// Summary is the derived contact state of a lead.
type Summary struct {
	LastContactedAt *time.Time
	NextActionDue   *repository.Task
	NoteCount       int
	CallCount       int
	TaskCount       int
	PendingTasks    int
	MeetingCount    int
}

type trail struct {
	notes    []repository.Note
	calls    []repository.CallSummary
	tasks    []repository.Task
	meetings []repository.Meeting
	events   []repository.TimelineEvent
}

// loadTrail reads every record kind of a lead concurrently.
func (s *Service) loadTrail(ctx context.Context, leadID uuid.UUID) (trail, error) {
	if err := s.ensureLead(ctx, leadID); err != nil {
		return trail{}, err
	}

	var t trail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		t.notes, err = s.repo.ListNotes(gctx, leadID)
		return err
	})
	g.Go(func() (err error) {
		t.calls, err = s.repo.ListCalls(gctx, leadID)
		return err
	})
	g.Go(func() (err error) {
		t.tasks, err = s.repo.ListTasks(gctx, leadID)
		return err
	})
	g.Go(func() (err error) {
		t.meetings, err = s.repo.ListMeetings(gctx, leadID)
		return err
	})
	g.Go(func() (err error) {
		t.events, err = s.repo.ListTimelineEvents(gctx, leadID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.DatabaseError("load_activity_trail", err)
		return trail{}, err
	}
	return t, nil
}

// GetFeed returns the merged trail, newest first. Entries with the same
// timestamp are ordered by reverse insertion.
func (s *Service) GetFeed(ctx context.Context, leadID uuid.UUID) ([]FeedItem, error) {
	t, err := s.loadTrail(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return mergeFeed(t), nil
}

func mergeFeed(t trail) []FeedItem {
	items := make([]FeedItem, 0, len(t.notes)+len(t.calls)+len(t.tasks)+len(t.meetings)+len(t.events))
	for i := range t.notes {
		items = append(items, FeedItem{Kind: domain.FeedNote, Timestamp: t.notes[i].CreatedAt, Seq: t.notes[i].Seq, Note: &t.notes[i]})
	}
	for i := range t.calls {
		items = append(items, FeedItem{Kind: domain.FeedCall, Timestamp: t.calls[i].CreatedAt, Seq: t.calls[i].Seq, Call: &t.calls[i]})
	}
	for i := range t.tasks {
		items = append(items, FeedItem{Kind: domain.FeedTask, Timestamp: t.tasks[i].CreatedAt, Seq: t.tasks[i].Seq, Task: &t.tasks[i]})
	}
	for i := range t.meetings {
		items = append(items, FeedItem{Kind: domain.FeedMeeting, Timestamp: t.meetings[i].CreatedAt, Seq: t.meetings[i].Seq, Meeting: &t.meetings[i]})
	}
	for i := range t.events {
		items = append(items, FeedItem{Kind: domain.FeedSystem, Timestamp: t.events[i].CreatedAt, Seq: t.events[i].Seq, Event: &t.events[i]})
	}

	slices.SortStableFunc(items, func(a, b FeedItem) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
	return items
}

// GetUpcoming returns pending tasks due now or later, soonest first.
func (s *Service) GetUpcoming(ctx context.Context, leadID uuid.UUID) ([]repository.Task, error) {
	if err := s.ensureLead(ctx, leadID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return upcoming(tasks, s.now()), nil
}

func upcoming(tasks []repository.Task, now time.Time) []repository.Task {
	out := make([]repository.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == domain.TaskPending && !task.DueDate.Before(now) {
			out = append(out, task)
		}
	}
	slices.SortStableFunc(out, func(a, b repository.Task) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}

// GetSummary derives when the lead was last contacted and what is due next.
// A call counts from when it was logged; a meeting from its meeting date once that has passed.
func (s *Service) GetSummary(ctx context.Context, leadID uuid.UUID) (Summary, error) {
	t, err := s.loadTrail(ctx, leadID)
	if err != nil {
		return Summary{}, err
	}
	now := s.now()

	sum := Summary{
		NoteCount:    len(t.notes),
		CallCount:    len(t.calls),
		TaskCount:    len(t.tasks),
		MeetingCount: len(t.meetings),
	}

	var last time.Time
	for _, c := range t.calls {
		if c.CreatedAt.After(last) {
			last = c.CreatedAt
		}
	}
	for _, m := range t.meetings {
		if !m.MeetingDate.After(now) && m.MeetingDate.After(last) {
			last = m.MeetingDate
		}
	}
	if !last.IsZero() {
		sum.LastContactedAt = &last
	}

	for _, task := range t.tasks {
		if task.Status == domain.TaskPending {
			sum.PendingTasks++
		}
	}
	if next := upcoming(t.tasks, now); len(next) > 0 {
		sum.NextActionDue = &next[0]
	}
	return sum, nil
}
