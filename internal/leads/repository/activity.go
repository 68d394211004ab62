package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateNote(ctx context.Context, note Note) (Note, error) {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (id, lead_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, note.ID, note.LeadID, note.AuthorID, note.Content, note.CreatedAt).Scan(&note.Seq)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, content, created_at, seq
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.LeadID, &note.AuthorID, &note.Content, &note.CreatedAt, &note.Seq); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notes, nil
}

func (r *Repository) CreateCall(ctx context.Context, call CallSummary) (CallSummary, error) {
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_calls (id, lead_id, author_id, duration_seconds, outcome, next_action, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`, call.ID, call.LeadID, call.AuthorID, call.DurationSeconds, call.Outcome, call.NextAction, call.Notes, call.CreatedAt).Scan(&call.Seq)
	if err != nil {
		return CallSummary{}, fmt.Errorf("insert call: %w", err)
	}
	return call, nil
}

func (r *Repository) ListCalls(ctx context.Context, leadID uuid.UUID) ([]CallSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, duration_seconds, outcome, next_action, notes, created_at, seq
		FROM lead_calls
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	calls := make([]CallSummary, 0)
	for rows.Next() {
		var call CallSummary
		if err := rows.Scan(
			&call.ID,
			&call.LeadID,
			&call.AuthorID,
			&call.DurationSeconds,
			&call.Outcome,
			&call.NextAction,
			&call.Notes,
			&call.CreatedAt,
			&call.Seq,
		); err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return calls, nil
}

const taskColumns = `id, lead_id, author_id, title, description, due_date, priority, status, assignee_id, created_at, updated_at, seq`

func scanTask(s rowScanner) (Task, error) {
	var task Task
	var priority, status string
	if err := s.Scan(
		&task.ID,
		&task.LeadID,
		&task.AuthorID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&priority,
		&status,
		&task.AssigneeID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.Seq,
	); err != nil {
		return Task{}, err
	}
	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	return task, nil
}

func (r *Repository) CreateTask(ctx context.Context, task Task) (Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_tasks (id, lead_id, author_id, title, description, due_date, priority, status, assignee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+taskColumns,
		task.ID, task.LeadID, task.AuthorID, task.Title, task.Description, task.DueDate,
		string(task.Priority), string(task.Status), task.AssigneeID, task.CreatedAt, task.UpdatedAt,
	)
	created, err := scanTask(row)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM lead_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *Repository) ListTasks(ctx context.Context, leadID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM lead_tasks
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tasks, nil
}

func (r *Repository) SwapTaskStatus(ctx context.Context, id uuid.UUID, from, to domain.TaskStatus, at time.Time, event TimelineEvent) (Task, error) {
	var updated Task
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE lead_tasks SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
			RETURNING `+taskColumns,
			id, string(from), string(to), at,
		)
		var err error
		updated, err = scanTask(row)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lead_tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("check task: %w", err)
			}
			if !exists {
				return ErrTaskNotFound
			}
			return ErrTaskStatusMismatch
		}
		if err != nil {
			return fmt.Errorf("update task status: %w", err)
		}
		return insertTimelineEvent(ctx, tx, updated.LeadID, event)
	})
	if err != nil {
		return Task{}, err
	}
	return updated, nil
}

func (r *Repository) CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	attendees := nonNilStrings(meeting.Attendees)
	actionItems := nonNilStrings(meeting.ActionItems)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_meetings (id, lead_id, author_id, meeting_date, attendees, agenda, discussion, action_items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`, meeting.ID, meeting.LeadID, meeting.AuthorID, meeting.MeetingDate, attendees, meeting.Agenda,
		meeting.Discussion, actionItems, meeting.CreatedAt).Scan(&meeting.Seq)
	if err != nil {
		return Meeting{}, fmt.Errorf("insert meeting: %w", err)
	}
	meeting.Attendees = attendees
	meeting.ActionItems = actionItems
	return meeting, nil
}

func (r *Repository) ListMeetings(ctx context.Context, leadID uuid.UUID) ([]Meeting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, meeting_date, attendees, agenda, discussion, action_items, created_at, seq
		FROM lead_meetings
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]Meeting, 0)
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(
			&m.ID,
			&m.LeadID,
			&m.AuthorID,
			&m.MeetingDate,
			&m.Attendees,
			&m.Agenda,
			&m.Discussion,
			&m.ActionItems,
			&m.CreatedAt,
			&m.Seq,
		); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return meetings, nil
}

func (r *Repository) ListTimelineEvents(ctx context.Context, leadID uuid.UUID) ([]TimelineEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, actor_id, event_type, title, metadata, created_at, seq
		FROM lead_timeline_events
		WHERE lead_id = $1
		ORDER BY created_at DESC, seq DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	items := make([]TimelineEvent, 0)
	for rows.Next() {
		var event TimelineEvent
		var eventType string
		var metadataRaw []byte
		if err := rows.Scan(
			&event.ID,
			&event.LeadID,
			&event.ActorID,
			&eventType,
			&event.Title,
			&metadataRaw,
			&event.CreatedAt,
			&event.Seq,
		); err != nil {
			return nil, err
		}
		event.EventType = domain.EventType(eventType)
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode timeline metadata: %w", err)
			}
		}
		items = append(items, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
