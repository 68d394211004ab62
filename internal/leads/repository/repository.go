package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL implementation of LeadsRepository.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, email, phone, stage, status, score, property_type, budget, location,
	bedroom_count, source, assigned_owner_type, assigned_owner_id, created_by, created_at, updated_at,
	version, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (Lead, error) {
	var lead Lead
	var stage, status string
	var ownerKind *string
	var ownerID *uuid.UUID
	if err := s.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&stage,
		&status,
		&lead.Score,
		&lead.PropertyType,
		&lead.Budget,
		&lead.Location,
		&lead.BedroomCount,
		&lead.Source,
		&ownerKind,
		&ownerID,
		&lead.CreatedBy,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&lead.Version,
		&lead.DeletedAt,
	); err != nil {
		return Lead{}, err
	}
	lead.Stage = domain.Stage(stage)
	lead.Status = domain.Status(status)
	lead.AssignedTo = ownerFromColumns(ownerKind, ownerID)
	return lead, nil
}

func ownerColumns(owner *domain.Owner) (*string, *uuid.UUID) {
	if owner == nil {
		return nil, nil
	}
	kind := string(owner.Kind)
	id := owner.ID
	return &kind, &id
}

func ownerFromColumns(kind *string, id *uuid.UUID) *domain.Owner {
	if kind == nil || id == nil {
		return nil
	}
	return &domain.Owner{Kind: domain.OwnerKind(*kind), ID: *id}
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND deleted_at IS NULL`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) CreateLead(ctx context.Context, lead Lead, events []TimelineEvent) (Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Version == 0 {
		lead.Version = 1
	}
	ownerKind, ownerID := ownerColumns(lead.AssignedTo)

	var created Lead
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO leads (
				id, name, email, phone, stage, status, score, property_type, budget, location,
				bedroom_count, source, assigned_owner_type, assigned_owner_id, created_by, created_at, updated_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING `+leadColumns,
			lead.ID, lead.Name, lead.Email, lead.Phone, string(lead.Stage), string(lead.Status), lead.Score,
			lead.PropertyType, lead.Budget, lead.Location, lead.BedroomCount, lead.Source,
			ownerKind, ownerID, lead.CreatedBy, lead.CreatedAt, lead.UpdatedAt, lead.Version,
		)
		var err error
		created, err = scanLead(row)
		if err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		return insertTimelineEvents(ctx, tx, created.ID, events)
	})
	if err != nil {
		return Lead{}, err
	}
	return created, nil
}

func (r *Repository) UpdateLead(ctx context.Context, lead Lead, expectedVersion int64, events []TimelineEvent) (Lead, error) {
	ownerKind, ownerID := ownerColumns(lead.AssignedTo)

	var updated Lead
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE leads SET
				name = $3, email = $4, phone = $5, stage = $6, status = $7, score = $8,
				property_type = $9, budget = $10, location = $11, bedroom_count = $12,
				assigned_owner_type = $13, assigned_owner_id = $14, updated_at = $15, deleted_at = $16,
				version = version + 1
			WHERE id = $1 AND version = $2 AND deleted_at IS NULL
			RETURNING `+leadColumns,
			lead.ID, expectedVersion,
			lead.Name, lead.Email, lead.Phone, string(lead.Stage), string(lead.Status), lead.Score,
			lead.PropertyType, lead.Budget, lead.Location, lead.BedroomCount,
			ownerKind, ownerID, lead.UpdatedAt, lead.DeletedAt,
		)
		var err error
		updated, err = scanLead(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissedUpdate(ctx, tx, lead.ID)
		}
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		return insertTimelineEvents(ctx, tx, updated.ID, events)
	})
	if err != nil {
		return Lead{}, err
	}
	return updated, nil
}

// classifyMissedUpdate tells a missing lead apart from a stale version.
func (r *Repository) classifyMissedUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check lead: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *Repository) ListLeads(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClauses := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argIdx := 1

	if !params.Scope.All {
		teamIDs := params.Scope.TeamIDs
		if teamIDs == nil {
			teamIDs = []uuid.UUID{}
		}
		whereClauses = append(whereClauses, fmt.Sprintf(
			"((assigned_owner_type = 'user' AND assigned_owner_id = $%d) OR (assigned_owner_type = 'team' AND assigned_owner_id = ANY($%d)))",
			argIdx, argIdx+1))
		args = append(args, params.Scope.UserID, teamIDs)
		argIdx += 2
	}
	if params.Stage != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, string(*params.Stage))
		argIdx++
	}
	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}
	if params.Source != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(source) = LOWER($%d)", argIdx))
		args = append(args, params.Source)
		argIdx++
	}
	if params.AssignedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("assigned_owner_type = $%d AND assigned_owner_id = $%d", argIdx, argIdx+1))
		args = append(args, string(params.AssignedTo.Kind), params.AssignedTo.ID)
		argIdx += 2
	}
	if params.MinScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("score >= $%d", argIdx))
		args = append(args, *params.MinScore)
		argIdx++
	}
	if params.MaxScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("score <= $%d", argIdx))
		args = append(args, *params.MaxScore)
		argIdx++
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name ILIKE $%d ESCAPE '\\' OR email ILIKE $%d ESCAPE '\\' OR phone ILIKE $%d ESCAPE '\\')", argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(search)+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC, id ASC`, leadColumns, whereClause)
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", rows.Err())
	}

	return items, total, nil
}

func (r *Repository) ListLeadIDsByOwner(ctx context.Context, owner domain.Owner) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads
		WHERE assigned_owner_type = $1 AND assigned_owner_id = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, string(owner.Kind), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list leads by owner: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func insertTimelineEvents(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, events []TimelineEvent) error {
	for _, event := range events {
		if err := insertTimelineEvent(ctx, tx, leadID, event); err != nil {
			return err
		}
	}
	return nil
}

func insertTimelineEvent(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, event TimelineEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_timeline_events (id, lead_id, actor_id, event_type, title, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, leadID, event.ActorID, string(event.EventType), event.Title, metadataJSON, event.CreatedAt); err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}
