// Package lifecycle owns a lead's stage, status and score and every other
// mutation of the lead record. Each change is written together with the
// system events that describe it.
package lifecycle

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
	"estate_crm_backend/platform/phone"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// Repository is the data access the lifecycle engine needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
}

// Service implements lead lifecycle operations.
type Service struct {
	repo      Repository
	locker    lock.Locker
	eventBus  events.Bus
	owners    ports.OwnerResolver
	validator *validator.Validator
	phones    phone.Normalizer
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPhoneRegion sets the default region for phone normalisation.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.phones = phone.NewNormalizer(region) }
}

// New creates a lifecycle service.
func New(repo Repository, locker lock.Locker, eventBus events.Bus, owners ports.OwnerResolver, val *validator.Validator, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:      repo,
		locker:    locker,
		eventBus:  eventBus,
		owners:    owners,
		validator: val,
		phones:    phone.NewNormalizer(phone.DefaultRegion),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLead returns a live lead.
func (s *Service) GetLead(ctx context.Context, leadID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return repository.Lead{}, mapRepoError(err)
	}
	return lead, nil
}

// CreateLead validates the fields, stores a new lead at stage New, status
// Unanswered and the default score, and logs lead_created. A non-elevated
// creator who names no owner becomes the owner so the lead stays visible to them.
func (s *Service) CreateLead(ctx context.Context, actor assigndomain.CurrentUser, req transport.CreateLeadRequest) (repository.Lead, error) {
	fields := trimFields(req.LeadFields)

	failures := validator.FieldErrors(s.validator.Struct(fields))
	if req.AssignedTo != nil {
		for _, f := range validator.FieldErrors(s.validator.Struct(req.AssignedTo)) {
			f.Field = "assignedTo." + f.Field
			failures = append(failures, f)
		}
	}
	if len(failures) > 0 {
		return repository.Lead{}, apperr.ValidationFields(failures)
	}

	owner := req.AssignedTo.ToOwner()
	if owner == nil && !actor.Role.Elevated() {
		owner = &domain.Owner{Kind: domain.OwnerUser, ID: actor.ID}
	}
	if owner != nil && owner.Kind == domain.OwnerTeam {
		// Held until the insert lands so a concurrent team delete sees this lead.
		release, err := s.locker.Lock(ctx, lock.Key("team", owner.ID))
		if err != nil {
			return repository.Lead{}, apperr.Wrap(apperr.KindConflict, "team is busy, retry", err)
		}
		defer release()
	}
	if owner != nil {
		if err := s.owners.ResolveOwner(ctx, *owner); err != nil {
			return repository.Lead{}, err
		}
	}

	now := s.now()
	lead := repository.Lead{
		ID:           uuid.New(),
		Name:         fields.Name,
		Email:        fields.Email,
		Phone:        s.phones.NormalizeE164(fields.Phone),
		Stage:        domain.StageNew,
		Status:       domain.StatusUnanswered,
		Score:        domain.DefaultScore,
		PropertyType: fields.PropertyType,
		Budget:       fields.Budget,
		Location:     fields.Location,
		BedroomCount: fields.BedroomCount,
		Source:       fields.Source,
		AssignedTo:   owner,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}

	trail := []repository.TimelineEvent{
		s.event(actor.ID, domain.EventLeadCreated, domain.TitleLeadCreated, now, map[string]any{
			"stage":  string(lead.Stage),
			"status": string(lead.Status),
			"score":  lead.Score,
			"source": lead.Source,
		}),
	}
	if owner != nil {
		trail = append(trail, s.event(actor.ID, domain.EventReassigned, domain.TitleReassigned, now, ReassignMetadata(nil, owner)))
	}

	created, err := s.repo.CreateLead(ctx, lead, trail)
	if err != nil {
		s.log.DatabaseError("create_lead", err)
		return repository.Lead{}, err
	}

	s.log.LeadEvent("created", created.ID.String(), actor.ID.String())
	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     created.ID,
		CreatedBy:  actor.ID,
		Name:       created.Name,
		Email:      created.Email,
		Phone:      created.Phone,
		Source:     created.Source,
		AssignedTo: OwnerRef(created.AssignedTo),
	})
	if owner != nil {
		s.eventBus.Publish(ctx, events.LeadAssigned{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       created.ID,
			LeadName:     created.Name,
			NewOwner:     OwnerRef(owner),
			AssignedByID: actor.ID,
		})
	}
	return created, nil
}

// TransitionStage moves a lead to any stage. Same-stage saves are logged too.
func (s *Service) TransitionStage(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.TransitionStageRequest) (repository.Lead, error) {
	stage, ok := domain.ParseStage(req.Stage)
	if !ok {
		return repository.Lead{}, apperr.ValidationFields([]apperr.FieldError{{Field: "stage", Reason: "not_allowed"}})
	}

	var from domain.Stage
	updated, err := s.mutate(ctx, leadID, req.ExpectedVersion, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		from = lead.Stage
		lead.Stage = stage
		return []repository.TimelineEvent{
			s.event(actor.ID, domain.EventStageChanged, domain.TitleStageChanged, now, map[string]any{
				"from": string(from),
				"to":   string(stage),
			}),
		}, nil
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.log.LeadEvent("stage_changed", leadID.String(), actor.ID.String(), "from", string(from), "to", string(stage))
	s.eventBus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ActorID:   actor.ID,
		From:      string(from),
		To:        string(stage),
	})
	return updated, nil
}

// TransitionStatus moves a lead to any status.
func (s *Service) TransitionStatus(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.TransitionStatusRequest) (repository.Lead, error) {
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return repository.Lead{}, apperr.ValidationFields([]apperr.FieldError{{Field: "status", Reason: "not_allowed"}})
	}

	var from domain.Status
	updated, err := s.mutate(ctx, leadID, req.ExpectedVersion, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		from = lead.Status
		lead.Status = status
		return []repository.TimelineEvent{
			s.event(actor.ID, domain.EventStatusChanged, domain.TitleStatusChanged, now, map[string]any{
				"from": string(from),
				"to":   string(status),
			}),
		}, nil
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.log.LeadEvent("status_changed", leadID.String(), actor.ID.String(), "from", string(from), "to", string(status))
	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ActorID:   actor.ID,
		From:      string(from),
		To:        string(status),
	})
	return updated, nil
}

// UpdateScore sets the score. Values outside [0,100] fail with a range error
// and leave the stored score untouched.
func (s *Service) UpdateScore(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID, req transport.UpdateScoreRequest) (repository.Lead, error) {
	if req.Score == nil {
		return repository.Lead{}, apperr.ValidationFields([]apperr.FieldError{{Field: "score", Reason: "required"}})
	}
	score := *req.Score
	if !domain.ScoreInRange(score) {
		return repository.Lead{}, apperr.Range("score", score, domain.MinScore, domain.MaxScore)
	}

	var from int
	updated, err := s.mutate(ctx, leadID, req.ExpectedVersion, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		from = lead.Score
		lead.Score = score
		return []repository.TimelineEvent{
			s.event(actor.ID, domain.EventScoreChanged, domain.TitleScoreChanged, now, map[string]any{
				"from": from,
				"to":   score,
			}),
		}, nil
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.eventBus.Publish(ctx, events.LeadScoreChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ActorID:   actor.ID,
		From:      from,
		To:        score,
	})
	return updated, nil
}

// DeleteLead soft-deletes a lead. Only Admin may delete.
func (s *Service) DeleteLead(ctx context.Context, actor assigndomain.CurrentUser, leadID uuid.UUID) error {
	if !actor.IsAdmin() {
		s.log.AccessDenied("delete_lead", actor.ID.String(), string(actor.Role), leadID.String())
		return apperr.Forbidden("only Admin may delete leads")
	}

	_, err := s.mutate(ctx, leadID, nil, func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error) {
		lead.DeletedAt = &now
		return []repository.TimelineEvent{
			s.event(actor.ID, domain.EventLeadDeleted, domain.TitleLeadDeleted, now, nil),
		}, nil
	})
	if err != nil {
		return err
	}

	s.log.LeadEvent("deleted", leadID.String(), actor.ID.String())
	s.eventBus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ActorID:   actor.ID,
	})
	return nil
}

// mutateFunc edits lead in place and returns the system events describing the edit.
// Returning no events and no error skips the write.
type mutateFunc func(lead *repository.Lead, now time.Time) ([]repository.TimelineEvent, error)

// mutate loads a lead under its lock, applies fn and writes the result with an
// optimistic version check. expected, when set, must match the stored version.
func (s *Service) mutate(ctx context.Context, leadID uuid.UUID, expected *int64, fn mutateFunc) (repository.Lead, error) {
	release, err := s.locker.Lock(ctx, lock.Key("lead", leadID))
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindConflict, "lead is busy, retry", err)
	}
	defer release()

	current, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return repository.Lead{}, mapRepoError(err)
	}
	if expected != nil && *expected != current.Version {
		return repository.Lead{}, apperr.Conflict("lead was modified by someone else")
	}

	now := s.now()
	next := current
	trail, err := fn(&next, now)
	if err != nil {
		return repository.Lead{}, err
	}
	if len(trail) == 0 {
		return current, nil
	}
	next.UpdatedAt = now

	updated, err := s.repo.UpdateLead(ctx, next, current.Version, trail)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrVersionConflict) {
			s.log.DatabaseError("update_lead", err)
		}
		return repository.Lead{}, mapRepoError(err)
	}
	return updated, nil
}

func (s *Service) event(actorID uuid.UUID, eventType domain.EventType, title string, at time.Time, metadata map[string]any) repository.TimelineEvent {
	return repository.TimelineEvent{
		ID:        uuid.New(),
		ActorID:   actorID,
		EventType: eventType,
		Title:     title,
		Metadata:  metadata,
		CreatedAt: at,
	}
}

// ReassignMetadata describes an ownership change for a reassigned event.
func ReassignMetadata(from, to *domain.Owner) map[string]any {
	return map[string]any{
		"from": ownerValue(from),
		"to":   ownerValue(to),
	}
}

func ownerValue(o *domain.Owner) any {
	if o == nil {
		return nil
	}
	return map[string]any{"kind": string(o.Kind), "id": o.ID.String()}
}

// OwnerRef converts an owner for event payloads.
func OwnerRef(o *domain.Owner) *events.OwnerRef {
	if o == nil {
		return nil
	}
	return &events.OwnerRef{Kind: string(o.Kind), ID: o.ID}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.Conflict("lead was modified by someone else")
	default:
		return err
	}
}

func trimFields(f transport.LeadFields) transport.LeadFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Source = strings.TrimSpace(f.Source)
	f.PropertyType = strings.TrimSpace(f.PropertyType)
	f.Budget = strings.TrimSpace(f.Budget)
	f.Location = strings.TrimSpace(f.Location)
	return f
}
