// Package service resolves who owns a lead and who may see it, and manages
// teams and their membership.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/internal/events"
	leaddomain "estate_crm_backend/internal/leads/domain"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// DuplicatePolicy decides what adding an existing team member does.
type DuplicatePolicy string

const (
	// DuplicateReject fails with a duplicate error.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateIgnore treats the add as a no-op.
	DuplicateIgnore DuplicatePolicy = "ignore"
)

// ParseDuplicatePolicy defaults to DuplicateReject for unknown values.
func ParseDuplicatePolicy(s string) DuplicatePolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(DuplicateIgnore)) {
		return DuplicateIgnore
	}
	return DuplicateReject
}

// Repository is the assignment data access the service needs.
type Repository interface {
	repository.UserReader
	repository.TeamStore
	repository.MembershipStore
}

// LeadReader is the read access to leads the service needs.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ListLeadIDsByOwner(ctx context.Context, owner leaddomain.Owner) ([]uuid.UUID, error)
}

// OwnerWriter overwrites a lead's owner and records the change in its trail.
type OwnerWriter interface {
	SetOwner(ctx context.Context, actorID, leadID uuid.UUID, owner *leaddomain.Owner, expectedVersion *int64) (leadrepo.Lead, *leaddomain.Owner, error)
}

// Service implements the assignment resolver.
type Service struct {
	repo      Repository
	leads     LeadReader
	owners    OwnerWriter
	locker    lock.Locker
	eventBus  events.Bus
	validator *validator.Validator
	log       *logger.Logger
	policy    DuplicatePolicy
	fanOut    int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDuplicatePolicy selects what re-adding a team member does.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the assignment service.
func New(repo Repository, leads LeadReader, owners OwnerWriter, locker lock.Locker, eventBus events.Bus, val *validator.Validator, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:      repo,
		leads:     leads,
		owners:    owners,
		locker:    locker,
		eventBus:  eventBus,
		validator: val,
		log:       log,
		policy:    DuplicateReject,
		fanOut:    8,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOwnerWriter wires the lead owner writer after construction. The lead
// lifecycle and this service depend on each other through ports.
func (s *Service) SetOwnerWriter(owners OwnerWriter) {
	s.owners = owners
}

// ResolveCurrentUser loads the caller's role and team memberships.
func (s *Service) ResolveCurrentUser(ctx context.Context, userID uuid.UUID) (domain.CurrentUser, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.CurrentUser{}, apperr.Unauthorized("unknown user")
		}
		return domain.CurrentUser{}, err
	}
	teamIDs, err := s.repo.ListTeamIDsForUser(ctx, userID)
	if err != nil {
		return domain.CurrentUser{}, err
	}
	return domain.CurrentUser{ID: user.ID, Name: user.Name, Role: user.Role, TeamIDs: teamIDs}, nil
}

// ResolveOwner checks that owner names an existing user or team.
func (s *Service) ResolveOwner(ctx context.Context, owner leaddomain.Owner) error {
	switch owner.Kind {
	case leaddomain.OwnerUser:
		if _, err := s.repo.GetUser(ctx, owner.ID); err != nil {
			return mapRepoError(err)
		}
	case leaddomain.OwnerTeam:
		if _, err := s.repo.GetTeam(ctx, owner.ID); err != nil {
			return mapRepoError(err)
		}
	default:
		return apperr.ValidationFields([]apperr.FieldError{{Field: "assignedTo.kind", Reason: "not_allowed"}})
	}
	return nil
}

// CanAccess reports whether user may see or change lead.
func (s *Service) CanAccess(user domain.CurrentUser, lead leadrepo.Lead) bool {
	return domain.CanAccess(user, lead.AssignedTo)
}

// AssignLead overwrites the owner of a lead. A nil owner unassigns it.
func (s *Service) AssignLead(ctx context.Context, actor domain.CurrentUser, leadID uuid.UUID, req transport.AssignLeadRequest) (leadrepo.Lead, error) {
	owner := req.AssignedTo.ToOwner()
	if req.AssignedTo != nil {
		if failures := validator.FieldErrors(s.validator.Struct(req.AssignedTo)); len(failures) > 0 {
			for i := range failures {
				failures[i].Field = "assignedTo." + failures[i].Field
			}
			return leadrepo.Lead{}, apperr.ValidationFields(failures)
		}
	}

	current, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return leadrepo.Lead{}, mapRepoError(err)
	}
	if !domain.CanAccess(actor, current.AssignedTo) {
		s.log.AccessDenied("assign_lead", actor.ID.String(), string(actor.Role), leadID.String())
		return leadrepo.Lead{}, apperr.Forbidden("lead belongs to another owner")
	}

	if owner != nil && owner.Kind == leaddomain.OwnerTeam {
		// Hold the team so it cannot be deleted between the check and the write.
		release, err := s.locker.Lock(ctx, lock.Key("team", owner.ID))
		if err != nil {
			return leadrepo.Lead{}, apperr.Wrap(apperr.KindConflict, "team is busy, retry", err)
		}
		defer release()
	}
	if owner != nil {
		if err := s.ResolveOwner(ctx, *owner); err != nil {
			return leadrepo.Lead{}, err
		}
	}

	updated, previous, err := s.owners.SetOwner(ctx, actor.ID, leadID, owner, req.ExpectedVersion)
	if err != nil {
		return leadrepo.Lead{}, err
	}

	s.eventBus.Publish(ctx, events.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        updated.ID,
		LeadName:      updated.Name,
		PreviousOwner: ownerRef(previous),
		NewOwner:      ownerRef(owner),
		AssignedByID:  actor.ID,
	})
	return updated, nil
}

// ListUsers returns every staff user.
func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListUsers(ctx)
}

func ownerRef(o *leaddomain.Owner) *events.OwnerRef {
	if o == nil {
		return nil
	}
	return &events.OwnerRef{Kind: string(o.Kind), ID: o.ID}
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, repository.ErrTeamNotFound):
		return apperr.NotFound("team not found")
	case errors.Is(err, leadrepo.ErrNotFound):
		return apperr.NotFound("lead not found")
	default:
		return err
	}
}
