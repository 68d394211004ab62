package service

import (
	"context"
	"errors"
	"strings"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/internal/events"
	leaddomain "estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/lock"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TeamDetail is a team together with its members.
type TeamDetail struct {
	Team    repository.Team
	Members []repository.Member
}

// MemberResult is the outcome of one item of a bulk membership add.
type MemberResult struct {
	UserID uuid.UUID
	Err    error
}

// CreateTeam creates an empty team. Admin and Manager only.
func (s *Service) CreateTeam(ctx context.Context, actor domain.CurrentUser, req transport.CreateTeamRequest) (repository.Team, error) {
	if err := s.requireTeamManager(actor, "create_team", ""); err != nil {
		return repository.Team{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Check(req); err != nil {
		return repository.Team{}, err
	}

	now := s.now()
	team, err := s.repo.CreateTeam(ctx, repository.Team{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.DatabaseError("create_team", err)
		return repository.Team{}, err
	}

	s.log.TeamEvent("created", team.ID.String(), actor.ID.String())
	s.eventBus.Publish(ctx, events.TeamCreated{
		BaseEvent: events.NewBaseEvent(),
		TeamID:    team.ID,
		ActorID:   actor.ID,
		Name:      team.Name,
	})
	return team, nil
}

// GetTeam returns a team and its members.
func (s *Service) GetTeam(ctx context.Context, teamID uuid.UUID) (TeamDetail, error) {
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return TeamDetail{}, mapRepoError(err)
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return TeamDetail{}, err
	}
	return TeamDetail{Team: team, Members: members}, nil
}

// ListTeams returns every team.
func (s *Service) ListTeams(ctx context.Context) ([]repository.Team, error) {
	return s.repo.ListTeams(ctx)
}

// DeleteTeam removes a team and its memberships. Users are kept. Leads the
// team owned are unassigned first, each with its own reassigned event.
// Admin only.
func (s *Service) DeleteTeam(ctx context.Context, actor domain.CurrentUser, teamID uuid.UUID) error {
	if !actor.IsAdmin() {
		s.log.AccessDenied("delete_team", actor.ID.String(), string(actor.Role), teamID.String())
		return apperr.Forbidden("only Admin may delete teams")
	}

	release, err := s.locker.Lock(ctx, lock.Key("team", teamID))
	if err != nil {
		return apperr.Wrap(apperr.KindConflict, "team is busy, retry", err)
	}
	defer release()

	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return mapRepoError(err)
	}

	owner := leaddomain.Owner{Kind: leaddomain.OwnerTeam, ID: teamID}
	leadIDs, err := s.leads.ListLeadIDsByOwner(ctx, owner)
	if err != nil {
		return err
	}

	unassigned := make([]uuid.UUID, 0, len(leadIDs))
	for _, leadID := range leadIDs {
		updated, previous, err := s.owners.SetOwner(ctx, actor.ID, leadID, nil, nil)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		unassigned = append(unassigned, leadID)
		s.eventBus.Publish(ctx, events.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        leadID,
			LeadName:      updated.Name,
			PreviousOwner: ownerRef(previous),
			AssignedByID:  actor.ID,
		})
	}

	if err := s.repo.DeleteTeam(ctx, teamID); err != nil {
		return mapRepoError(err)
	}

	s.log.TeamEvent("deleted", teamID.String(), actor.ID.String(), "unassigned_leads", len(unassigned))
	s.eventBus.Publish(ctx, events.TeamDeleted{
		BaseEvent:       events.NewBaseEvent(),
		TeamID:          teamID,
		ActorID:         actor.ID,
		UnassignedLeads: unassigned,
	})
	return nil
}

// AddTeamMember adds one user to a team. Adding an existing member fails
// with a duplicate error or is ignored, depending on the configured policy.
// Admin and Manager only.
func (s *Service) AddTeamMember(ctx context.Context, actor domain.CurrentUser, teamID, userID uuid.UUID) error {
	if err := s.requireTeamManager(actor, "add_team_member", teamID.String()); err != nil {
		return err
	}
	return s.addMember(ctx, actor, teamID, userID)
}

// AddTeamMembers adds several users independently. One failing item never
// stops the others; every item gets its own result in input order.
func (s *Service) AddTeamMembers(ctx context.Context, actor domain.CurrentUser, teamID uuid.UUID, req transport.AddMembersRequest) ([]MemberResult, error) {
	if err := s.requireTeamManager(actor, "add_team_members", teamID.String()); err != nil {
		return nil, err
	}
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, mapRepoError(err)
	}

	results := make([]MemberResult, len(req.UserIDs))
	var g errgroup.Group
	g.SetLimit(s.fanOut)
	for i, userID := range req.UserIDs {
		g.Go(func() error {
			results[i] = MemberResult{UserID: userID, Err: s.addMember(ctx, actor, teamID, userID)}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *Service) addMember(ctx context.Context, actor domain.CurrentUser, teamID, userID uuid.UUID) error {
	release, err := s.locker.Lock(ctx, lock.Key("team", teamID))
	if err != nil {
		return apperr.Wrap(apperr.KindConflict, "team is busy, retry", err)
	}
	defer release()

	err = s.repo.AddMember(ctx, teamID, userID, s.now())
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateMember):
		if s.policy == DuplicateIgnore {
			return nil
		}
		return apperr.Duplicate("user is already a member of the team")
	default:
		return mapRepoError(err)
	}

	s.log.TeamEvent("member_added", teamID.String(), actor.ID.String(), "user_id", userID.String())
	s.eventBus.Publish(ctx, events.TeamMemberAdded{
		BaseEvent: events.NewBaseEvent(),
		TeamID:    teamID,
		UserID:    userID,
		ActorID:   actor.ID,
	})
	return nil
}

// RemoveTeamMember removes a user from a team. Removing a non-member is a no-op.
// Admin and Manager only.
func (s *Service) RemoveTeamMember(ctx context.Context, actor domain.CurrentUser, teamID, userID uuid.UUID) error {
	if err := s.requireTeamManager(actor, "remove_team_member", teamID.String()); err != nil {
		return err
	}

	release, err := s.locker.Lock(ctx, lock.Key("team", teamID))
	if err != nil {
		return apperr.Wrap(apperr.KindConflict, "team is busy, retry", err)
	}
	defer release()

	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return mapRepoError(err)
	}
	removed, err := s.repo.RemoveMember(ctx, teamID, userID)
	if err != nil || !removed {
		return err
	}

	s.log.TeamEvent("member_removed", teamID.String(), actor.ID.String(), "user_id", userID.String())
	s.eventBus.Publish(ctx, events.TeamMemberRemoved{
		BaseEvent: events.NewBaseEvent(),
		TeamID:    teamID,
		UserID:    userID,
		ActorID:   actor.ID,
	})
	return nil
}

func (s *Service) requireTeamManager(actor domain.CurrentUser, op, resourceID string) error {
	if actor.Role.CanManageTeams() {
		return nil
	}
	s.log.AccessDenied(op, actor.ID.String(), string(actor.Role), resourceID)
	return apperr.Forbidden("only Admin or Manager may manage teams")
}
