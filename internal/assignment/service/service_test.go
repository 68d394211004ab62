package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/transport"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/leads/activity"
	leaddomain "estate_crm_backend/internal/leads/domain"
	"estate_crm_backend/internal/leads/lifecycle"
	leadrepo "estate_crm_backend/internal/leads/repository"
	leadtransport "estate_crm_backend/internal/leads/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	msgUnexpectedErr = "unexpected error: %v"
	msgExpectedKind  = "expected %s error, got %v"
)

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

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type fixture struct {
	svc       *Service
	lifecycle *lifecycle.Service
	activity  *activity.Service
	repo      *repository.Memory
	leads     *leadrepo.Memory
	bus       *recordingBus

	admin   domain.CurrentUser
	manager domain.CurrentUser
	salesA  domain.CurrentUser
	salesB  domain.CurrentUser
	teamA   repository.Team
	teamB   repository.Team
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		repo:  repository.NewMemory(),
		leads: leadrepo.NewMemory(),
		bus:   &recordingBus{},
	}
	locker := lock.NewKeyedMutex()
	val := validator.New()
	log := logger.Discard()

	f.svc = New(f.repo, f.leads, nil, locker, f.bus, val, log, opts...)
	f.lifecycle = lifecycle.New(f.leads, locker, f.bus, f.svc, val, log)
	f.svc.SetOwnerWriter(f.lifecycle)
	f.activity = activity.New(f.leads, locker, f.bus, val, log)

	user := func(name string, role domain.Role) domain.CurrentUser {
		u, err := f.repo.UpsertUser(ctx, repository.User{Name: name, Email: name + "@estate.test", Role: role, CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf(msgUnexpectedErr, err)
		}
		return domain.CurrentUser{ID: u.ID, Name: u.Name, Role: u.Role}
	}
	f.admin = user("asha", domain.RoleAdmin)
	f.manager = user("meera", domain.RoleManager)
	f.salesA = user("vikram", domain.RoleSales)
	f.salesB = user("neha", domain.RoleSales)

	var err error
	if f.teamA, err = f.svc.CreateTeam(ctx, f.admin, transport.CreateTeamRequest{Name: "Team A"}); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if f.teamB, err = f.svc.CreateTeam(ctx, f.admin, transport.CreateTeamRequest{Name: "Team B"}); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if err := f.svc.AddTeamMember(ctx, f.admin, f.teamA.ID, f.salesA.ID); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if err := f.svc.AddTeamMember(ctx, f.admin, f.teamB.ID, f.salesB.ID); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	return f
}

func (f *fixture) resolve(t *testing.T, u domain.CurrentUser) domain.CurrentUser {
	t.Helper()
	cu, err := f.svc.ResolveCurrentUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	return cu
}

func (f *fixture) createLead(t *testing.T) leadrepo.Lead {
	t.Helper()
	lead, err := f.lifecycle.CreateLead(context.Background(), f.admin, leadtransport.CreateLeadRequest{LeadFields: leadtransport.LeadFields{
		Name:         "Rajesh Kumar",
		Email:        "rajesh@x.com",
		Phone:        "9876543210",
		Source:       "Website",
		PropertyType: "3BHK",
		Budget:       "50-75L",
	}})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	return lead
}

func assignTo(kind string, id uuid.UUID) transport.AssignLeadRequest {
	return transport.AssignLeadRequest{AssignedTo: &leadtransport.OwnerRequest{Kind: kind, ID: id}}
}

func TestResolveCurrentUser(t *testing.T) {
	f := newFixture(t)

	cu := f.resolve(t, f.salesA)
	if cu.Role != domain.RoleSales || len(cu.TeamIDs) != 1 || cu.TeamIDs[0] != f.teamA.ID {
		t.Fatalf("unexpected current user %+v", cu)
	}
	if _, err := f.svc.ResolveCurrentUser(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf(msgExpectedKind, "unauthorized", err)
	}
}

func TestCanAccessByRoleAndTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lead := f.createLead(t)
	lead, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("team", f.teamB.ID))
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if f.svc.CanAccess(f.resolve(t, f.salesA), lead) {
		t.Fatal("sales user must not see another sales user's team lead")
	}
	if !f.svc.CanAccess(f.resolve(t, f.salesB), lead) {
		t.Fatal("sales user must see their own team's lead")
	}
	if !f.svc.CanAccess(f.resolve(t, f.admin), lead) {
		t.Fatal("admin must see every lead")
	}

	own, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("user", f.salesA.ID))
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if !f.svc.CanAccess(f.resolve(t, f.salesA), own) {
		t.Fatal("sales user must see a lead assigned to them")
	}
}

func TestLeadJourneyEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lead := f.createLead(t)
	if lead.Stage != leaddomain.StageNew || lead.Status != leaddomain.StatusUnanswered || lead.Score != 50 {
		t.Fatalf("unexpected new lead %+v", lead)
	}

	if _, err := f.lifecycle.TransitionStage(ctx, f.admin, lead.ID, leadtransport.TransitionStageRequest{Stage: "Contacted"}); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	assigned, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("team", f.teamA.ID))
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if assigned.AssignedTo == nil || assigned.AssignedTo.Kind != leaddomain.OwnerTeam || assigned.AssignedTo.ID != f.teamA.ID {
		t.Fatalf("expected lead assigned to team A, got %v", assigned.AssignedTo)
	}

	feed, err := f.activity.GetFeed(ctx, lead.ID)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	var sawStage, sawAssign bool
	for _, item := range feed {
		if item.Event == nil {
			continue
		}
		switch item.Event.EventType {
		case leaddomain.EventStageChanged:
			sawStage = item.Event.Metadata["from"] == "New" && item.Event.Metadata["to"] == "Contacted"
		case leaddomain.EventReassigned:
			sawAssign = true
		}
	}
	if !sawStage || !sawAssign {
		t.Fatalf("expected stage and reassignment events in feed, stage=%v assign=%v", sawStage, sawAssign)
	}
	if feed[0].Event == nil || feed[0].Event.EventType != leaddomain.EventReassigned {
		t.Fatalf("expected the reassignment to head the feed, got %+v", feed[0])
	}
	if f.bus.count("leads.assigned") != 1 {
		t.Fatalf("expected one LeadAssigned event, got %d", f.bus.count("leads.assigned"))
	}
}

func TestAssignLeadErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)

	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("team", uuid.New())); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("user", uuid.New())); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("group", f.teamA.ID)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf(msgExpectedKind, "validation", err)
	}
	if _, err := f.svc.AssignLead(ctx, f.admin, uuid.New(), assignTo("team", f.teamA.ID)); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
}

func TestAssignLeadNilUnassigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)

	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("user", f.salesA.ID)); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	cleared, err := f.svc.AssignLead(ctx, f.admin, lead.ID, transport.AssignLeadRequest{})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if cleared.AssignedTo != nil {
		t.Fatalf("expected unassigned lead, got %v", cleared.AssignedTo)
	}
}

func TestCreateTeamRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateTeam(ctx, f.salesA, transport.CreateTeamRequest{Name: "Rogue"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf(msgExpectedKind, "forbidden", err)
	}
	if _, err := f.svc.CreateTeam(ctx, f.manager, transport.CreateTeamRequest{Name: "   "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf(msgExpectedKind, "validation", err)
	}
	team, err := f.svc.CreateTeam(ctx, f.manager, transport.CreateTeamRequest{Name: " West Zone "})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if team.Name != "West Zone" {
		t.Fatalf("expected trimmed name, got %q", team.Name)
	}
}

func TestAddTeamMemberDuplicateRejected(t *testing.T) {
	f := newFixture(t)
	err := f.svc.AddTeamMember(context.Background(), f.manager, f.teamA.ID, f.salesA.ID)
	if !apperr.Is(err, apperr.KindDuplicate) {
		t.Fatalf(msgExpectedKind, "duplicate", err)
	}
}

func TestAddTeamMemberDuplicateIgnored(t *testing.T) {
	f := newFixture(t, WithDuplicatePolicy(DuplicateIgnore))
	if err := f.svc.AddTeamMember(context.Background(), f.manager, f.teamA.ID, f.salesA.ID); err != nil {
		t.Fatalf("expected re-add to be a no-op, got %v", err)
	}
	detail, err := f.svc.GetTeam(context.Background(), f.teamA.ID)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if len(detail.Members) != 1 {
		t.Fatalf("expected a single membership row, got %d", len(detail.Members))
	}
}

func TestAddTeamMemberRequiresManager(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.AddTeamMember(context.Background(), f.salesA, f.teamA.ID, f.salesB.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf(msgExpectedKind, "forbidden", err)
	}
}

func TestAddTeamMembersReportsPerItem(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	req := transport.AddMembersRequest{UserIDs: []uuid.UUID{f.salesB.ID, f.salesA.ID, stranger, f.manager.ID}}

	results, err := f.svc.AddTeamMembers(context.Background(), f.admin, f.teamA.ID, req)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	want := []apperr.Kind{apperr.KindUnknown, apperr.KindDuplicate, apperr.KindNotFound, apperr.KindUnknown}
	for i, r := range results {
		if r.UserID != req.UserIDs[i] {
			t.Fatalf("result %d out of order", i)
		}
		if want[i] == apperr.KindUnknown {
			if r.Err != nil {
				t.Fatalf("result %d: unexpected error %v", i, r.Err)
			}
			continue
		}
		if !apperr.Is(r.Err, want[i]) {
			t.Fatalf("result %d: expected %s, got %v", i, want[i].Code(), r.Err)
		}
	}

	detail, _ := f.svc.GetTeam(context.Background(), f.teamA.ID)
	if len(detail.Members) != 3 {
		t.Fatalf("expected 3 members after bulk add, got %d", len(detail.Members))
	}
}

func TestAddTeamMembersUnknownTeam(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddTeamMembers(context.Background(), f.admin, uuid.New(), transport.AddMembersRequest{UserIDs: []uuid.UUID{f.salesA.ID}})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
}

func TestRemoveTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.RemoveTeamMember(ctx, f.manager, f.teamA.ID, f.salesB.ID); err != nil {
		t.Fatalf("removing a non-member should be a no-op, got %v", err)
	}
	if err := f.svc.RemoveTeamMember(ctx, f.manager, f.teamA.ID, f.salesA.ID); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if cu := f.resolve(t, f.salesA); len(cu.TeamIDs) != 0 {
		t.Fatalf("expected no teams left, got %v", cu.TeamIDs)
	}
	if f.bus.count("teams.member.removed") != 1 {
		t.Fatalf("expected one removal event, got %d", f.bus.count("teams.member.removed"))
	}
}

func TestDeleteTeamUnassignsLeadsAndKeepsUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)
	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("team", f.teamA.ID)); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if err := f.svc.DeleteTeam(ctx, f.manager, f.teamA.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf(msgExpectedKind, "forbidden", err)
	}
	if err := f.svc.DeleteTeam(ctx, f.admin, f.teamA.ID); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	stored, err := f.lifecycle.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if stored.AssignedTo != nil {
		t.Fatalf("expected lead to be unassigned, got %v", stored.AssignedTo)
	}
	trail, _ := f.leads.ListTimelineEvents(ctx, lead.ID)
	if trail[0].EventType != leaddomain.EventReassigned || trail[0].Title != leaddomain.TitleUnassigned {
		t.Fatalf("expected an unassignment event, got %+v", trail[0])
	}

	if _, err := f.svc.GetTeam(ctx, f.teamA.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
	if cu := f.resolve(t, f.salesA); len(cu.TeamIDs) != 0 {
		t.Fatalf("expected membership gone, got %v", cu.TeamIDs)
	}
	if err := f.svc.DeleteTeam(ctx, f.admin, f.teamA.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(msgExpectedKind, "not found", err)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	if ParseDuplicatePolicy(" Ignore ") != DuplicateIgnore || ParseDuplicatePolicy("bogus") != DuplicateReject {
		t.Fatal("unexpected duplicate policy parsing")
	}
}

func TestAssignLeadOutsideScopeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)
	if _, err := f.svc.AssignLead(ctx, f.admin, lead.ID, assignTo("team", f.teamB.ID)); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	salesA := f.resolve(t, f.salesA)
	if _, err := f.svc.AssignLead(ctx, salesA, lead.ID, assignTo("user", f.salesA.ID)); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf(msgExpectedKind, "forbidden", err)
	}

	salesB := f.resolve(t, f.salesB)
	if _, err := f.svc.AssignLead(ctx, salesB, lead.ID, assignTo("user", f.salesB.ID)); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
}
