package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var fixtureTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedLead(t *testing.T, m *Memory, mutate func(*Lead)) Lead {
	t.Helper()
	lead := Lead{
		Name:         "Lead",
		Email:        "lead@example.com",
		Phone:        "+919876543210",
		Stage:        domain.StageNew,
		Status:       domain.StatusUnanswered,
		Score:        domain.DefaultScore,
		PropertyType: "2BHK",
		Budget:       "40L",
		Source:       "Website",
		CreatedAt:    fixtureTime,
		UpdatedAt:    fixtureTime,
	}
	if mutate != nil {
		mutate(&lead)
	}
	created, err := m.CreateLead(context.Background(), lead, nil)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return created
}

func TestMemoryUpdateLeadRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lead := seedLead(t, m, nil)

	lead.Stage = domain.StageContacted
	updated, err := m.UpdateLead(ctx, lead, lead.Version, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != lead.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}

	if _, err := m.UpdateLead(ctx, lead, lead.Version, nil); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestMemoryUpdateLeadKeepsSource(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lead := seedLead(t, m, nil)

	lead.Source = "Referral"
	updated, err := m.UpdateLead(ctx, lead, lead.Version, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Source != "Website" {
		t.Fatalf("expected source to stay Website, got %q", updated.Source)
	}
}

func TestMemorySoftDeletedLeadIsInvisible(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lead := seedLead(t, m, nil)

	deletedAt := fixtureTime.Add(time.Hour)
	lead.DeletedAt = &deletedAt
	if _, err := m.UpdateLead(ctx, lead, lead.Version, nil); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := m.GetLead(ctx, lead.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	items, total, _ := m.ListLeads(ctx, ListParams{Scope: domain.AccessScope{All: true}})
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected deleted lead to be hidden, got %d", total)
	}
}

func TestMemoryCopiesOnRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rooms := 3
	lead := seedLead(t, m, func(l *Lead) { l.BedroomCount = &rooms })

	got, _ := m.GetLead(ctx, lead.ID)
	*got.BedroomCount = 9

	again, _ := m.GetLead(ctx, lead.ID)
	if *again.BedroomCount != 3 {
		t.Fatalf("store was mutated through a read copy: %d", *again.BedroomCount)
	}
}

func TestMemorySwapTaskStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lead := seedLead(t, m, nil)
	task, _ := m.CreateTask(ctx, Task{LeadID: lead.ID, Title: "Call back", Status: domain.TaskPending, Priority: domain.PriorityMedium})

	event := TimelineEvent{EventType: domain.EventTaskStatusChanged, CreatedAt: fixtureTime}
	if _, err := m.SwapTaskStatus(ctx, task.ID, domain.TaskPending, domain.TaskCompleted, fixtureTime, event); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if _, err := m.SwapTaskStatus(ctx, task.ID, domain.TaskPending, domain.TaskCompleted, fixtureTime, event); !errors.Is(err, ErrTaskStatusMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := m.SwapTaskStatus(ctx, uuid.New(), domain.TaskPending, domain.TaskCompleted, fixtureTime, event); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected task not found, got %v", err)
	}

	events, _ := m.ListTimelineEvents(ctx, lead.ID)
	if len(events) != 1 {
		t.Fatalf("expected exactly one trail entry from the successful swap, got %d", len(events))
	}
}

func TestListParamsMatchesANDSemantics(t *testing.T) {
	userID := uuid.New()
	teamID := uuid.New()
	stage := domain.StageNew
	status := domain.StatusHotLead
	minScore := 40

	lead := Lead{
		Name:       "Rajesh Kumar",
		Email:      "rajesh@x.com",
		Phone:      "+919876543210",
		Stage:      domain.StageNew,
		Status:     domain.StatusHotLead,
		Score:      50,
		Source:     "Website",
		AssignedTo: &domain.Owner{Kind: domain.OwnerTeam, ID: teamID},
	}

	all := domain.AccessScope{All: true}
	cases := []struct {
		name   string
		params ListParams
		want   bool
	}{
		{"no filters", ListParams{Scope: all}, true},
		{"stage and status", ListParams{Scope: all, Stage: &stage, Status: &status}, true},
		{"search email case-insensitive", ListParams{Scope: all, Search: "RAJESH@"}, true},
		{"search phone", ListParams{Scope: all, Search: "98765"}, true},
		{"search miss", ListParams{Scope: all, Search: "priya"}, false},
		{"source case-insensitive", ListParams{Scope: all, Source: "website"}, true},
		{"other source", ListParams{Scope: all, Source: "Referral"}, false},
		{"min score", ListParams{Scope: all, MinScore: &minScore}, true},
		{"assigned team", ListParams{Scope: all, AssignedTo: &domain.Owner{Kind: domain.OwnerTeam, ID: teamID}}, true},
		{"assigned other", ListParams{Scope: all, AssignedTo: &domain.Owner{Kind: domain.OwnerUser, ID: userID}}, false},
		{"scope via team", ListParams{Scope: domain.AccessScope{UserID: userID, TeamIDs: []uuid.UUID{teamID}}}, true},
		{"scope excludes", ListParams{Scope: domain.AccessScope{UserID: userID}}, false},
	}
	for _, tc := range cases {
		if got := tc.params.Matches(lead); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestMemoryListLeadsPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		at := fixtureTime.Add(time.Duration(i) * time.Minute)
		seedLead(t, m, func(l *Lead) { l.CreatedAt = at })
	}

	page, total, err := m.ListLeads(ctx, ListParams{Scope: domain.AccessScope{All: true}, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("expected 2 of 5, got %d of %d", len(page), total)
	}
	if !page[0].CreatedAt.Equal(fixtureTime.Add(3 * time.Minute)) {
		t.Fatalf("expected second-newest first on page, got %v", page[0].CreatedAt)
	}
}
