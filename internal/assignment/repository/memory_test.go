package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_crm_backend/internal/assignment/domain"
)

func TestMemoryMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()

	user, err := m.UpsertUser(ctx, User{Name: "Vikram", Email: "vikram@estate.test", Role: domain.RoleSales, CreatedAt: now})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	team, _ := m.CreateTeam(ctx, Team{Name: "North", CreatedAt: now, UpdatedAt: now})

	if err := m.AddMember(ctx, team.ID, user.ID, now); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := m.AddMember(ctx, team.ID, user.ID, now); !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}

	members, _ := m.ListMembers(ctx, team.ID)
	if len(members) != 1 || members[0].Name != "Vikram" {
		t.Fatalf("unexpected members %+v", members)
	}

	if err := m.DeleteTeam(ctx, team.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if ids, _ := m.ListTeamIDsForUser(ctx, user.ID); len(ids) != 0 {
		t.Fatalf("expected memberships removed with the team, got %v", ids)
	}
	if _, err := m.GetUser(ctx, user.ID); err != nil {
		t.Fatalf("deleting a team must keep its users: %v", err)
	}
}

func TestMemoryAddMemberUnknownParties(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	team, _ := m.CreateTeam(ctx, Team{Name: "North"})
	user, _ := m.UpsertUser(ctx, User{Name: "Neha", Email: "neha@estate.test", Role: domain.RoleSales})

	if err := m.AddMember(ctx, team.ID, [16]byte{1}, time.Now()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := m.AddMember(ctx, [16]byte{2}, user.ID, time.Now()); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestMemoryRemoveAbsentMember(t *testing.T) {
	m := NewMemory()
	team, _ := m.CreateTeam(context.Background(), Team{Name: "North"})
	removed, err := m.RemoveMember(context.Background(), team.ID, team.ID)
	if err != nil || removed {
		t.Fatalf("expected no-op removal, got removed=%v err=%v", removed, err)
	}
}

func TestMemoryUpsertUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.UpsertUser(ctx, User{Name: "A", Email: "a@estate.test", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := m.UpsertUser(ctx, User{Name: "B", Email: "A@estate.test", Role: domain.RoleSales}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
