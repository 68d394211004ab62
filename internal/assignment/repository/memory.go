package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type membershipKey struct {
	teamID uuid.UUID
	userID uuid.UUID
}

// Memory is an in-process AssignmentRepository.
type Memory struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	teams   map[uuid.UUID]Team
	members map[membershipKey]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]User),
		teams:   make(map[uuid.UUID]Team),
		members: make(map[membershipKey]time.Time),
	}
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (m *Memory) ListTeamIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	out := make([]uuid.UUID, 0)
	for key := range m.members {
		if key.userID == userID {
			out = append(out, key.teamID)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}

func (m *Memory) UpsertUser(_ context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for id, existing := range m.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return User{}, ErrDuplicateEmail
		}
	}
	if existing, ok := m.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) CreateTeam(_ context.Context, team Team) (Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	m.teams[team.ID] = team
	return team, nil
}

func (m *Memory) GetTeam(_ context.Context, id uuid.UUID) (Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return Team{}, ErrTeamNotFound
	}
	return t, nil
}

func (m *Memory) ListTeams(_ context.Context) ([]Team, error) {
	m.mu.RLock()
	out := make([]Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Team) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (m *Memory) DeleteTeam(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return ErrTeamNotFound
	}
	for key := range m.members {
		if key.teamID == id {
			delete(m.members, key)
		}
	}
	delete(m.teams, id)
	return nil
}

func (m *Memory) AddMember(_ context.Context, teamID, userID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[teamID]; !ok {
		return ErrTeamNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return ErrUserNotFound
	}
	key := membershipKey{teamID: teamID, userID: userID}
	if _, ok := m.members[key]; ok {
		return ErrDuplicateMember
	}
	m.members[key] = at
	return nil
}

func (m *Memory) RemoveMember(_ context.Context, teamID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey{teamID: teamID, userID: userID}
	if _, ok := m.members[key]; !ok {
		return false, nil
	}
	delete(m.members, key)
	return true, nil
}

func (m *Memory) ListMembers(_ context.Context, teamID uuid.UUID) ([]Member, error) {
	m.mu.RLock()
	out := make([]Member, 0)
	for key, at := range m.members {
		if key.teamID != teamID {
			continue
		}
		u := m.users[key.userID]
		out = append(out, Member{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, AddedAt: at})
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Member) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}
