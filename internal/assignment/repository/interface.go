package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserReader provides read access to staff users.
type UserReader interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListTeamIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// UserWriter stores staff users. Only fixture seeding writes users; account
// management lives outside this service.
type UserWriter interface {
	UpsertUser(ctx context.Context, user User) (User, error)
}

// TeamStore manages team records.
type TeamStore interface {
	CreateTeam(ctx context.Context, team Team) (Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	// DeleteTeam removes the team and its membership rows. Users are untouched.
	DeleteTeam(ctx context.Context, id uuid.UUID) error
}

// MembershipStore manages the team/user relation.
type MembershipStore interface {
	// AddMember returns ErrDuplicateMember when the pair already exists.
	AddMember(ctx context.Context, teamID, userID uuid.UUID, at time.Time) error
	// RemoveMember reports whether a membership row was removed.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error)
}

// AssignmentRepository composes every assignment store.
type AssignmentRepository interface {
	UserReader
	UserWriter
	TeamStore
	MembershipStore
}

var (
	_ AssignmentRepository = (*Repository)(nil)
	_ AssignmentRepository = (*Memory)(nil)
)
