package repository

import (
	"errors"
	"time"

	"estate_crm_backend/internal/assignment/domain"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrDuplicateMember = errors.New("user is already a member of the team")
	ErrDuplicateEmail  = errors.New("email already in use")
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Role      domain.Role
	CreatedAt time.Time
}

type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is a user as seen through a team membership.
type Member struct {
	UserID  uuid.UUID
	Name    string
	Email   string
	Role    domain.Role
	AddedAt time.Time
}
