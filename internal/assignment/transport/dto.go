package transport

import (
	"time"

	leadtransport "estate_crm_backend/internal/leads/transport"

	"github.com/google/uuid"
)

// Request DTOs

// AssignLeadRequest overwrites a lead's owner. A null assignedTo unassigns.
type AssignLeadRequest struct {
	AssignedTo      *leadtransport.OwnerRequest `json:"assignedTo"`
	ExpectedVersion *int64                      `json:"expectedVersion,omitempty"`
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type AddMembersRequest struct {
	UserIDs []uuid.UUID `json:"userIds" validate:"required,min=1,max=100"`
}

// Response DTOs

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type MeResponse struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Role    string      `json:"role"`
	TeamIDs []uuid.UUID `json:"teamIds"`
}

type TeamResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type MemberResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

type TeamDetailResponse struct {
	TeamResponse
	Members []MemberResponse `json:"members"`
}

// MemberResultResponse reports the outcome of one item of a bulk add.
type MemberResultResponse struct {
	UserID uuid.UUID `json:"userId"`
	OK     bool      `json:"ok"`
	Code   string    `json:"code,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type AddMembersResponse struct {
	Results []MemberResultResponse `json:"results"`
	Added   int                    `json:"added"`
	Failed  int                    `json:"failed"`
}
