package transport

import (
	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"

	"github.com/google/uuid"
)

func ToUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func ToUserResponses(users []repository.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

func ToMeResponse(u domain.CurrentUser) MeResponse {
	teamIDs := u.TeamIDs
	if teamIDs == nil {
		teamIDs = []uuid.UUID{}
	}
	return MeResponse{ID: u.ID, Name: u.Name, Role: string(u.Role), TeamIDs: teamIDs}
}

func ToTeamResponse(t repository.Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToTeamResponses(teams []repository.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, ToTeamResponse(t))
	}
	return out
}

func ToMemberResponses(members []repository.Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, MemberResponse{
			UserID:  m.UserID,
			Name:    m.Name,
			Email:   m.Email,
			Role:    string(m.Role),
			AddedAt: m.AddedAt,
		})
	}
	return out
}
